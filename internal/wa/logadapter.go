package wa

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// logAdapter routes whatsmeow's internal logging through slog.
type logAdapter struct {
	l      *slog.Logger
	module string
}

func newLogAdapter(l *slog.Logger, module string) waLog.Logger {
	return &logAdapter{l: l, module: module}
}

func (a *logAdapter) Errorf(msg string, args ...any) {
	a.l.Error(fmt.Sprintf(msg, args...), "module", a.module)
}

func (a *logAdapter) Warnf(msg string, args ...any) {
	a.l.Warn(fmt.Sprintf(msg, args...), "module", a.module)
}

func (a *logAdapter) Infof(msg string, args ...any) {
	a.l.Info(fmt.Sprintf(msg, args...), "module", a.module)
}

func (a *logAdapter) Debugf(msg string, args ...any) {
	a.l.Debug(fmt.Sprintf(msg, args...), "module", a.module)
}

func (a *logAdapter) Sub(module string) waLog.Logger {
	return &logAdapter{l: a.l, module: a.module + "/" + module}
}
