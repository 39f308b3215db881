// Package cmd implements the zapgate CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zapgate",
		Short: "Multi-session WhatsApp REST gateway",
		Long: "zapgate manages multiple concurrent WhatsApp client sessions, one per\n" +
			"tenant key, behind a REST control plane with QR pairing, credential\n" +
			"persistence and automatic reconnection.",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "zapgate.yaml", "path to the configuration file")
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(sessionsCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
