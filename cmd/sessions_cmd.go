package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tupanlabs/zapgate/internal/config"
	"github.com/tupanlabs/zapgate/internal/credstore"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored session credentials",
	}
	cmd.AddCommand(sessionsListCmd())
	return cmd
}

func sessionsListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions with stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store := credstore.New(cfg.DataDir)
			keys, err := store.List()
			if err != nil {
				return err
			}

			if jsonOutput {
				type entry struct {
					SessionID string `json:"sessionId"`
					DeviceJID string `json:"device_jid"`
					Platform  string `json:"platform,omitempty"`
				}
				entries := make([]entry, 0, len(keys))
				for _, key := range keys {
					creds, ok := store.Load(key)
					if !ok {
						continue
					}
					entries = append(entries, entry{key, creds.DeviceJID, creds.Platform})
				}
				return json.NewEncoder(os.Stdout).Encode(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tDEVICE\tPLATFORM\tPAIRED")
			for _, key := range keys {
				creds, ok := store.Load(key)
				if !ok {
					continue
				}
				paired := ""
				if !creds.PairedAt.IsZero() {
					paired = creds.PairedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, creds.DeviceJID, creds.Platform, paired)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
