// cmd/tmbridge/check.go
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/timemachine-bridge/internal/registry"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "refresh every configured instance once and report its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := newLogger(cfg.LogLevel)
		client := remote.NewHTTPClient()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INSTANCE\tURL\tSTATE\tVERSION\tERROR")

		down := 0
		for _, in := range cfg.Instances {
			e, err := registry.Build(in, client, log)
			if err != nil {
				return err
			}

			s := e.Poller.RefreshNow(cmd.Context())
			if s.Health != status.HealthOnline {
				down++
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.ID,
				e.Endpoint.Base,
				s.Health,
				s.Payload.String("version", "-"),
				s.Err,
			)
		}
		_ = tw.Flush()

		if down > 0 {
			return fmt.Errorf("%d of %d instance(s) not online", down, len(cfg.Instances))
		}
		return nil
	},
}
