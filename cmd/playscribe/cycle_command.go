package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playscribe/internal/daemonrun"
)

func newCycleCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run a single scheduler cycle and exit",
		Long: "Run one unit of work: search one pending topic, or advance every " +
			"matched playlist whose transcript availability is unknown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(logLevel)
			if err != nil {
				return err
			}
			d, err := daemonrun.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			outcome, err := d.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Cycle outcome: %s\n", outcome)
			return err
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this cycle")
	return cmd
}
