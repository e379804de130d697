package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"playscribe/internal/daemonrun"
	"playscribe/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		grep   string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log of the latest daemon run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := daemonrun.CurrentLogPath(cfg)
			stdout := cmd.OutOrStdout()
			emit := func(line string) {
				if grep != "" && !strings.Contains(line, grep) {
					return
				}
				fmt.Fprintln(stdout, line)
			}

			tail, pos, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if pos.File == "" && !follow {
				fmt.Fprintf(stdout, "No daemon log at %s\n", path)
				return nil
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, pos, 250*time.Millisecond, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&grep, "grep", "", "Only print lines containing this text")
	return cmd
}
