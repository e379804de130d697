package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"playscribe/internal/transcripts"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var pathOnly bool
	cmd := &cobra.Command{
		Use:   "transcript <playlist-id>",
		Short: "Print the stored transcript of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := transcripts.NewStore(cfg.Paths.TranscriptsDir)
			id := strings.TrimSpace(args[0])
			if pathOnly {
				fmt.Fprintln(cmd.OutOrStdout(), store.Path(id))
				return nil
			}
			text, err := store.Read(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Print the transcript file path instead of its contents")
	return cmd
}
