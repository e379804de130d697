package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"playscribe/internal/catalog"
)

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	playlistsCmd := &cobra.Command{
		Use:   "playlists",
		Short: "Inspect and manage discovered playlists",
	}
	playlistsCmd.AddCommand(newPlaylistsListCommand(ctx))
	playlistsCmd.AddCommand(newPlaylistsRetryFailedCommand(ctx))
	playlistsCmd.AddCommand(newPlaylistsRecheckCommand(ctx))
	return playlistsCmd
}

func newPlaylistsListCommand(ctx *commandContext) *cobra.Command {
	var (
		transcription string
		retrieval     string
		topic         string
		limit         int
		jsonOutput    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List playlists filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := catalog.PlaylistFilter{Topic: topic, Limit: limit}
			if transcription != "" {
				status, ok := catalog.ParseTranscriptionStatus(transcription)
				if !ok {
					return fmt.Errorf("unknown transcription status %q (want one of %v)", transcription, catalog.TranscriptionStatuses())
				}
				filter.Transcription = status
			}
			if retrieval != "" {
				status, ok := catalog.ParseRetrievalStatus(retrieval)
				if !ok {
					return fmt.Errorf("unknown retrieval status %q (want one of %v)", retrieval, catalog.RetrievalStatuses())
				}
				filter.Retrieval = status
			}
			return ctx.withStore(func(store *catalog.Store) error {
				list, err := store.ListPlaylists(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No playlists match")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, p := range list {
					topicLabel := string(p.Topic.State)
					if p.Topic.Matched() {
						topicLabel = p.TopicName
					}
					rows = append(rows, []string{
						strconv.FormatInt(p.ID, 10),
						p.ExternalID,
						truncate(p.Title, 40),
						truncate(p.ChannelName, 20),
						topicLabel,
						string(p.TranscriptionStatus),
						string(p.RetrievalStatus),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{header: "ID", right: true},
					{header: "Playlist"},
					{header: "Title"},
					{header: "Channel"},
					{header: "Topic"},
					{header: "Transcription"},
					{header: "Retrieval"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&transcription, "transcription", "", "Filter by transcription status (unknown, transcribed, not_transcribed)")
	cmd.Flags().StringVar(&retrieval, "retrieval", "", "Filter by retrieval status (not_retrieved, retrieved, failed)")
	cmd.Flags().StringVar(&topic, "topic", "", "Filter by topic name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of playlists to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print playlists as JSON")
	return cmd
}

func newPlaylistsRetryFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-failed [playlist-id...]",
		Short: "Reset failed retrievals so the next cycle re-checks them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriteLock(func(store *catalog.Store) error {
				n, err := store.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d failed playlist(s)\n", n)
				return nil
			})
		},
	}
}

func newPlaylistsRecheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recheck [playlist-id...]",
		Short: "Return not_transcribed playlists to unknown so their transcripts are checked again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriteLock(func(store *catalog.Store) error {
				n, err := store.RecheckNotTranscribed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %d playlist(s) for a transcript recheck\n", n)
				return nil
			})
		},
	}
}
