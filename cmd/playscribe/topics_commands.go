package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"playscribe/internal/catalog"
	"playscribe/internal/topics"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Inspect and manage searchable topics",
	}
	topicsCmd.AddCommand(newTopicsListCommand(ctx))
	topicsCmd.AddCommand(newTopicsSyncCommand(ctx))
	topicsCmd.AddCommand(newTopicsResetCommand(ctx))
	return topicsCmd
}

func newTopicsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics and their search state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				list, err := store.ListTopics(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No topics registered (run `playscribe topics sync`)")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, topic := range list {
					searchedAt := "-"
					if topic.SearchedAt != nil {
						searchedAt = topic.SearchedAt.Local().Format(time.DateTime)
					}
					rows = append(rows, []string{
						topic.Name,
						yesNo(topic.Searched),
						searchedAt,
						strconv.Itoa(topic.SearchFailures),
						truncate(topic.LastSearchError, 48),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{header: "Topic"},
					{header: "Searched"},
					{header: "Searched At"},
					{header: "Failures", right: true},
					{header: "Last Error"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print topics as JSON")
	return cmd
}

func newTopicsSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Register topics from the rules file in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := topics.Load(cfg.Topics.RulesFile)
			if err != nil {
				return err
			}
			return ctx.withWriteLock(func(store *catalog.Store) error {
				added, err := store.SyncTopics(cmd.Context(), registry.Names())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %d new topic(s); %d defined in %s\n",
					added, registry.Len(), cfg.Topics.RulesFile)
				return nil
			})
		},
	}
}

func newTopicsResetCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [topic...]",
		Short: "Mark topics unsearched so the next cycles search them again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("name at least one topic or pass --all")
			}
			if len(args) > 0 && all {
				return errors.New("--all cannot be combined with topic names")
			}
			return ctx.withWriteLock(func(store *catalog.Store) error {
				n, err := store.ResetTopics(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d topic(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reset every topic")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
