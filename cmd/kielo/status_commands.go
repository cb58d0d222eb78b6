package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status [podcast]",
		Short: "Show pipeline progress per item",
		Args:  modeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ctx.mode(args)
			if err != nil {
				return err
			}
			if all {
				mode = ""
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := manifest.Open(cfg.ManifestPath())
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), mode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No items recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Slug", "Mode", "Progress", "Failed", "Updated"},
				itemRows(items, time.Now()),
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List items of every mode")
	return cmd
}

func itemRows(items []*manifest.Item, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		progress := string(item.Progress())
		if progress == "" {
			progress = "-"
		}
		failed := "-"
		if item.Failed() {
			failed = item.FailedStage + ": " + truncate(item.ErrorMessage, 60)
		}
		rows = append(rows, []string{
			item.Slug,
			string(item.Mode),
			progress,
			failed,
			humanize.RelTime(item.UpdatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent stage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := manifest.Open(cfg.ManifestPath())
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Stage", "Mode", "Started", "Elapsed", "Processed", "Skipped", "Failed"},
				runRows(runs, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}

func runRows(runs []manifest.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		elapsed := "running"
		if r.Finished() {
			elapsed = r.Duration().Round(time.Second).String()
		}
		mode := string(r.Mode)
		if mode == "" {
			mode = string(content.ModeConversation)
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			r.Stage,
			mode,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			elapsed,
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
