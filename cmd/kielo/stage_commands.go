package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/stageexec"
	"github.com/hoangt2/kielo-convo-generator/internal/workflow"
)

var stageDescriptions = map[string]string{
	workflow.StageIdeas:      "Generate a batch of ideas into the ideas file",
	workflow.StageScripts:    "Write one dialogue script per idea",
	workflow.StageIllustrate: "Generate a portrait illustration per script",
	workflow.StageAudio:      "Synthesize the dialogue audio per script",
	workflow.StageVideo:      "Combine audio and illustration into a still video",
	workflow.StageMix:        "Mix background music under each video",
	workflow.StageSubtitle:   "Transcribe, translate and burn subtitles into the final video",
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(workflow.Order))
	for _, name := range workflow.Order {
		cmds = append(cmds, newStageCommand(ctx, name))
	}
	return cmds
}

func newStageCommand(ctx *commandContext, name string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [podcast]",
		Short: stageDescriptions[name],
		Args:  modeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ctx.mode(args)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), mode, func(runCtx context.Context, s *session) error {
				summary, err := s.manager.RunStage(runCtx, name, s.runID)
				printSummaries(cmd.OutOrStdout(), []stageexec.Summary{summary})
				return err
			})
		},
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "run [podcast]",
		Short: "Run the stages in order, stopping after a stage with failures",
		Args:  modeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ctx.mode(args)
			if err != nil {
				return err
			}
			if _, err := workflow.Between(from, to); err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), mode, func(runCtx context.Context, s *session) error {
				report, err := s.manager.Run(runCtx, workflow.RunOptions{From: from, To: to, RunID: s.runID})
				out := cmd.OutOrStdout()
				printSummaries(out, report.Summaries)
				if report.StoppedAt != "" && err == nil {
					fmt.Fprintf(out, "Stopped after %s: nothing to do\n", report.StoppedAt)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First stage to run (default ideas)")
	cmd.Flags().StringVar(&to, "to", "", "Last stage to run (default subtitle)")
	return cmd
}

func printSummaries(out io.Writer, summaries []stageexec.Summary) {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		if s.Stage == "" {
			continue
		}
		rows = append(rows, []string{
			s.Stage,
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Failed),
			s.Duration.Round(100 * time.Millisecond).String(),
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Processed", "Skipped", "Failed", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}
