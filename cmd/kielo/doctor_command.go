package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/notifications"
	"github.com/hoangt2/kielo-convo-generator/internal/preflight"
	"github.com/hoangt2/kielo-convo-generator/internal/workflow"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "doctor [podcast]",
		Short: "Check binaries, directories, credentials, APIs and stage readiness",
		Args:  modeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ctx.mode(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			built, err := buildClients(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer built.Close()

			results := preflight.RunAll(cmd.Context(), cfg)
			if !offline {
				results = append(results, remoteChecks(cmd.Context(), cfg, built)...)
			}
			results = append(results, stageChecks(cmd.Context(), cfg, built, mode)...)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Text generation: %s\n", describeProvider(cfg))
			printResults(out, results)
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d checks failed", len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip API reachability probes")
	return cmd
}

// remoteChecks probes the APIs whose clients expose a health endpoint. A
// missing client already fails the credentials check, so it is not repeated.
func remoteChecks(ctx context.Context, cfg *config.Config, c *clients) []preflight.Result {
	var results []preflight.Result
	if c.elevenlabs != nil {
		results = append(results, preflight.CheckRemote(ctx, "ElevenLabs API", c.elevenlabs))
	}
	if c.llm != nil {
		results = append(results, preflight.CheckRemote(ctx, "LLM API ("+cfg.LLM.Provider+")", c.llm))
	}
	return results
}

func stageChecks(ctx context.Context, cfg *config.Config, c *clients, mode content.Mode) []preflight.Result {
	manager := workflow.NewManager(cfg, nil, nil, nil, mode)
	manager.ConfigureStages(c.stageSet(cfg, mode))
	var results []preflight.Result
	for _, h := range manager.Health(ctx) {
		results = append(results, preflight.Result{Name: "Stage " + h.Name, Passed: h.Ready, Detail: h.Status()})
	}
	return results
}

func printResults(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test notification through ntfy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, "Notifications not configured; set notifications.ntfy_topic")
				return nil
			}
			svc := notifications.NewService(cfg)
			if err := svc.Publish(cmd.Context(), notifications.EventTest, notifications.Payload{}); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
