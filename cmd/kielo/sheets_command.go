package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/ideation"
	"github.com/hoangt2/kielo-convo-generator/internal/services/sheets"
)

func newSheetsCommand(ctx *commandContext) *cobra.Command {
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets idea registry utilities",
	}
	sheetsCmd.AddCommand(newSheetsSyncCommand(ctx))
	return sheetsCmd
}

func newSheetsSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [podcast]",
		Short: "Append the current ideas file to the registry sheet",
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
			if !cfg.Sheets.Enabled {
				return fmt.Errorf("sheets registry disabled; set [sheets] enabled = true")
			}
			set, err := content.LoadIdeaSet(mode.IdeasFile(cfg), mode)
			if err != nil {
				return err
			}
			client, err := sheets.New(cmd.Context(), sheets.Config{
				SpreadsheetID:   cfg.Sheets.SpreadsheetID,
				CredentialsFile: cfg.Sheets.CredentialsFile,
			})
			if err != nil {
				return err
			}
			sheet := mode.SheetName(cfg)
			result, err := ideation.Sync(cmd.Context(), client, sheet, set, time.Now())
			if err != nil {
				return fmt.Errorf("sync %s: %w", sheet, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %d ideas to %s (%d already present)\n", result.Appended, sheet, result.Skipped)
			return nil
		},
	}
}
