package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/workspace"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var errNotConfirmed = errors.New("cleanup aborted")

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	var opts workspace.CleanupOptions
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove generated ideas, scripts, media and work files",
		Long: `Remove every generated artifact so the next run starts from scratch.

Archived subtitles and the manifest database are kept unless --archived or
--manifest is given. Without --yes the command asks for confirmation and
refuses to run when stdin is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			targets := workspace.Targets(cfg, opts)
			out := cmd.OutOrStdout()

			var total int64
			for _, t := range targets {
				total += workspace.Size(t.Path)
			}
			fmt.Fprintf(out, "The following paths will be removed (%s):\n", humanize.Bytes(uint64(total)))
			for _, t := range targets {
				fmt.Fprintf(out, "  %s\n", t.Path)
			}

			if !yes {
				if !stdinIsTerminal() {
					return errors.New("refusing to prompt without a terminal; pass --yes to confirm")
				}
				if !confirm(cmd.InOrStdin(), out) {
					return errNotConfirmed
				}
			}

			lock, err := workspace.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			result := workspace.Clean(targets, logger)
			fmt.Fprintf(out, "Removed %d paths (%d already absent)\n", len(result.Removed), len(result.Missing))
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", e.Path, e.Error)
				}
				return fmt.Errorf("%d paths could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&opts.Archived, "archived", false, "Also remove archived subtitles")
	cmd.Flags().BoolVar(&opts.Manifest, "manifest", false, "Also remove the manifest database")
	return cmd
}

// confirm accepts only a literal "yes".
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Type 'yes' to continue: ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}
