package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediasort/internal/logging"
	"mediasort/internal/runner"
	"mediasort/internal/transfer"
)

func newOrganizeCommand(cmdCtx *commandContext) *cobra.Command {
	var moveFlag bool
	var noCompareFlag bool

	cmd := &cobra.Command{
		Use:   "organize SOURCE DEST",
		Short: "Sort media files from SOURCE into dated folders under DEST",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			mode, err := transfer.ParseMode(cfg.Mode)
			if err != nil {
				return err
			}
			if moveFlag {
				mode = transfer.ModeMove
			}
			compare := cfg.CompareContent && !noCompareFlag

			sessionDir, err := logging.NewSessionDir(cfg.LogDir, time.Now())
			if err != nil {
				return fmt.Errorf("create session dir: %w", err)
			}
			logger, err := cmdCtx.newLogger(sessionDir)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := runner.Options{
				Source:          args[0],
				Dest:            args[1],
				Mode:            mode,
				Compare:         compare,
				ChunkSize:       cfg.CompareChunkKiB * 1024,
				CheckpointEvery: cfg.CheckpointEvery,
				SessionDir:      sessionDir,
			}

			var bar *progressbar.ProgressBar
			if stdoutIsTerminal() {
				bar = progressbar.Default(-1, "Organizing media")
				var seen int
				opts.Progress = func(s runner.Snapshot) {
					_ = bar.Add(s.Discovered - seen)
					seen = s.Discovered
				}
			}

			summary, runErr := runner.New(cfg, store, logger).Run(ctx, opts)
			if bar != nil {
				_ = bar.Finish()
			}
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&moveFlag, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVar(&noCompareFlag, "no-compare", false, "Treat every name collision as a duplicate without comparing bytes")
	return cmd
}

func printSummary(out io.Writer, summary *runner.Summary) {
	rows := [][]string{
		{"Discovered", fmt.Sprintf("%d", summary.Discovered)},
		{"Moved", fmt.Sprintf("%d", summary.Moved)},
		{"Copied", fmt.Sprintf("%d", summary.Copied)},
		{"Duplicates", fmt.Sprintf("%d", summary.Duplicates)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
		{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Run %s; reports in %s\n", summary.RunID, summary.SessionDir)
	if summary.Duplicates > 0 {
		fmt.Fprintln(out, "Review duplicates with `mediasort duplicates list`, then `mediasort duplicates apply`.")
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
