package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
	"mediasort/internal/runner"
	"mediasort/internal/transfer"
)

func newDuplicatesCommand(cmdCtx *commandContext) *cobra.Command {
	duplicatesCmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Review and resolve recorded duplicate collisions",
	}

	duplicatesCmd.AddCommand(newDuplicatesListCommand(cmdCtx))
	duplicatesCmd.AddCommand(newDuplicatesResolveCommand(cmdCtx))
	duplicatesCmd.AddCommand(newDuplicatesApplyCommand(cmdCtx))

	return duplicatesCmd
}

func newDuplicatesListCommand(cmdCtx *commandContext) *cobra.Command {
	var unresolvedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recorded duplicate collisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []*ledger.DuplicateEntry
			if unresolvedOnly {
				entries, err = store.UnresolvedDuplicates(cmd.Context())
			} else {
				entries, err = store.ListDuplicates(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicates recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				state := string(entry.Resolution)
				if entry.Applied {
					state += " (applied)"
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					string(entry.Classification),
					state,
					entry.SourcePath,
					entry.DestPath,
					entry.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Class", "Resolution", "Source", "Destination", "Recorded"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unresolvedOnly, "unresolved", false, "Only show entries still awaiting a decision")
	return cmd
}

func newDuplicatesResolveCommand(cmdCtx *commandContext) *cobra.Command {
	var skipFlag, replaceFlag, deleteSourceFlag bool

	cmd := &cobra.Command{
		Use:   "resolve ID",
		Short: "Record a decision for one duplicate collision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution, err := pickResolution(skipFlag, replaceFlag, deleteSourceFlag)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid duplicate ID %q", args[0])
			}

			store, _, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetResolution(cmd.Context(), id, resolution); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Duplicate %d resolved as %s. Run `mediasort duplicates apply` to carry it out.\n", id, resolution)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipFlag, "skip", false, "Keep both files; the source stays where it is")
	cmd.Flags().BoolVar(&replaceFlag, "replace", false, "Replace the destination file with the source")
	cmd.Flags().BoolVar(&deleteSourceFlag, "delete-source", false, "Delete the source file, keeping the destination")
	return cmd
}

func pickResolution(skip, replace, deleteSource bool) (ledger.Resolution, error) {
	chosen := 0
	var resolution ledger.Resolution
	if skip {
		chosen++
		resolution = ledger.ResolutionSkip
	}
	if replace {
		chosen++
		resolution = ledger.ResolutionReplace
	}
	if deleteSource {
		chosen++
		resolution = ledger.ResolutionDeleteSource
	}
	if chosen != 1 {
		return "", fmt.Errorf("choose exactly one of --skip, --replace, or --delete-source")
	}
	return resolution, nil
}

func newDuplicatesApplyCommand(cmdCtx *commandContext) *cobra.Command {
	var moveFlag bool

	cmd := &cobra.Command{
		Use:   "apply DEST",
		Short: "Carry resolved duplicates out on the filesystem",
		Long: "Apply replays every resolved, unapplied duplicate entry against the " +
			"destination root. Deleted files are moved into the destination's " +
			"trash directory, never unlinked.",
		Args: cobra.ExactArgs(1),
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

			logger, err := cmdCtx.newLogger("")
			if err != nil {
				return err
			}

			summary, err := runner.New(cfg, store, logger).ApplyResolutions(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d resolution(s); %d conflict(s); %d failure(s).\n",
				summary.Applied, summary.Conflicts, summary.Failed)
			if summary.Conflicts > 0 {
				fmt.Fprintln(out, "Conflicting entries were left untouched; re-run `mediasort organize` to refresh them.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&moveFlag, "move", false, "Move sources when applying replace resolutions")
	return cmd
}
