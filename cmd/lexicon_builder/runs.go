package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/pipeline"
	"github.com/jonathan/career-lexicon/internal/rendering"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:     "runs",
	Short:   "List recorded runs, newest first",
	Args:    cobra.NoArgs,
	PreRunE: bindStoreFlag,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(commandContext(cmd), runsLimit)
		if err != nil {
			return err
		}
		printRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	addStoreFlag(runsCmd)
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-11s  %-9s  %s\n", "ID", "STARTED", "MODE", "STATUS", "DOCUMENTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-11s  %-9s  %d\n",
			r.ID, r.CreatedAt.Format(rendering.StampLayout), r.Mode, r.Status, r.Statistics[pipeline.StatDocumentsProcessed])
	}
}
