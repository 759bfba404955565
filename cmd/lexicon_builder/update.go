package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/career-lexicon/internal/db"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-analyze only when documents were added or changed",
	Long: `Compares file hashes with the manifest. When nothing changed the lexicons are left untouched;
otherwise new and changed files are extracted and the whole corpus is re-analyzed.
Without a usable manifest this behaves like build.`,
	PreRunE: bindRunFlags,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLexicon(cmd, db.ModeIncremental)
	},
}

func init() {
	addRunFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)
}
