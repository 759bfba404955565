package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-lexicon/internal/config"
	"github.com/jonathan/career-lexicon/internal/state"
	"github.com/jonathan/career-lexicon/internal/types"
)

var (
	statusOutput string
	statusState  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processed documents recorded in the manifest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := manifestPath(statusOutput, statusState)
		out := cmd.OutOrStdout()
		if !state.Exists(path) {
			_, _ = fmt.Fprintf(out, "No manifest at %s; run build first.\n", path)
			return nil
		}
		printStatus(out, path, state.Load(path))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", config.DefaultOutputDir, "Lexicon output directory")
	statusCmd.Flags().StringVar(&statusState, "state", "", "Manifest path (default <output>/.state.json)")
	rootCmd.AddCommand(statusCmd)
}

func manifestPath(outputDir, stateFile string) string {
	if stateFile != "" {
		return stateFile
	}
	return state.DefaultPath(outputDir)
}

// printStatus lists the manifest's documents grouped by type
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func printStatus(w io.Writer, path string, m *state.ProcessingManifest) {
	fmt.Fprintf(w, "Manifest:     %s\n", path)
	fmt.Fprintf(w, "Version:      %s\n", m.Version)
	fmt.Fprintf(w, "Last updated: %s\n", m.LastUpdated)
	fmt.Fprintf(w, "Documents:    %d\n", len(m.Documents))

	for _, docType := range types.DocumentTypes {
		records := state.DocumentsByType(m, docType)
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d)\n", docType, len(records))
		for _, rec := range records {
			date := "Unknown"
			if rec.DateFromFilename != nil {
				date = *rec.DateFromFilename
			}
			note := ""
			if !rec.ExtractionSuccess {
				note = "  (no text extracted)"
			}
			fmt.Fprintf(w, "  %s  %s%s\n", date, rec.Filepath, note)
		}
	}
}
