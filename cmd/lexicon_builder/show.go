package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-lexicon/internal/config"
	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/rendering"
	"github.com/jonathan/career-lexicon/internal/types"
)

var (
	showFile         string
	showRender       string
	showMinFrequency int
)

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run, print one of its lexicons, or re-render them",
	Long: `Without flags, prints the run's status, statistics, errors and documents.
--file prints a lexicon exactly as the run wrote it, e.g. --file usage_index.md.
--render regenerates all four lexicons from the run's stored findings into a directory.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindStoreFlag,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := commandContext(cmd)
		run, err := lookupRun(ctx, store, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case showFile != "":
			text, err := store.GetTextArtifact(ctx, run.ID, db.LexiconStep(showFile))
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("run %s has no stored %s", run.ID, showFile)
			}
			_, _ = io.WriteString(out, text)
			return nil
		case showRender != "":
			return renderRun(ctx, out, store, run.ID, showRender, showMinFrequency)
		}

		docs, err := store.GetDocuments(ctx, run.ID)
		if err != nil {
			return err
		}
		printRun(out, run, docs)
		return nil
	},
}

func init() {
	addStoreFlag(showCmd)
	showCmd.Flags().StringVarP(&showFile, "file", "f", "", "Print a stored lexicon by file name")
	showCmd.Flags().StringVarP(&showRender, "render", "r", "", "Regenerate the run's lexicons into this directory")
	showCmd.Flags().IntVar(&showMinFrequency, "min-frequency", config.DefaultMinFrequency, "Minimum uses for a keyword to be indexed when rendering")
	rootCmd.AddCommand(showCmd)
}

// renderRun writes the run's stored findings through the lexicon generator
func renderRun(ctx context.Context, w io.Writer, store runStore, runID uuid.UUID, dir string, minFrequency int) error {
	lex, err := store.GetLexicons(ctx, runID)
	if err != nil {
		return err
	}
	gen := rendering.NewGenerator()
	outputs := []struct {
		file  string
		write func(path string) error
	}{
		{rendering.ThemesFile, func(p string) error { return gen.WriteThemes(lex.Themes, p) }},
		{rendering.QualificationsFile, func(p string) error { return gen.WriteQualifications(lex.Qualifications, p) }},
		{rendering.NarrativesFile, func(p string) error { return gen.WriteNarratives(lex.Narratives, p) }},
		{rendering.KeywordsFile, func(p string) error { return gen.WriteKeywords(lex.Keywords, p, minFrequency) }},
	}
	for _, o := range outputs {
		path := filepath.Join(dir, o.file)
		if err := o.write(path); err != nil {
			return fmt.Errorf("failed to render %s: %w", o.file, err)
		}
		_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	}
	return nil
}

// printRun writes a run record and its document inventory
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func printRun(w io.Writer, run *db.Run, docs []db.DocumentSummary) {
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Mode:      %s\n", run.Mode)
	fmt.Fprintf(w, "Status:    %s\n", run.Status)
	fmt.Fprintf(w, "Input:     %s\n", run.InputDir)
	fmt.Fprintf(w, "Output:    %s\n", run.OutputDir)
	fmt.Fprintf(w, "Started:   %s\n", run.CreatedAt.Format(rendering.StampLayout))
	if run.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", run.CompletedAt.Format(rendering.StampLayout))
	}

	if len(run.Statistics) > 0 {
		keys := make([]string, 0, len(run.Statistics))
		for k := range run.Statistics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "\nStatistics")
		for _, k := range keys {
			fmt.Fprintf(w, "  %-22s %d\n", k+":", run.Statistics[k])
		}
	}
	for _, e := range run.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}

	if len(docs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDocuments (%d)\n", len(docs))
	for _, d := range docs {
		date := "Unknown"
		if d.Date != nil {
			date = *d.Date
		}
		docType := d.DocumentType
		if docType == "" {
			docType = string(types.DocUnknown)
		}
		fmt.Fprintf(w, "  %-10s  %-15s  %s\n", date, docType, d.Filepath)
	}
}
