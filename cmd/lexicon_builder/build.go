package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/career-lexicon/internal/config"
	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/llm"
	"github.com/jonathan/career-lexicon/internal/observability"
	"github.com/jonathan/career-lexicon/internal/pipeline"
	"github.com/jonathan/career-lexicon/internal/similarity"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Analyze every document and regenerate all lexicons",
	Long: `Processes every supported file (.pages, .pdf, .docx, .txt, .md) in the input directory,
runs the theme, qualification, narrative and keyword analyzers, and writes the four lexicons.`,
	PreRunE: bindRunFlags,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLexicon(cmd, db.ModeFull)
	},
}

func init() {
	addRunFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

// runFlags maps config keys to the run flags shared by build and update
var runFlags = map[string]string{
	"input":           "input",
	"output":          "output",
	"state":           "state",
	"min-frequency":   "min-frequency",
	"embedder":        "embedder",
	"embedding-model": "embedding-model",
	"model-dir":       "model-dir",
	"xlsx":            "xlsx",
	"database-url":    "db-url",
	"api-key":         "api-key",
	"concurrency":     "concurrency",
	"verbose":         "verbose",
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Directory of career documents")
	cmd.Flags().StringP("output", "o", "", fmt.Sprintf("Directory for the lexicons (default %q)", config.DefaultOutputDir))
	cmd.Flags().String("state", "", "Manifest path (default <output>/.state.json)")
	cmd.Flags().Int("min-frequency", 0, fmt.Sprintf("Minimum uses for a keyword to be indexed (default %d)", config.DefaultMinFrequency))
	cmd.Flags().String("embedder", "", "Similarity backend: local, hash or gemini (default local)")
	cmd.Flags().String("model-dir", "", "Directory for the local sentence model (default user cache dir)")
	cmd.Flags().String("embedding-model", "", fmt.Sprintf("Gemini embedding model (default %s)", llm.DefaultEmbeddingModel))
	cmd.Flags().String("xlsx", "", "Also export all lexicons to this .xlsx workbook")
	cmd.Flags().String("db-url", "", "PostgreSQL URL for run persistence (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().String("api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().Int("concurrency", 0, fmt.Sprintf("Analyzers run in parallel, 1 to %d", config.MaxConcurrency))
	cmd.Flags().BoolP("verbose", "v", false, "Print run summaries")
}

// bindRunFlags binds the invoked command's flags, so build and update can share keys
func bindRunFlags(cmd *cobra.Command, _ []string) error {
	for key, flag := range runFlags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func runLexicon(cmd *cobra.Command, mode string) error {
	if configErr != nil {
		return fmt.Errorf("failed to read config file: %w", configErr)
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := commandContext(cmd)

	out := cmd.OutOrStdout()
	sim := newSimilarity(ctx, cfg, log)
	defer func() {
		if err := sim.Close(); err != nil {
			log.Warn("failed to release embedding model", zap.Error(err))
		}
	}()

	orch := pipeline.New(sim, log)
	orch.Printer = observability.NewPrinter(out)

	if cfg.DatabaseURL != "" {
		database, err := connectStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("continuing without database persistence", zap.Error(err))
		} else {
			defer database.Close()
			orch.Store = database
		}
	}

	opts := pipeline.Options{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		StateFile:    cfg.StateFile,
		MinFrequency: cfg.MinFrequency,
		Concurrency:  cfg.Concurrency,
		XLSXPath:     cfg.XLSXPath,
		Verbose:      cfg.Verbose,
	}
	if cfg.Verbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			log.Debug(e.Message, zap.String("step", e.Step), zap.String("category", e.Category))
		}
	}

	var res *pipeline.Result
	if mode == db.ModeIncremental {
		res = orch.RunIncremental(ctx, opts)
	} else {
		res = orch.RunFull(ctx, opts)
	}

	if !cfg.Verbose {
		printResult(out, res)
	}
	if !res.Success {
		return fmt.Errorf("run finished with %d error(s)", len(res.Errors))
	}
	return nil
}

func connectStore(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// newSimilarity selects the embedding backend. The model is built on first
// use and released by Service.Close.
func newSimilarity(ctx context.Context, cfg *config.Config, log *zap.Logger) *similarity.Service {
	switch cfg.Embedder {
	case config.EmbedderHash:
		return similarity.NewService(func() (similarity.Embedder, error) {
			return similarity.NewHashingEmbedder(similarity.DefaultDimension), nil
		}, log)
	case config.EmbedderGemini:
		return similarity.NewService(func() (similarity.Embedder, error) {
			return llm.NewGeminiEmbedder(ctx, llm.DefaultGeminiConfig().WithModel(cfg.EmbeddingModel), cfg.APIKey)
		}, log)
	default:
		local := similarity.DefaultSentenceConfig()
		if cfg.ModelDir != "" {
			local.ModelDir = cfg.ModelDir
		}
		return similarity.NewService(similarity.LocalFactory(local, log), log)
	}
}

// printResult writes a compact, key-ordered summary of a run
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func printResult(w io.Writer, res *pipeline.Result) {
	status := "succeeded"
	if !res.Success {
		status = "failed"
	}
	fmt.Fprintf(w, "Run %s\n", status)
	for _, key := range []string{
		pipeline.StatDocumentsProcessed,
		pipeline.StatNewDocuments,
		pipeline.StatTotalDocuments,
		pipeline.StatThemesFound,
		pipeline.StatQualificationsFound,
		pipeline.StatNarrativesFound,
		pipeline.StatKeywordsFound,
	} {
		if v, ok := res.Statistics[key]; ok {
			fmt.Fprintf(w, "  %-22s %d\n", key+":", v)
		}
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	if len(res.Blocked) > 0 {
		fmt.Fprintf(w, "  not reached: %s\n", strings.Join(res.Blocked, ", "))
	}
}
