package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/types"
)

// runStore is the run history read by runs, show and forget. *db.DB satisfies it.
type runStore interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	GetDocuments(ctx context.Context, runID uuid.UUID) ([]db.DocumentSummary, error)
	GetLexicons(ctx context.Context, runID uuid.UUID) (*types.Lexicons, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
	Close()
}

var errNoDatabase = errors.New("no database configured; set --db-url or DATABASE_URL")

// openStore is replaced in tests
var openStore = func(ctx context.Context, url string) (runStore, error) {
	database, err := connectStore(ctx, url)
	if err != nil {
		return nil, err
	}
	return database, nil
}

func addStoreFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-url", "", "PostgreSQL URL of the run history (defaults to DATABASE_URL env var)")
}

// bindStoreFlag binds the invoked command's --db-url to the database-url key
func bindStoreFlag(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlag("database-url", cmd.Flags().Lookup("db-url")); err != nil {
		return fmt.Errorf("binding flag db-url: %w", err)
	}
	return nil
}

// historyStore opens the configured run history
func historyStore(cmd *cobra.Command) (runStore, error) {
	if configErr != nil {
		return nil, fmt.Errorf("failed to read config file: %w", configErr)
	}
	url := viper.GetString("database-url")
	if url == "" {
		return nil, errNoDatabase
	}
	return openStore(commandContext(cmd), url)
}

// lookupRun parses a run ID and loads its record
func lookupRun(ctx context.Context, store runStore, arg string) (*db.Run, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", arg, err)
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
