// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Embedder backends
const (
	EmbedderLocal  = "local"
	EmbedderHash   = "hash"
	EmbedderGemini = "gemini"
)

// Defaults applied by Default and MergeWithDefaults
const (
	DefaultOutputDir    = "lexicons"
	DefaultMinFrequency = 2
	DefaultConcurrency  = 1
	MaxConcurrency      = 4
)

// Config is the resolved run configuration. Values come from flags, the
// environment (LEXICON_ prefix) and an optional config file, in that order of
// precedence.
type Config struct {
	// Paths
	InputDir  string `mapstructure:"input" validate:"required"`
	OutputDir string `mapstructure:"output" validate:"required"`
	StateFile string `mapstructure:"state"` // defaults to <output>/.state.json
	XLSXPath  string `mapstructure:"xlsx"`  // optional workbook export

	// Analysis
	MinFrequency int    `mapstructure:"min-frequency" validate:"gte=1"`
	Concurrency  int    `mapstructure:"concurrency" validate:"gte=1,lte=4"`
	Embedder     string `mapstructure:"embedder" validate:"oneof=local hash gemini"`
	ModelDir     string `mapstructure:"model-dir"` // local sentence model cache

	// Gemini
	APIKey         string `mapstructure:"api-key" validate:"required_if=Embedder gemini"`
	EmbeddingModel string `mapstructure:"embedding-model"`

	// Persistence
	DatabaseURL string `mapstructure:"database-url" validate:"omitempty,url"`

	Verbose bool `mapstructure:"verbose"`
}

// ValidationError reports every invalid field of a Config
type ValidationError struct {
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error: invalid %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

var validate = validator.New()

// Default returns the built-in configuration
func Default() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		MinFrequency: DefaultMinFrequency,
		Concurrency:  DefaultConcurrency,
		Embedder:     EmbedderLocal,
	}
}

// Load unmarshals the viper settings, fills unset values from Default and validates the result
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks field constraints and returns a *ValidationError naming
// every offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: []string{"config"}, Cause: err}
	}
	fields := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return &ValidationError{Fields: fields, Cause: err}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.InputDir == "" {
		result.InputDir = defaults.InputDir
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.StateFile == "" {
		result.StateFile = defaults.StateFile
	}
	if result.XLSXPath == "" {
		result.XLSXPath = defaults.XLSXPath
	}
	if result.Embedder == "" {
		result.Embedder = defaults.Embedder
	}
	if result.ModelDir == "" {
		result.ModelDir = defaults.ModelDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.MinFrequency == 0 {
		result.MinFrequency = defaults.MinFrequency
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
