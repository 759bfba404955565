package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/career-lexicon/internal/logger"
)

const (
	app       = "lexicon_builder"
	envPrefix = "LEXICON"
)

var (
	// Used for flags.
	cfgFile string
	// configErr holds a config file read failure for the command to report
	configErr error

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "Builds personal career lexicons from resumes, cover letters and job descriptions",
		Long: `lexicon_builder reads a directory of career documents and writes four markdown lexicons:
values and themes, resume bullet variations, storytelling patterns, and a keyword usage index.

Settings come from flags, LEXICON_* environment variables, and an optional config file
(lexicon_builder.yaml in the current directory, or --config).`,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is lexicon_builder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("api-key", envPrefix+"_API_KEY", "GEMINI_API_KEY")
	_ = viper.BindEnv("database-url", envPrefix+"_DATABASE_URL", "DATABASE_URL")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		configErr = err
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}
