package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/config"
)

var (
	version     = "dev"
	buildCommit = "unknown"
	buildDate   = "unknown"
)

type rootOptions struct {
	verbose     bool
	catalogPath string
	logger      zerolog.Logger
	cfg         *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "promptctl",
		Short: "Score prompts against the PromptArena challenge catalog",
		Long: `promptctl runs the PromptArena evaluation engine locally.

It scores a prompt and the output it produced against a catalog challenge
without a database or network access, and lists the challenges available.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			opts.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", os.Getenv("PROMPTARENA_CATALOG_PATH"), "Path to a challenge catalog YAML file (defaults to the built-in catalog)")

	cmd.AddCommand(newScoreCommand(opts))
	cmd.AddCommand(newChallengesCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (o *rootOptions) loadCatalog() ([]catalog.Entry, error) {
	if o.catalogPath != "" {
		return catalog.LoadFile(o.catalogPath)
	}
	return catalog.Load()
}

// settings loads the PROMPTARENA_* configuration shared with the API server.
func (o *rootOptions) settings() (config.Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	o.cfg = &cfg
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of promptctl",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "promptctl version %s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", buildCommit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate)
		},
	}
}

func execute() error {
	return newRootCommand().Execute()
}
