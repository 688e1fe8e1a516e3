package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/copilot-velocity/internal/cache"
	"github.com/naka-gawa/copilot-velocity/internal/config"
	"github.com/naka-gawa/copilot-velocity/internal/logger"
	"github.com/naka-gawa/copilot-velocity/internal/source"
	"github.com/naka-gawa/copilot-velocity/internal/usecase"
)

// app holds the dependencies shared by every view command.
type app struct {
	cfg        config.Config
	logger     *zap.SugaredLogger
	aggregator *usecase.Aggregator
	cache      *cache.Cache
	provider   *source.Provider
}

// envelope wraps every command's output with the data origin.
type envelope struct {
	Source  source.Origin `json:"source"`
	Warning string        `json:"warning,omitempty"`
	Data    any           `json:"data"`
}

// newApp loads configuration and injects dependencies for a command run.
func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	path, _ := cmd.Flags().GetString("config")

	loaded, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := loaded.Config

	log, err := logger.New(cfg.Log, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	for _, w := range loaded.Warnings {
		log.Warn(w)
	}

	baseline, err := usecase.ParseBaseline(cfg.Analysis.Baseline, cfg.Analysis.BaselineSprint, cfg.Analysis.CurrentSprint)
	if err != nil {
		return nil, err
	}
	log.Debugw("configured", "live", cfg.Source.Live, "baseline", baseline.Name())

	// One process serves one command, so the cache only pays off for repeated
	// reads within a run.
	c := cache.New(nil)
	return &app{
		cfg:        cfg,
		logger:     log,
		aggregator: usecase.NewAggregator(baseline),
		cache:      c,
		provider:   source.New(cfg, c, log),
	}, nil
}

// writeJSON marshals v into a pretty-printed JSON document followed by a newline.
func writeJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
