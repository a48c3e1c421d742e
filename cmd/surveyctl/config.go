package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/survey-extractor/internal/app"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

func addFlags(root *cobra.Command) {
	common.AddFlags(root.PersistentFlags())
}

// loadConfig resolves configuration for cmd; override may adjust it before
// validation.
func loadConfig(cmd *cobra.Command, override func(*common.Config)) (*common.Config, *slog.Logger, error) {
	v := viper.New()
	if err := common.BindFlags(v, cmd.Flags()); err != nil {
		return nil, nil, err
	}
	cfg, err := common.LoadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	// stdout carries command output; logs go to stderr
	logger := common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openApp(cmd *cobra.Command, override func(*common.Config)) (*app.App, error) {
	cfg, logger, err := loadConfig(cmd, override)
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
