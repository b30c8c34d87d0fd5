package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	shared.LoadDotEnv()

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load %s: %v", configPath, err)
		}
	}
	shared.ApplyEnv(config)

	// The library service needs a developer token, so it stays nil until
	// tokens are imported. Commands that need it report that themselves.
	var library services.Library
	if appleMusic, err := services.NewAppleMusicService(config); err == nil {
		library = appleMusic
	} else {
		logger.Debugf("apple music service unavailable: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Library:    library,
		API:        services.NewAPIService(config, nil),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "amx",
		Usage:    "Migrate album versions in an Apple Music library",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
