package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiBlue  = "\033[34m"
)

// newRunner creates the encoder runner for the CLI; tests replace it.
var newRunner = func(binary string) transcoder.Runner {
	return transcoder.NewExecRunner(binary)
}

// loadConfig reads the environment configuration without the server banner.
func loadConfig() (*startup.Config, error) {
	cfg, err := startup.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// openDatabase opens the database shared with the server, creating its
// directory if needed.
func openDatabase(ctx context.Context, cfg *startup.Config) (*database.Database, error) {
	if err := startup.EnsureDatabaseDir(cfg); err != nil {
		return nil, err
	}
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath, err)
	}
	return db, nil
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func categoryColor(category string) string {
	switch category {
	case transcoder.CategorySuccess:
		return ansiGreen
	case transcoder.CategoryDanger:
		return ansiRed
	case transcoder.CategoryPrimary:
		return ansiBlue
	default:
		return ""
	}
}
