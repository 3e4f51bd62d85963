package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/extract"
	"github.com/Lllllllleong/pdf-smart-rename/internal/logging"
	"github.com/Lllllllleong/pdf-smart-rename/internal/ocr"
	"github.com/Lllllllleong/pdf-smart-rename/internal/processor"
	"github.com/Lllllllleong/pdf-smart-rename/internal/renamer"
	"github.com/Lllllllleong/pdf-smart-rename/internal/titler"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.Load()

	directory := flag.String("d", cfg.InputDir, "directory containing files to process")
	template := flag.String("t", cfg.DefaultTemplate, "naming template to use (research, document, report, custom)")
	style := flag.String("s", string(cfg.Style), "naming style (snake_case, kebab-case, camelCase, PascalCase, space)")
	fileTypes := flag.String("f", strings.Join(cfg.AllowedFileTypes, ","), "comma-separated file extensions to process")
	noBackup := flag.Bool("no-backup", false, "disable file backup before renaming")
	hidden := flag.Bool("hidden", false, "process hidden files")
	flag.Parse()

	cfg = applyFlags(cfg, *style, *fileTypes, *noBackup, *hidden)

	logger := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration.", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ti, err := titler.FromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize title generation.", "error", err)
		return 1
	}
	defer ti.Close()

	fp := processor.New(
		cfg,
		extract.New(cfg, ocr.FromConfig(cfg)),
		ti,
		renamer.New(cfg),
	)

	summary, err := fp.ProcessDirectory(ctx, *directory, *template)
	if err != nil {
		logger.Error("Batch did not complete.", "error", err)
		return 1
	}

	if len(summary.Renamed) == 0 {
		slog.Warn("No files were renamed.")
		return 1
	}
	fmt.Printf("Renamed %d of %d files:\n", len(summary.Renamed), summary.Scanned)
	for oldPath, newPath := range summary.Renamed {
		fmt.Printf("  %s -> %s\n", oldPath, newPath)
	}
	return 0
}

func applyFlags(cfg config.Config, style, fileTypes string, noBackup, hidden bool) config.Config {
	if style != "" {
		cfg.Style = config.ParseStyle(style)
	}
	if fileTypes != "" {
		var types []string
		for _, t := range strings.Split(fileTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			cfg.AllowedFileTypes = types
		}
	}
	if noBackup {
		cfg.BackupEnabled = false
	}
	if hidden {
		cfg.ProcessHidden = true
	}
	return cfg
}
