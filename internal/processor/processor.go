package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/extract"
	"github.com/Lllllllleong/pdf-smart-rename/internal/models"
)

// TextExtractor yields best-effort first-page text for a document.
type TextExtractor interface {
	FirstPageText(ctx context.Context, path string) models.ExtractedText
}

// TitleGenerator produces a templated title from extracted text.
type TitleGenerator interface {
	Generate(ctx context.Context, text, templateName string) (string, error)
}

// FileRenamer handles the filesystem half of the pipeline.
type FileRenamer interface {
	SafeFilename(title string) string
	Backup(path string) (string, error)
	Rename(oldPath, title string) (string, error)
}

// FileProcessor coordinates the extract → title → rename pipeline. Files are
// processed strictly one at a time; a failure is terminal for its file only
// and never halts the batch.
type FileProcessor struct {
	cfg       config.Config
	extractor TextExtractor
	titler    TitleGenerator
	renamer   FileRenamer
}

// Summary reports the outcome of one directory run.
type Summary struct {
	RunID    string
	Renamed  map[string]string
	Scanned  int
	Failed   int
	Duration time.Duration
}

// New wires the pipeline stages together.
func New(cfg config.Config, ex TextExtractor, ti TitleGenerator, re FileRenamer) *FileProcessor {
	return &FileProcessor{cfg: cfg, extractor: ex, titler: ti, renamer: re}
}

// ProcessDirectory runs the pipeline over every allowed file in dir and
// returns the old→new path mapping for successful renames.
func (p *FileProcessor) ProcessDirectory(ctx context.Context, dir, templateName string) (Summary, error) {
	start := time.Now()
	summary := Summary{
		RunID:   uuid.NewString(),
		Renamed: make(map[string]string),
	}
	logCtx := slog.With("runId", summary.RunID, "directory", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !p.isAllowed(e.Name()) {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		logCtx.Warn("No processable files found.")
		return summary, nil
	}
	logCtx.Info("Starting batch.", "fileCount", len(candidates))

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			logCtx.Error("Batch cancelled.", "error", err)
			return summary, err
		}

		summary.Scanned++
		result := p.ProcessFile(ctx, filepath.Join(dir, name), templateName)
		if result.Renamed() {
			summary.Renamed[result.OldPath] = result.NewPath
		} else {
			summary.Failed++
		}
	}

	summary.Duration = time.Since(start)
	logCtx.Info("Batch complete.",
		"renamed", len(summary.Renamed),
		"failed", summary.Failed,
		"duration", summary.Duration.String(),
	)
	return summary, nil
}

// ProcessFile walks a single file through the stage machine. The returned
// result always carries the final stage; Err is set whenever that stage is
// Failed.
func (p *FileProcessor) ProcessFile(ctx context.Context, path, templateName string) models.FileResult {
	result := models.FileResult{
		OldPath:   path,
		Stage:     models.StagePending,
		StartedAt: time.Now(),
	}
	logCtx := slog.With("file", filepath.Base(path))

	doc, err := extract.Describe(path)
	if err != nil {
		return p.fail(logCtx, result, "file is not readable", err)
	}
	result.Document = doc
	logCtx.Info("Processing file.", "bytes", doc.ByteSize, "pages", doc.PageCount)

	extracted := p.extractor.FirstPageText(ctx, path)
	if extracted.IsEmpty() {
		return p.fail(logCtx, result, "no text could be extracted", nil)
	}
	result.Stage = models.StageExtracted
	result.Source = extracted.Source
	logCtx.Debug("Text extracted.", "source", extracted.Source, "length", extracted.Len())

	title, err := p.titler.Generate(ctx, extracted.Text, templateName)
	if err != nil {
		return p.fail(logCtx, result, "title generation failed", err)
	}
	result.Stage = models.StageTitled
	logCtx.Debug("Title generated.", "title", title)

	safeName := p.renamer.SafeFilename(title)
	if safeName == "" {
		return p.fail(logCtx, result, "title produced an empty filename", nil)
	}

	if p.cfg.BackupEnabled {
		backupPath, err := p.renamer.Backup(path)
		if err != nil {
			return p.fail(logCtx, result, "backup failed", err)
		}
		result.BackupPath = backupPath
		logCtx.Info("Backup created.", "backupPath", backupPath)
	}

	newPath, err := p.renamer.Rename(path, safeName)
	if err != nil {
		return p.fail(logCtx, result, "rename failed", err)
	}
	result.Stage = models.StageRenamed
	result.NewPath = newPath
	logCtx.Info("File renamed.", "newPath", newPath, "elapsed", time.Since(result.StartedAt).String())
	return result
}

func (p *FileProcessor) fail(logCtx *slog.Logger, result models.FileResult, message string, err error) models.FileResult {
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", message, err)
	} else {
		result.Err = fmt.Errorf("%s", message)
	}
	logCtx.Error("Skipping file.", "stage", result.Stage, "error", result.Err)
	result.Stage = models.StageFailed
	return result
}

func (p *FileProcessor) isAllowed(name string) bool {
	if strings.HasPrefix(name, ".") && !p.cfg.ProcessHidden {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range p.cfg.AllowedFileTypes {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
