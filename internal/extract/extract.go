package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/models"
	"github.com/Lllllllleong/pdf-smart-rename/internal/ocr"
	"github.com/Lllllllleong/pdf-smart-rename/internal/textproc"
)

// Extractor pulls representative text from a document's first page. Direct
// text-layer extraction is attempted first; when the result falls below the
// configured threshold, the page's images are run through OCR instead.
type Extractor struct {
	minTextLength int
	engine        ocr.Engine

	// Injection points for tests; default to the pdf/pdfcpu implementations.
	directFn func(path string) (string, error)
	imagesFn func(path, dir string) ([]string, error)
}

// New builds an extractor using the given OCR engine for the fallback path.
func New(cfg config.Config, engine ocr.Engine) *Extractor {
	return &Extractor{
		minTextLength: cfg.MinTextLength,
		engine:        engine,
		directFn:      directFirstPageText,
		imagesFn:      firstPageImages,
	}
}

// FirstPageText returns best-effort text for page 1. Unreadable or corrupt
// PDFs yield empty text rather than an error; the caller treats that as "no
// title derivable" and skips the file.
func (e *Extractor) FirstPageText(ctx context.Context, path string) models.ExtractedText {
	logCtx := slog.With("file", filepath.Base(path))

	direct, err := e.directFn(path)
	if err != nil {
		logCtx.Debug("Direct text extraction failed.", "error", err)
	}
	direct = textproc.Clean(direct)

	if len(direct) >= e.minTextLength {
		return models.ExtractedText{Text: direct, Source: models.SourceDirect}
	}

	logCtx.Info("Text layer too short, attempting OCR.",
		"directLength", len(direct), "threshold", e.minTextLength)

	ocrText, err := e.ocrFirstPage(ctx, path)
	if err != nil {
		logCtx.Warn("OCR fallback failed.", "engine", e.engine.Name(), "error", err)
	}
	if ocrText != "" {
		return models.ExtractedText{Text: ocrText, Source: models.SourceOCR}
	}
	return models.ExtractedText{Text: direct, Source: models.SourceDirect}
}

// Describe gathers the read-only metadata recorded for each file.
func Describe(path string) (models.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	doc := models.Document{
		Path:     path,
		Name:     filepath.Base(path),
		ByteSize: info.Size(),
	}
	if n, err := api.PageCountFile(path); err == nil {
		doc.PageCount = n
	}
	return doc, nil
}

func (e *Extractor) ocrFirstPage(ctx context.Context, path string) (string, error) {
	tempDir, err := os.MkdirTemp("", "pdf-rename-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	images, err := e.imagesFn(path, tempDir)
	if err != nil {
		return "", fmt.Errorf("failed to extract page images: %w", err)
	}
	if len(images) == 0 {
		return "", nil
	}

	var builder strings.Builder
	for _, imgPath := range images {
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return "", fmt.Errorf("failed to read extracted image %s: %w", imgPath, err)
		}
		text, err := e.engine.Recognize(ctx, data)
		if err != nil {
			return "", err
		}
		if text != "" {
			if builder.Len() > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(text)
		}
	}
	return textproc.Clean(builder.String()), nil
}

// directFirstPageText reads the text layer of page 1. The pdf library panics
// on some malformed files, so the call is recover-guarded.
func directFirstPageText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not read PDF %s: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return "", errors.New("pdf has no pages")
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// firstPageImages extracts the embedded images of page 1 into dir and returns
// their paths. Scanned documents carry the whole page as one image, which is
// exactly what the OCR fallback needs.
func firstPageImages(path, dir string) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractImagesFile(path, dir, []string{"1"}, conf); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	return images, nil
}
