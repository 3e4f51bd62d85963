package ocr

import (
	"context"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
)

// Engine is the OCR provider contract: one encoded page image in, recognized
// text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// FromConfig selects the OCR engine for this run. When TESSERACT_CMD points at
// a tesseract binary the command-line engine is used; otherwise recognition
// goes through the linked libtesseract client.
func FromConfig(cfg config.Config) Engine {
	if cfg.TesseractCmd != "" {
		return NewCommandLine(cfg.TesseractCmd, cfg.OCRLanguages)
	}
	return NewGosseract(cfg.OCRLanguages)
}
