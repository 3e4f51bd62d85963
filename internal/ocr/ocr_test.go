package ocr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/ocr"
)

func TestFromConfig_CommandLineWhenBinaryConfigured(t *testing.T) {
	engine := ocr.FromConfig(config.Config{
		TesseractCmd: "/usr/bin/tesseract",
		OCRLanguages: []string{"eng"},
	})
	assert.Equal(t, "tesseract-cli", engine.Name())
}

func TestFromConfig_LibraryByDefault(t *testing.T) {
	engine := ocr.FromConfig(config.Config{OCRLanguages: []string{"eng"}})
	assert.Equal(t, "gosseract", engine.Name())
}

func TestCommandLine_MissingBinary(t *testing.T) {
	engine := ocr.NewCommandLine("/nonexistent/tesseract", []string{"eng"})

	_, err := engine.Recognize(context.Background(), []byte("image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestCommandLine_CancelledContext(t *testing.T) {
	engine := ocr.NewCommandLine("/usr/bin/tesseract", []string{"eng"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, []byte("image"))
	require.Error(t, err)
}
