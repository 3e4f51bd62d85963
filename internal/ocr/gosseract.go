package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes text through the linked libtesseract library. A fresh
// client is created per call; the client holds cgo state that is not safe to
// reuse across images.
type Gosseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewGosseract constructs the default OCR engine.
func NewGosseract(languages []string) *Gosseract {
	return &Gosseract{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (g *Gosseract) Name() string { return "gosseract" }

// Recognize runs OCR over a single encoded image and returns the trimmed text.
func (g *Gosseract) Recognize(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := g.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(g.languages) > 0 {
		if err := c.SetLanguage(g.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
