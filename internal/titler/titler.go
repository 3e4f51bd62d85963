package titler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/models"
	"github.com/Lllllllleong/pdf-smart-rename/internal/textproc"
)

// Generator is the backend contract for one title request.
type Generator interface {
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

// Titler turns extracted document text into a filename-ready title: prompt
// construction, the retried model call, response parsing, and template
// substitution.
type Titler struct {
	gen Generator
	cfg config.Config
}

// New wires a Titler around the given backend.
func New(gen Generator, cfg config.Config) *Titler {
	return &Titler{gen: gen, cfg: cfg}
}

// FromConfig picks the backend for this run: Vertex AI when only a GCP
// project is configured, the keyed REST endpoint otherwise.
func FromConfig(ctx context.Context, cfg config.Config) (*Titler, error) {
	if cfg.UseVertex() {
		v, err := NewVertex(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		return New(v, cfg), nil
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	return New(NewGeminiAPI(cfg.GeminiAPIKey, cfg.GeminiModel), cfg), nil
}

// Close releases the backend client if it holds one.
func (t *Titler) Close() error {
	if c, ok := t.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Sanity check for LLM refusal. If the model refuses to answer, the file must
// fail rather than receive a nonsense name.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// Generate produces the templated title for one document. The model call is
// retried on transient failures up to MAX_RETRIES attempts with a fixed delay
// between them; a permanent failure or exhaustion propagates an error and the
// file is skipped.
func (t *Titler) Generate(ctx context.Context, text, templateName string) (string, error) {
	template := t.cfg.Template(templateName)
	prompt := BuildPrompt(text, template, t.cfg.PromptMaxChars)

	raw, err := t.generateWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	lowerRaw := strings.ToLower(raw)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowerRaw, phrase) {
			return "", fmt.Errorf("model response indicates refusal: %q", textproc.TruncateWords(raw, 120))
		}
	}

	result := ParseResponse(raw)
	title := t.render(result, text, template)
	title = textproc.TruncateWords(title, t.cfg.TitleMaxLength)
	if title == "" {
		return "", fmt.Errorf("model response produced an empty title")
	}
	return title, nil
}

func (t *Titler) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		raw, err := t.gen.GenerateTitle(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !isTransient(err) {
			return "", fmt.Errorf("title generation failed permanently: %w", err)
		}
		if attempt == t.cfg.MaxRetries {
			break
		}

		slog.Warn(
			"Title generation failed, will retry.",
			"attempt", attempt,
			"maxRetries", t.cfg.MaxRetries,
			"delay", t.cfg.RetryDelay.String(),
			"error", err,
		)

		select {
		case <-time.After(t.cfg.RetryDelay):
		case <-ctx.Done():
			slog.Error("Context cancelled during retry delay. Aborting retries.", "error", ctx.Err())
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("title generation failed after %d attempts: %w", t.cfg.MaxRetries, lastErr)
}

// ParseResponse interprets the model output: a JSON object with authors, year,
// and title when the model complied, the raw text otherwise. Malformed JSON is
// run through repair before giving up on the structured form.
func ParseResponse(raw string) models.TitleResult {
	clean := stripFences(raw)

	var result models.TitleResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(clean)
		if rerr != nil || json.Unmarshal([]byte(repaired), &result) != nil {
			return models.TitleResult{Raw: clean}
		}
	}
	if strings.TrimSpace(result.Title) == "" {
		return models.TitleResult{Raw: clean}
	}

	result.Title = strings.TrimSpace(result.Title)
	result.Authors = strings.TrimSpace(result.Authors)
	result.Year = strings.TrimSpace(result.Year)
	result.Raw = clean
	result.Structured = true
	return result
}

// render applies the title template. Structured responses fill the template
// fields directly, with locally extracted metadata covering gaps; an
// unstructured response is used verbatim as the title.
func (t *Titler) render(result models.TitleResult, text, template string) string {
	if !result.Structured {
		return result.Raw
	}

	local := textproc.ExtractMetadata(text)
	md := textproc.Metadata{
		Title:   result.Title,
		Authors: result.Authors,
		Year:    result.Year,
		Date:    result.Year,
	}
	if md.Authors == "" {
		md.Authors = local.Authors
	}
	if md.Year == "" {
		md.Year = local.Year
		md.Date = local.Date
	}
	return textproc.ApplyTemplate(template, md)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
