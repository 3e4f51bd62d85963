package titler_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/titler"
)

// fakeGenerator scripts a sequence of backend outcomes and records how many
// attempts the retry wrapper makes.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeGenerator) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], f.errs[idx]
}

func titlerConfig() config.Config {
	return config.Config{
		MaxRetries:      3,
		RetryDelay:      time.Millisecond,
		PromptMaxChars:  4000,
		DefaultTemplate: "research",
		TitleMaxLength:  200,
	}
}

func transientErr() error {
	return &titler.APIError{StatusCode: 429, Body: "rate limited"}
}

func permanentErr() error {
	return &titler.APIError{StatusCode: 400, Body: "bad request"}
}

func TestGenerate_StructuredResponse(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{`{"authors": "Roe et al", "year": "2023", "title": "Annual Report"}`},
		errs:      []error{nil},
	}

	ti := titler.New(gen, titlerConfig())
	title, err := ti.Generate(context.Background(), "Annual Report 2023", "research")
	require.NoError(t, err)

	assert.Equal(t, "Roe et al-2023-Annual Report", title)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_RawResponseUsedVerbatim(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{"Annual-Report-2023"},
		errs:      []error{nil},
	}

	ti := titler.New(gen, titlerConfig())
	title, err := ti.Generate(context.Background(), "Annual Report 2023", "research")
	require.NoError(t, err)
	assert.Equal(t, "Annual-Report-2023", title)
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{"", "", `{"title": "Recovered"}`},
		errs:      []error{transientErr(), transientErr(), nil},
	}

	ti := titler.New(gen, titlerConfig())
	title, err := ti.Generate(context.Background(), "some text", "custom")
	require.NoError(t, err)

	assert.Equal(t, "Recovered", title)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerate_RetriesVertexQuotaErrors(t *testing.T) {
	// The vertex backend wraps gRPC status errors; those must be retried the
	// same way as REST rate limits.
	quota := fmt.Errorf("failed to generate content from gemini: %w",
		status.Error(codes.ResourceExhausted, "Quota exceeded for quota metric"))

	gen := &fakeGenerator{
		responses: []string{"", "", `{"title": "Recovered"}`},
		errs:      []error{quota, quota, nil},
	}

	ti := titler.New(gen, titlerConfig())
	title, err := ti.Generate(context.Background(), "some text", "custom")
	require.NoError(t, err)

	assert.Equal(t, "Recovered", title)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{""},
		errs:      []error{transientErr()},
	}

	ti := titler.New(gen, titlerConfig())
	_, err := ti.Generate(context.Background(), "some text", "custom")
	require.Error(t, err)

	// Attempts never exceed MAX_RETRIES.
	assert.Equal(t, 3, gen.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestGenerate_PermanentFailureNotRetried(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{""},
		errs:      []error{permanentErr()},
	}

	ti := titler.New(gen, titlerConfig())
	_, err := ti.Generate(context.Background(), "some text", "custom")
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_ContextCancelledDuringDelay(t *testing.T) {
	cfg := titlerConfig()
	cfg.RetryDelay = time.Minute

	gen := &fakeGenerator{
		responses: []string{""},
		errs:      []error{transientErr()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	ti := titler.New(gen, cfg)
	_, err := ti.Generate(ctx, "some text", "custom")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_RefusalFailsFile(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{"I cannot provide a title for this document."},
		errs:      []error{nil},
	}

	ti := titler.New(gen, titlerConfig())
	_, err := ti.Generate(context.Background(), "some text", "custom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusal")
}

func TestGenerate_TruncatesToMaxLength(t *testing.T) {
	cfg := titlerConfig()
	cfg.TitleMaxLength = 30

	long := "word " + strings.Repeat("filler ", 30)
	gen := &fakeGenerator{
		responses: []string{fmt.Sprintf(`{"title": %q}`, long)},
		errs:      []error{nil},
	}

	ti := titler.New(gen, cfg)
	title, err := ti.Generate(context.Background(), "text", "custom")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(title), 30)
}

func TestGenerate_LocalMetadataFillsGaps(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{`{"title": "A Study"}`},
		errs:      []error{nil},
	}

	ti := titler.New(gen, titlerConfig())
	title, err := ti.Generate(context.Background(), "A Study\nAuthors: Jane Roe\nPublished 2019", "research")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe-2019-A Study", title)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		structured bool
		title      string
	}{
		{
			name:       "Valid JSON",
			raw:        `{"authors": "Roe", "year": "2023", "title": "A Study"}`,
			structured: true,
			title:      "A Study",
		},
		{
			name:       "Fenced JSON",
			raw:        "```json\n{\"title\": \"A Study\"}\n```",
			structured: true,
			title:      "A Study",
		},
		{
			name:       "Repairable JSON",
			raw:        `{"title": "A Study",}`,
			structured: true,
			title:      "A Study",
		},
		{
			name:       "Plain text falls back to raw",
			raw:        "Just A Title",
			structured: false,
		},
		{
			name:       "JSON without a title falls back to raw",
			raw:        `{"authors": "Roe"}`,
			structured: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := titler.ParseResponse(tt.raw)
			assert.Equal(t, tt.structured, result.Structured)
			if tt.structured {
				assert.Equal(t, tt.title, result.Title)
			} else {
				assert.NotEmpty(t, result.Raw)
			}
		})
	}
}

func TestBuildPrompt_TruncatesText(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	prompt := titler.BuildPrompt(text, "{title}", 100)

	assert.Less(t, len(prompt), len(text))
	assert.Contains(t, prompt, "{title}")
}

func TestGenerate_EmptyResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []string{""}, errs: []error{nil}}

	ti := titler.New(gen, titlerConfig())
	_, err := ti.Generate(context.Background(), "text", "custom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
