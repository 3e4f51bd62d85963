package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NamingStyle selects how the generated title is cased before it becomes a
// filename.
type NamingStyle string

const (
	StyleSnake  NamingStyle = "snake_case"
	StyleKebab  NamingStyle = "kebab-case"
	StyleCamel  NamingStyle = "camelCase"
	StylePascal NamingStyle = "PascalCase"
	StyleSpace  NamingStyle = "space"
)

// Templates maps template names to their filename patterns. The placeholder
// fields are filled from the model response, with local metadata extraction as
// fallback.
var Templates = map[string]string{
	"research": "{authors}-{year}-{title}",
	"document": "{date}-{title}",
	"report":   "{category}-{date}-{title}",
	"custom":   "{title}",
}

// Config holds every setting for one run. It is loaded once at startup and
// never mutated afterwards.
type Config struct {
	// File selection
	InputDir         string
	AllowedFileTypes []string
	ProcessHidden    bool

	// Backup
	BackupEnabled bool
	BackupDir     string

	// Extraction / OCR
	TesseractCmd  string
	OCRLanguages  []string
	MinTextLength int

	// Title generation
	GeminiAPIKey    string
	GeminiModel     string
	ProjectID       string
	VertexAIRegion  string
	MaxRetries      int
	RetryDelay      time.Duration
	PromptMaxChars  int

	// Naming
	Style              NamingStyle
	DefaultTemplate    string
	TitleMaxLength     int
	TitleMinLength     int
	RemoveSpecialChars bool
	PreserveChars      string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads the configuration from the environment. Callers are expected to
// have loaded a .env file first if one is present.
func Load() Config {
	return Config{
		InputDir:         envStr("DEFAULT_INPUT_DIR", "./examples/test_pdfs"),
		AllowedFileTypes: envList("ALLOWED_FILE_TYPES", []string{".pdf"}),
		ProcessHidden:    envBool("PROCESS_HIDDEN_FILES", false),

		BackupEnabled: envBool("BACKUP_ENABLED", true),
		BackupDir:     envStr("BACKUP_DIR", ".backup"),

		TesseractCmd:  envStr("TESSERACT_CMD", ""),
		OCRLanguages:  envList("OCR_LANGUAGES", []string{"eng"}),
		MinTextLength: envInt("MIN_TEXT_LENGTH", 50),

		GeminiAPIKey:   envStr("GEMINI_API_KEY", ""),
		GeminiModel:    envStr("GEMINI_MODEL", "gemini-1.5-pro"),
		ProjectID:      envStr("GOOGLE_CLOUD_PROJECT_ID", ""),
		VertexAIRegion: envStr("VERTEX_AI_REGION", "us-central1"),
		MaxRetries:     envInt("MAX_RETRIES", 3),
		RetryDelay:     envDur("RETRY_DELAY", time.Second),
		PromptMaxChars: envInt("PROMPT_MAX_CHARS", 4000),

		Style:              ParseStyle(envStr("NAMING_STYLE", string(StyleKebab))),
		DefaultTemplate:    envStr("TITLE_TEMPLATE", envStr("DEFAULT_TEMPLATE", "research")),
		TitleMaxLength:     envInt("TITLE_MAX_LENGTH", 200),
		TitleMinLength:     envInt("TITLE_MIN_LENGTH", 10),
		RemoveSpecialChars: envBool("REMOVE_SPECIAL_CHARS", true),
		PreserveChars:      envStr("PRESERVE_CHARS", "-_."),

		LogLevel: envStr("LOG_LEVEL", "INFO"),
		LogFile:  envStr("LOG_FILE", "pdf_rename.log"),
	}
}

// Validate checks that a titler backend is reachable from this configuration.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" && c.ProjectID == "" {
		return fmt.Errorf("either GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT_ID must be set")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if c.TitleMinLength > c.TitleMaxLength {
		return fmt.Errorf("TITLE_MIN_LENGTH %d exceeds TITLE_MAX_LENGTH %d", c.TitleMinLength, c.TitleMaxLength)
	}
	return nil
}

// Template resolves a template name to its pattern, falling back to the
// configured default and then to the bare-title pattern.
func (c Config) Template(name string) string {
	if name == "" {
		name = c.DefaultTemplate
	}
	if t, ok := Templates[name]; ok {
		return t
	}
	return Templates["custom"]
}

// UseVertex reports whether the Vertex AI backend should serve title
// generation instead of the keyed generativelanguage endpoint.
func (c Config) UseVertex() bool {
	return c.ProjectID != "" && c.GeminiAPIKey == ""
}

// ParseStyle maps a style name to its NamingStyle, defaulting to kebab-case
// for unknown values.
func ParseStyle(v string) NamingStyle {
	switch NamingStyle(v) {
	case StyleSnake, StyleKebab, StyleCamel, StylePascal, StyleSpace:
		return NamingStyle(v)
	}
	return StyleKebab
}

func envStr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "true", "1", "yes", "y", "t":
		return true
	}
	return false
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	// Accept bare integers as seconds, matching the historical RETRY_DELAY=1 form.
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
