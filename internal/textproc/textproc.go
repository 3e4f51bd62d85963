package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
)

var (
	yearRegex   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	authorRegex = regexp.MustCompile(`(?i)\b(?:authors?|written by|by):?[ \t]+([A-Za-z][A-Za-z ,.]+)`)
)

// Clean normalizes extracted text: control characters removed, whitespace
// collapsed to single spaces.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Metadata holds the fields available to title templates.
type Metadata struct {
	Title    string
	Authors  string
	Year     string
	Date     string
	Category string
}

// ExtractMetadata derives fallback template fields from document text. The
// title always comes from the model, so only year and author patterns are
// searched here.
func ExtractMetadata(text string) Metadata {
	md := Metadata{}

	if m := yearRegex.FindString(text); m != "" {
		md.Year = m
		md.Date = m
	}
	if m := authorRegex.FindStringSubmatch(text); len(m) > 1 {
		md.Authors = strings.TrimSpace(m[1])
	}
	return md
}

// ApplyTemplate substitutes metadata fields into a filename pattern like
// "{authors}-{year}-{title}". Placeholders with no value are dropped together
// with a trailing separator so the result never carries empty segments.
func ApplyTemplate(template string, md Metadata) string {
	fields := map[string]string{
		"{title}":    md.Title,
		"{authors}":  md.Authors,
		"{year}":     md.Year,
		"{date}":     md.Date,
		"{category}": md.Category,
	}

	out := template
	for ph, v := range fields {
		if v != "" {
			out = strings.ReplaceAll(out, ph, v)
			continue
		}
		// Remove the empty placeholder plus one adjacent separator.
		out = strings.ReplaceAll(out, ph+"-", "")
		out = strings.ReplaceAll(out, "-"+ph, "")
		out = strings.ReplaceAll(out, ph, "")
	}

	out = strings.Trim(out, "- ")
	if out == "" {
		return "untitled"
	}
	return out
}

// FormatStyle recases a title according to the configured naming style. The
// input is first split on whitespace, hyphens, underscores, and dots.
func FormatStyle(text string, style config.NamingStyle) string {
	replacer := strings.NewReplacer("-", " ", "_", " ", ".", " ")
	parts := strings.Fields(replacer.Replace(text))
	if len(parts) == 0 {
		return ""
	}

	switch style {
	case config.StyleSnake:
		return strings.ToLower(strings.Join(parts, "_"))
	case config.StyleKebab:
		return strings.ToLower(strings.Join(parts, "-"))
	case config.StyleCamel:
		out := strings.ToLower(parts[0])
		for _, p := range parts[1:] {
			out += capitalize(p)
		}
		return out
	case config.StylePascal:
		var out string
		for _, p := range parts {
			out += capitalize(p)
		}
		return out
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// TruncateWords shortens text to at most max characters without cutting
// through a word when a boundary is available.
func TruncateWords(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
