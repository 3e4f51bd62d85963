package titler

import (
	"fmt"

	"github.com/Lllllllleong/pdf-smart-rename/internal/textproc"
)

// --- Title Model Prompts ---
const TitleSystemPrompt = "You are a document naming assistant. Your task is to read the text of a document's first page and propose a short, descriptive filename title. You must output your response as a single valid JSON object."

const TitleUserPromptFormat = `Read the following document text and suggest a title for the file, in the document's original language.

Follow these rules precisely:
1.  Return a single JSON object with exactly three keys:
    - "authors": the author names, or an empty string if none are identifiable. For multiple authors, use the first author followed by "et al".
    - "year": the four-digit publication year, or an empty string if none is identifiable.
    - "title": a concise descriptive title for the document.
2.  For research papers, prefer the paper's actual title, authors, and year over any other text on the page.
3.  The final filename will be built from the template: %s
4.  Do not include any text before or after the JSON object.

Document text:

%s`

// BuildPrompt assembles the user prompt for one document, truncating the
// extracted text so the request stays within a sane size.
func BuildPrompt(text, template string, maxChars int) string {
	if maxChars > 0 && len(text) > maxChars {
		text = textproc.TruncateWords(text, maxChars)
	}
	return fmt.Sprintf(TitleUserPromptFormat, template, text)
}
