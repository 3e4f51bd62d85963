package models

import "time"

// Stage tracks how far a single file has progressed through the pipeline.
// Failed is terminal and never affects other files in the batch.
type Stage string

const (
	StagePending   Stage = "PENDING"
	StageExtracted Stage = "EXTRACTED"
	StageTitled    Stage = "TITLED"
	StageRenamed   Stage = "RENAMED"
	StageFailed    Stage = "FAILED"
)

// TextSource records which extraction path produced the text for a page.
type TextSource string

const (
	SourceDirect TextSource = "direct"
	SourceOCR    TextSource = "ocr"
)

// Document describes one PDF under processing. It is read-only and lives only
// for the duration of that file's run through the pipeline.
type Document struct {
	Path      string
	Name      string
	ByteSize  int64
	PageCount int
}

// ExtractedText is the best-effort text pulled from a document's first page.
type ExtractedText struct {
	Text   string
	Source TextSource
}

// Len reports the character count of the extracted text.
func (e ExtractedText) Len() int { return len(e.Text) }

// IsEmpty reports whether extraction produced nothing usable.
func (e ExtractedText) IsEmpty() bool { return e.Text == "" }

// TitleResult holds the model's answer for one document. When the response
// parsed as JSON, Structured is true and Authors/Year/Title are populated;
// otherwise Raw carries the plain text the model returned.
type TitleResult struct {
	Authors    string `json:"authors"`
	Year       string `json:"year"`
	Title      string `json:"title"`
	Raw        string `json:"-"`
	Structured bool   `json:"-"`
}

// FileResult is the per-file outcome reported back to the batch summary.
type FileResult struct {
	Document   Document
	Stage      Stage
	OldPath    string
	NewPath    string
	BackupPath string
	Source     TextSource
	StartedAt  time.Time
	Err        error
}

// Renamed reports whether the file made it all the way through the pipeline.
func (r FileResult) Renamed() bool { return r.Stage == StageRenamed }
