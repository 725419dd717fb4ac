package extract

import (
	"context"
	"time"

	"github.com/monicap360/move-around-tms/internal/common"
)

// TextExtractor turns a submitted image into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, src ImageSource) (Result, error)
}

// ImageSource carries exactly one of a remote URL, decoded image bytes or a
// local path. Path is only set by drop-folder ingestion and the CLI.
type ImageSource struct {
	URL  string
	Data []byte
	Path string
}

// Validate enforces the one-source rule.
func (s ImageSource) Validate() error {
	n := 0
	if s.URL != "" {
		n++
	}
	if len(s.Data) > 0 {
		n++
	}
	if s.Path != "" {
		n++
	}
	switch {
	case n == 0:
		return common.InvalidInput("an image source is required: provide file_url, imageUrl or imageBase64")
	case n > 1:
		return common.InvalidInput("provide only one image source")
	}
	return common.NewValidator().Field("file_url", s.URL, common.OptionalURL).Err()
}

// Ref is the value stored as the record's image reference.
func (s ImageSource) Ref() string {
	switch {
	case s.URL != "":
		return s.URL
	case s.Path != "":
		return "file://" + s.Path
	}
	return "inline:base64"
}

type Result struct {
	Text       string
	Confidence float64
	Provider   string
	Method     string
	Pages      int
	Duration   time.Duration
	Warnings   []string
}
