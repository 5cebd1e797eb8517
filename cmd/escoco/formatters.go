package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ES-COCO/es-coco/internal/transcript"
)

// Formatter defines interface for output formatting
type Formatter interface {
	Format(segments []transcript.Segment) (string, error)
}

// NewFormatter returns the formatter for a format name
func NewFormatter(format string, showPOS bool) (Formatter, error) {
	switch format {
	case "text", "":
		return &TextFormatter{ShowPOS: showPOS}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (use text or json)", format)
	}
}

// TextFormatter formats output as plain text
type TextFormatter struct {
	ShowPOS bool
}

// Format writes a header line per segment followed by its text
func (f *TextFormatter) Format(segments []transcript.Segment) (string, error) {
	if len(segments) == 0 {
		return "No segments found.\n", nil
	}

	var output strings.Builder
	for _, seg := range segments {
		output.WriteString(fmt.Sprintf("[%d] %s %s\n", seg.ID, seg.TimeRange(), seg.SourceName))
		output.WriteString("    " + seg.Text() + "\n")
		if f.ShowPOS {
			output.WriteString("    " + taggedText(seg.Words) + "\n")
		}
	}
	return output.String(), nil
}

// taggedText lays out words as form/lang/pos triples.
func taggedText(words []transcript.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%s/%s/%s", w.Display(), w.Language(), w.POS())
	}
	return strings.Join(parts, " ")
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

// Format formats segments as JSON
func (f *JSONFormatter) Format(segments []transcript.Segment) (string, error) {
	if segments == nil {
		segments = []transcript.Segment{}
	}
	jsonBytes, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}
