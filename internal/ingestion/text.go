// Package ingestion loads resumes and job descriptions from files and URLs into cleaned text.
package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jonathan/resume-matcher/internal/extraction"
)

// LoadText reads a resume or job description from disk. PDF and DOCX files go through
// document extraction; anything else is read as plain text.
func LoadText(path string) (string, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	format, ok := extraction.DetectFormat(path)
	if !ok {
		format = extraction.FormatText
	}

	var text string
	if format == extraction.FormatText {
		text = extraction.CleanText(string(data))
	} else {
		text, err = extraction.ExtractText(data, path)
		if err != nil {
			return "", nil, err
		}
	}

	metadata := NewMetadata(text, path)
	metadata.Format = string(format)
	return text, metadata, nil
}
