package ingestion

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/extraction"
	"github.com/jonathan/resume-matcher/internal/fetch"
)

// FromURL fetches a job posting and returns its cleaned text with metadata.
func FromURL(ctx context.Context, urlStr string, opts fetch.PostingOptions) (string, *Metadata, error) {
	posting, err := fetch.JobPosting(ctx, urlStr, opts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch job posting: %w", err)
	}

	text := extraction.CleanText(posting.Text)
	metadata := NewMetadata(text, urlStr)
	metadata.Format = string(extraction.FormatText)
	metadata.Platform = string(posting.Platform)
	metadata.Rendered = posting.Rendered
	return text, metadata, nil
}
