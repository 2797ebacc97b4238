package fetch

import (
	"context"
	"fmt"
	"log/slog"
)

// Posting is the text of a job posting retrieved from a URL.
type Posting struct {
	URL      string
	Platform Platform
	Text     string
	// Rendered is set when the text came from browser rendering.
	Rendered bool
}

// PostingOptions configures JobPosting.
type PostingOptions struct {
	Fetch *Options
	// Render is used when the HTTP fetch yields too little text. Nil disables the fallback.
	Render RenderFunc
	Logger *slog.Logger
}

// JobPosting fetches a job posting and extracts its description text using platform-aware selectors.
func JobPosting(ctx context.Context, urlStr string, opts PostingOptions) (*Posting, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	platform := DetectPlatform(urlStr)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	result, err := Get(ctx, urlStr, opts.Fetch)
	if err != nil && opts.Render == nil {
		return nil, err
	}

	var text string
	if err == nil {
		text, err = ExtractMainText(result.HTML, content, noise...)
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
		}
		logger.Debug("fetched job posting", "url", urlStr, "platform", platform, "chars", len(text))
	} else {
		logger.Warn("http fetch failed, trying browser", "url", urlStr, "error", err)
	}

	posting := &Posting{URL: urlStr, Platform: platform, Text: text}
	if opts.Render == nil || !ShouldUseBrowser(text) {
		if text == "" {
			return nil, &Error{URL: urlStr, Message: fmt.Sprintf("no posting text found on %s page", platform)}
		}
		return posting, nil
	}

	html, renderErr := opts.Render(ctx, urlStr)
	if renderErr != nil {
		if text != "" {
			logger.Warn("browser rendering failed, keeping http text", "url", urlStr, "error", renderErr)
			return posting, nil
		}
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: renderErr}
	}
	rendered, err := ExtractMainText(html, content, noise...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract rendered text", Cause: err}
	}
	if len(rendered) > len(text) {
		posting.Text = rendered
		posting.Rendered = true
	}
	if posting.Text == "" {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("no posting text found on %s page", platform)}
	}
	return posting, nil
}
