package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Metadata describes where an ingested document came from.
type Metadata struct {
	Source    string `json:"source"`             // file path or URL
	Format    string `json:"format,omitempty"`   // pdf, docx or text
	Platform  string `json:"platform,omitempty"` // detected job board for URLs
	Rendered  bool   `json:"rendered,omitempty"` // text came from a headless browser
	Timestamp string `json:"timestamp"`          // RFC3339
	Hash      string `json:"hash"`               // xxhash64 of the cleaned text, hex
	Chars     int    `json:"chars"`
}

// NewMetadata creates metadata for cleaned content with the current timestamp.
func NewMetadata(content string, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     len([]rune(content)),
	}
}

func computeHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
