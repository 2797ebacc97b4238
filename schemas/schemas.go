// Package schemas embeds the JSON Schemas of the public request and result documents.
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var files embed.FS

// Schema file names.
const (
	MatchResult     = "match_result.schema.json"
	AnalysisRequest = "analysis_request.schema.json"
)

// Names lists every embedded schema.
var Names = []string{MatchResult, AnalysisRequest}

// Load returns the content of an embedded schema.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("schema %s not found: %w", name, err)
	}
	return string(data), nil
}

// MustLoad is Load for schemas that are known to exist.
func MustLoad(name string) string {
	s, err := Load(name)
	if err != nil {
		panic(err)
	}
	return s
}
