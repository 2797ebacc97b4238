package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-matcher/internal/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadText_PlainText(t *testing.T) {
	path := writeFile(t, "resume.txt", "# Jane Doe\n\n\n\nPython    developer\n- Docker")

	text, metadata, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "# Jane Doe\n\nPython developer\n- Docker", text)
	assert.Equal(t, path, metadata.Source)
	assert.Equal(t, "text", metadata.Format)
	assert.Equal(t, computeHash(text), metadata.Hash)
}

func TestLoadText_UnknownExtensionReadsAsText(t *testing.T) {
	path := writeFile(t, "job_posting", "Senior Go engineer")

	text, metadata, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer", text)
	assert.Equal(t, "text", metadata.Format)
}

func TestLoadText_SameContentSameHash(t *testing.T) {
	a := writeFile(t, "a.txt", "Test content")
	b := writeFile(t, "b.txt", "Test   content\n")
	c := writeFile(t, "c.txt", "Other content")

	_, ma, err := LoadText(a)
	require.NoError(t, err)
	_, mb, err := LoadText(b)
	require.NoError(t, err)
	_, mc, err := LoadText(c)
	require.NoError(t, err)

	assert.Equal(t, ma.Hash, mb.Hash)
	assert.NotEqual(t, ma.Hash, mc.Hash)
}

func TestLoadText_FileNotFound(t *testing.T) {
	text, metadata, err := LoadText("/nonexistent/file.txt")

	assert.Empty(t, text)
	assert.Nil(t, metadata)
	assert.ErrorContains(t, err, "file not found")
}

func TestLoadText_CorruptPDF(t *testing.T) {
	path := writeFile(t, "resume.pdf", "not really a pdf")

	_, _, err := LoadText(path)

	var extractErr *extraction.Error
	assert.ErrorAs(t, err, &extractErr)
}
