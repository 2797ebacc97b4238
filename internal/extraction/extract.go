// Package extraction turns uploaded resume documents into plain text.
package extraction

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// UnsupportedFormatError is returned for file types that cannot be extracted.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: only PDF and DOCX are supported", filepath.Ext(e.Filename))
}

// Error wraps a failure to read a document of a supported format.
type Error struct {
	Format Format
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to extract %s text: %v", e.Format, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// DetectFormat maps a filename to its format by extension, case-insensitively.
func DetectFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".txt", ".md":
		return FormatText, true
	default:
		return "", false
	}
}

// ExtractDocument extracts text from an uploaded PDF or DOCX document.
// Plain text files are rejected because uploads are expected to be documents.
func ExtractDocument(data []byte, filename string) (string, error) {
	format, ok := DetectFormat(filename)
	if !ok || format == FormatText {
		return "", &UnsupportedFormatError{Filename: filename}
	}
	return extract(data, format)
}

// ExtractText extracts text from any supported format including plain text.
func ExtractText(data []byte, filename string) (string, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return "", &UnsupportedFormatError{Filename: filename}
	}
	return extract(data, format)
}

func extract(data []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	default:
		text = string(data)
	}
	if err != nil {
		return "", &Error{Format: format, Cause: err}
	}
	return CleanText(text), nil
}

func pdfText(data []byte) (text string, err error) {
	// the parser panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer func() { _ = doc.Close() }()

	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}
