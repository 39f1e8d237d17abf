package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParseError reports a document that could not be turned into text. It aborts
// the file's processing; the caller decides what happens to the rest of the
// batch.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extractor converts uploaded binary documents to plain text, dispatching on
// the filename extension.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(name, data)
	case ".pptx":
		return extractPPTX(name, data)
	case ".html", ".htm":
		return extractHTML(name, data)
	default:
		return "", &ParseError{Name: name, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(name))}
	}
}
