package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML pulls the readable text out of an HTML page, preferring the main
// content area when one exists.
func extractHTML(name string, data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", &ParseError{Name: name, Err: err}
	}

	doc.Find("script, style, noscript").Remove()

	// Try to find main content area
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = doc.Find("body").Text()
	}
	if content == "" {
		content = doc.Text()
	}

	// Collapse runs of whitespace left behind by markup
	return strings.Join(strings.Fields(content), " "), nil
}
