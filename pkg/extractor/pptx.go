package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX walks the slide parts of a PPTX container. Slides that carry at
// least one non-empty text shape emit a "[Slide N] " block; silent slides emit
// nothing. Blocks are joined with newlines.
func extractPPTX(name string, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Name: name, Err: err}
	}

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range reader.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var blocks []string
	for _, s := range slides {
		shapes, err := slideShapeTexts(s.file)
		if err != nil {
			return "", &ParseError{Name: name, Err: err}
		}
		hasText := false
		for _, t := range shapes {
			if strings.TrimSpace(t) != "" {
				hasText = true
				break
			}
		}
		if !hasText {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[Slide %d] %s", s.number, strings.Join(shapes, "\n")))
	}

	return strings.Join(blocks, "\n"), nil
}

// slideShapeTexts returns the text of every text body on a slide, paragraphs
// joined with newlines, in document order. The slide XML nests text runs as
// txBody > p > r > t.
func slideShapeTexts(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var shapes []string
	var paragraphs []string
	var paragraph strings.Builder
	inBody := false
	inRunText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				inBody = true
				paragraphs = nil
			case "p":
				if inBody {
					paragraph.Reset()
				}
			case "t":
				if inBody {
					inRunText = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "txBody":
				shapes = append(shapes, strings.Join(paragraphs, "\n"))
				inBody = false
			case "p":
				if inBody {
					paragraphs = append(paragraphs, paragraph.String())
				}
			case "t":
				inRunText = false
			}
		case xml.CharData:
			if inRunText {
				paragraph.Write(t)
			}
		}
	}

	return shapes, nil
}
