package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

const (
	maxPDFPages = 20
	maxPDFChars = 10000
)

var ErrNotPDF = errors.New("file is not a PDF")

// ExtractPDFText returns the plain text of a PDF held in memory, along with
// non-fatal warnings when pages or characters had to be dropped. Blank lines are
// removed and every line is trimmed.
func ExtractPDFText(data []byte) (text string, warnings []string, err error) {
	// Validate PDF magic bytes (header must start with %PDF)
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return "", nil, ErrNotPDF
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, warnings, err = "", nil, fmt.Errorf("reading PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("opening PDF: %w", err)
	}

	numPages := reader.NumPage()
	if numPages > maxPDFPages {
		warnings = append(warnings, fmt.Sprintf("The PDF has %d pages; only the first %d were read.", numPages, maxPDFPages))
		numPages = maxPDFPages
	}

	parts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Int("page", i).Err(err).Msg("Failed to extract text from PDF page")
			continue
		}
		parts = append(parts, pageText)
	}

	combined := strings.Join(parts, "\n")
	if utf8.RuneCountInString(combined) > maxPDFChars {
		warnings = append(warnings, fmt.Sprintf("The extracted text exceeded %d characters and was truncated.", maxPDFChars))
		combined = string([]rune(combined)[:maxPDFChars])
	}

	return normalizeLines(combined), warnings, nil
}

func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
