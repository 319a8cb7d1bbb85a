package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/yourusername/screening-api/internal/model"
)

const (
	// DefaultMaxPromptTokens is the prompt ceiling used when none is configured
	DefaultMaxPromptTokens = 7500

	// minAvailableTokens is the floor for the space left to the two documents
	minAvailableTokens = 500

	charsPerToken = 4

	// Shares of the available space before rebalancing, in percent
	jdSharePercent = 40
	cvSharePercent = 60

	// Shares of a truncated text kept from the start and the end, in percent
	headPercent = 60
	tailPercent = 40

	truncationMarker = "\n\n[... content truncated to fit the token limit ...]\n\n"
)

// EstimateTokens approximates the token count of text as one token per four characters.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// Allocation holds the documents as they will be placed in the prompt
type Allocation struct {
	JobDescription string
	CV             string
	Budget         model.PromptBudget
	JDTruncated    bool
	CVTruncated    bool
}

// Allocator fits a job description and a résumé into a fixed prompt budget
type Allocator struct {
	MaxPromptTokens int
}

// Allocate splits the space left after overheadTokens between the two documents and
// truncates whichever still does not fit. The résumé gets the larger share, and a
// document that fits under its share donates the rest to the other one.
func (a Allocator) Allocate(jobDescription, cv string, overheadTokens int) Allocation {
	maxTokens := a.MaxPromptTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxPromptTokens
	}

	available := maxTokens - overheadTokens
	if available < minAvailableTokens {
		available = minAvailableTokens
	}

	jdMax := available * jdSharePercent / 100
	cvMax := available * cvSharePercent / 100

	jdTokens := EstimateTokens(jobDescription)
	cvTokens := EstimateTokens(cv)

	if cvTokens <= cvMax {
		if jdTokens > jdMax {
			jdMax += cvMax - cvTokens
			cvMax = cvTokens
		}
	} else if jdTokens <= jdMax {
		cvMax += jdMax - jdTokens
		jdMax = jdTokens
	}

	out := Allocation{
		JobDescription: jobDescription,
		CV:             cv,
		Budget: model.PromptBudget{
			MaxPromptTokens:    maxTokens,
			BaseTemplateTokens: overheadTokens,
			JDTokenAllocation:  jdMax,
			CVTokenAllocation:  cvMax,
		},
	}

	if cvTokens > cvMax {
		out.CV = Truncate(cv, cvMax)
		out.CVTruncated = true
	}
	if jdTokens > jdMax {
		out.JobDescription = Truncate(jobDescription, jdMax)
		out.JDTruncated = true
	}

	return out
}

// Truncate shortens text to roughly maxTokens, keeping its beginning and its end.
// Both kept spans are cut at a sentence boundary (".", ";" or a newline) when one
// exists, and an omission marker joins them. Text that already fits is returned as is.
func Truncate(text string, maxTokens int) string {
	runes := []rune(text)
	maxChars := maxTokens * charsPerToken
	if maxChars < 0 {
		maxChars = 0
	}
	if len(runes) <= maxChars {
		return text
	}

	budget := maxChars - utf8.RuneCountInString(truncationMarker)
	if budget <= 0 {
		return string(runes[:maxChars])
	}

	headChars := budget * headPercent / 100
	tailChars := budget * tailPercent / 100

	head := runes[:headChars]
	if cut := lastBoundary(head); cut > 0 {
		head = head[:cut]
	}

	tail := runes[len(runes)-tailChars:]
	if idx := firstBoundary(tail); idx >= 0 {
		tail = tail[idx+1:]
	}

	return string(head) + truncationMarker + strings.TrimLeft(string(tail), " \t")
}

func isBoundary(r rune) bool {
	return r == '.' || r == ';' || r == '\n'
}

// lastBoundary returns the length of the longest prefix ending at a boundary, or -1.
func lastBoundary(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if isBoundary(r[i]) {
			return i + 1
		}
	}
	return -1
}

func firstBoundary(r []rune) int {
	for i, c := range r {
		if isBoundary(c) {
			return i
		}
	}
	return -1
}
