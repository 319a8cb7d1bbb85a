package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// strategy recovers a JSON object from model output or reports false
type strategy struct {
	name string
	fn   func(text string) (map[string]any, bool)
}

// Extractor pulls the analysis object out of a free-form model reply. Strategies
// run in order and the first one that yields an object wins.
type Extractor struct {
	strategies []strategy
}

func NewExtractor() *Extractor {
	return &Extractor{
		strategies: []strategy{
			{name: "balanced-pattern", fn: fromBalancedPattern},
			{name: "first-brace-to-end", fn: fromFirstBraceToEnd},
			{name: "depth-scan", fn: fromDepthScan},
			{name: "repair", fn: fromRepaired},
			{name: "largest-balanced", fn: fromLargestBalanced},
			{name: "field-regex", fn: fromFieldRegex},
		},
	}
}

// Extract returns the normalised object found in raw, or false when nothing
// structured can be recovered. Only objects carrying at least one of the
// recommendation, objective_criteria or confidence_level fields are accepted.
// It never fails on malformed input.
func (e *Extractor) Extract(raw string) (map[string]any, bool) {
	text := stripFences(raw)
	if text == "" {
		return nil, false
	}

	if hasUnclosedObject(text) {
		log.Warn().Int("length", len(text)).Msg("Model reply looks truncated")
	}

	for i, s := range e.strategies {
		obj, ok := s.fn(text)
		// A fragment such as one criterion from a truncated reply is not the answer.
		if !ok || !looksLikeAnalysis(obj) {
			continue
		}
		if i > 0 {
			log.Debug().Str("strategy", s.name).Msg("Recovered model reply with fallback strategy")
		}
		return NormalizeKeys(obj), true
	}

	return nil, false
}

// ── Pre-processing ───────────────────────────────────

var fenceRe = regexp.MustCompile("```[A-Za-z0-9_-]*[ \t]*")

// stripFences removes markdown code-fence markers, with or without a language tag.
func stripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// decodeObject parses s and accepts it only when it is a JSON object
func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// ── Strategies ───────────────────────────────────────

// Matches an object with at most one level of nested objects.
var balancedRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

func fromBalancedPattern(text string) (map[string]any, bool) {
	m := balancedRe.FindString(text)
	if m == "" {
		return nil, false
	}
	return decodeObject(m)
}

func fromFirstBraceToEnd(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	return decodeObject(text[start:])
}

func fromDepthScan(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	end, ok := matchingBrace(text, start)
	if !ok {
		return nil, false
	}
	return decodeObject(text[start:end])
}

func fromRepaired(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	candidate := text[start:]
	if end, ok := matchingBrace(text, start); ok {
		candidate = text[start:end]
	}
	if obj, ok := decodeObject(repairJSON(candidate)); ok {
		return obj, true
	}
	// The object may only balance once comments and quotes are fixed.
	return decodeObject(repairJSON(text[start:]))
}

// fromLargestBalanced tries every balanced span in the text, largest first, and
// skips objects that carry none of the analysis fields.
func fromLargestBalanced(text string) (map[string]any, bool) {
	type span struct{ start, end int }

	var spans []span
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if end, ok := matchingBrace(text, i); ok {
			spans = append(spans, span{i, end})
		}
	}

	sort.SliceStable(spans, func(a, b int) bool {
		return spans[a].end-spans[a].start > spans[b].end-spans[b].start
	})

	for _, s := range spans {
		obj, ok := decodeObject(text[s.start:s.end])
		if ok && looksLikeAnalysis(obj) {
			return obj, true
		}
	}
	return nil, false
}

var (
	recommendationRe = regexp.MustCompile(`(?i)"\s*recommendation\s*"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	confidenceRe     = regexp.MustCompile(`(?i)"\s*confidence_level\s*"\s*:\s*"\s*([a-z]+)\s*"`)
)

// partialReplyKey marks an object rebuilt from individual fields rather than decoded
const partialReplyKey = "_partial_reply"

// fromFieldRegex is the last resort: recover the recommendation and the confidence
// level as a partial record. A reply whose object never closes was cut off and
// yields nothing.
func fromFieldRegex(text string) (map[string]any, bool) {
	if hasUnclosedObject(text) {
		return nil, false
	}

	m := recommendationRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	rec := m[1]
	if unq, err := strconv.Unquote(`"` + rec + `"`); err == nil {
		rec = unq
	}
	obj := map[string]any{"recommendation": rec}

	if c := confidenceRe.FindStringSubmatch(text); c != nil {
		obj["confidence_level"] = c[1]
	}
	obj[partialReplyKey] = true
	return obj, true
}

func looksLikeAnalysis(obj map[string]any) bool {
	for k := range obj {
		switch normalizeKey(k) {
		case "recommendation", "objective_criteria", "confidence_level":
			return true
		}
	}
	return false
}

// ── Scanning helpers ─────────────────────────────────

// matchingBrace returns the index just past the brace that closes the one at
// start. Braces inside JSON strings are ignored.
func matchingBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// hasUnclosedObject reports whether any top-level object in text is missing its
// closing brace.
func hasUnclosedObject(text string) bool {
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start < 0 {
			return false
		}
		end, ok := matchingBrace(text, i+start)
		if !ok {
			return true
		}
		i = end
	}
	return false
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	singleKeyRe     = regexp.MustCompile(`([{,]\s*)'([^'\n]*)'\s*:`)
	singleValueRe   = regexp.MustCompile(`([:\[,]\s*)'([^'\n]*)'(\s*[,}\]])`)
)

// repairJSON applies mechanical fixes for the mistakes models commonly make.
func repairJSON(s string) string {
	s = stripControlChars(s)
	s = stripComments(s)
	s = singleKeyRe.ReplaceAllString(s, `$1"$2":`)
	// Run twice so that adjacent single-quoted values sharing a comma are all caught.
	s = singleValueRe.ReplaceAllString(s, `$1"$2"$3`)
	s = singleValueRe.ReplaceAllString(s, `$1"$2"$3`)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// stripComments removes // line comments and /* */ block comments outside strings.
func stripComments(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			sb.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if ch == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					sb.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return sb.String()
				}
				i += end + 3
				continue
			}
		}

		if ch == '"' {
			inString = true
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// ── Key normalisation ────────────────────────────────

var keyNoise = strings.NewReplacer("\n", "", "\r", "", "\t", "")

func normalizeKey(k string) string {
	return strings.Trim(keyNoise.Replace(k), " \"'`")
}

// NormalizeKeys trims whitespace, newlines and quote characters from every key,
// recursively. Keys that collide after trimming get a numeric suffix; keys that
// were already clean keep their name.
func NormalizeKeys(obj map[string]any) map[string]any {
	out, _ := normalizeValue(obj).(map[string]any)
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ci, cj := normalizeKey(keys[i]) == keys[i], normalizeKey(keys[j]) == keys[j]
			if ci != cj {
				return ci
			}
			return keys[i] < keys[j]
		})

		out := make(map[string]any, len(t))
		for _, k := range keys {
			base := normalizeKey(k)
			nk := base
			for n := 2; ; n++ {
				if _, taken := out[nk]; !taken {
					break
				}
				nk = fmt.Sprintf("%s_%d", base, n)
			}
			out[nk] = normalizeValue(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
