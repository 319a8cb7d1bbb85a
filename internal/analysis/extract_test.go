package analysis

import (
	"reflect"
	"testing"
)

const validReply = `{
  "recommendation": "The JD requires Go and PostgreSQL; the CV shows both. Compliance: 80%.",
  "objective_criteria": [
    {"name": "Go experience", "value": "The JD requires 3 years; the CV shows 5. Match: EXACT", "weight": 0.6},
    {"name": "PostgreSQL", "value": "The JD requires PostgreSQL; the CV shows MySQL. Match: PARTIAL", "weight": 0.4}
  ],
  "confidence_level": "high",
  "confidence_explanation": "1) Functional area: match. 2) Requirements met: 4 of 5.",
  "missing_information": ["Kubernetes"],
  "risks": [{"category": "technical", "level": "low", "description": "No Kubernetes exposure"}]
}`

func TestExtractValidReply(t *testing.T) {
	obj, ok := NewExtractor().Extract(validReply)
	if !ok {
		t.Fatalf("expected an object")
	}
	if obj["confidence_level"] != "high" {
		t.Fatalf("unexpected confidence_level: %v", obj["confidence_level"])
	}
	criteria, ok := obj["objective_criteria"].([]any)
	if !ok || len(criteria) != 2 {
		t.Fatalf("expected two criteria, got %v", obj["objective_criteria"])
	}
}

func TestExtractIgnoresCodeFences(t *testing.T) {
	e := NewExtractor()
	plain, ok := e.Extract(validReply)
	if !ok {
		t.Fatalf("plain reply not extracted")
	}

	for _, raw := range []string{
		"```json\n" + validReply + "\n```",
		"```\n" + validReply + "\n```",
		"```JSON " + validReply + "```",
	} {
		fenced, ok := e.Extract(raw)
		if !ok {
			t.Fatalf("fenced reply not extracted: %q", raw[:12])
		}
		if !reflect.DeepEqual(plain, fenced) {
			t.Fatalf("fenced reply differs from plain reply")
		}
	}
}

func TestExtractSkipsSurroundingProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n\n" + validReply + "\n\nLet me know if anything else is needed."

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected the embedded object")
	}
	if obj["confidence_level"] != "high" {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestExtractTruncatedReplyYieldsNothing(t *testing.T) {
	cases := []string{
		`{"recommendation": "The candidate meets three of the`,
		`{"confidence_level": "high", "objective_criteria": [{"name": "Go", "value": "The JD requires Go; the CV shows Go"}, {"name": "SQL", "value": "The JD requi`,
		`{"objective_criteria": [{"name": "Go"`,
		`{"recommendation": "The JD requires Go; the CV shows Go.", "confidence_level": "high", "objective_criteria": [{"name": "Go", "value": "The JD requi`,
		"```json\n{\"recommendation\": \"Meets the core requirements\", \"confidence_level\": \"medium\", \"risks\": [",
	}

	for _, raw := range cases {
		if obj, ok := NewExtractor().Extract(raw); ok {
			t.Fatalf("expected no structured data for %q, got %v", raw, obj)
		}
	}
}

func TestExtractNothingStructured(t *testing.T) {
	for _, raw := range []string{"", "   ", "I am unable to analyse this CV.", "{}", "[1, 2, 3]"} {
		if _, ok := NewExtractor().Extract(raw); ok {
			t.Fatalf("expected no structured data for %q", raw)
		}
	}
}

func TestExtractRepairsCommonMistakes(t *testing.T) {
	raw := `{'recommendation': 'Meets the core requirements', "confidence_level": "low", // model note
  "missing_information": ["Kubernetes", "Terraform",], /* trailing */
}`

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected repaired object")
	}
	if obj["recommendation"] != "Meets the core requirements" {
		t.Fatalf("unexpected recommendation: %v", obj["recommendation"])
	}
	missing, _ := obj["missing_information"].([]any)
	if len(missing) != 2 {
		t.Fatalf("expected two missing items, got %v", obj["missing_information"])
	}
}

func TestExtractStripsControlCharacters(t *testing.T) {
	raw := "{\"recommendation\": \"ok\x00\", \"confidence_level\": \"medium\"}"

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected object after removing control characters")
	}
	if obj["recommendation"] != "ok" {
		t.Fatalf("unexpected recommendation: %q", obj["recommendation"])
	}
}

func TestExtractBracesInsideStrings(t *testing.T) {
	raw := `Result: {"recommendation": "Uses {templates} and closes } early", "confidence_level": "medium"} trailing }`

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected object")
	}
	if obj["recommendation"] != "Uses {templates} and closes } early" {
		t.Fatalf("unexpected recommendation: %v", obj["recommendation"])
	}
}

func TestExtractFallsBackToFieldRegex(t *testing.T) {
	raw := `{"recommendation": "Meets 3 of 5 requirements" "confidence_level": "Low" "objective_criteria": [{"name": "Go"}]}`

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected partial record")
	}
	if obj["recommendation"] != "Meets 3 of 5 requirements" {
		t.Fatalf("unexpected recommendation: %v", obj["recommendation"])
	}
	if obj["confidence_level"] != "Low" {
		t.Fatalf("unexpected confidence_level: %v", obj["confidence_level"])
	}
	if obj[partialReplyKey] != true {
		t.Fatalf("expected the record to be marked partial: %v", obj)
	}
}

func TestExtractDecodedReplyIsNotPartial(t *testing.T) {
	obj, ok := NewExtractor().Extract(validReply)
	if !ok {
		t.Fatalf("expected object")
	}
	if _, partial := obj[partialReplyKey]; partial {
		t.Fatalf("decoded reply marked partial: %v", obj)
	}
}

func TestHasUnclosedObject(t *testing.T) {
	cases := map[string]bool{
		`no braces at all`:                       false,
		`{"a": 1}`:                               false,
		`{"a": "}"} then {"b": 2}`:               false,
		`{"a": 1} then {"b": [`:                  true,
		`{"a": "value with { inside"}`:           false,
		`{"recommendation": "cut off mid-string`: true,
	}
	for text, want := range cases {
		if got := hasUnclosedObject(text); got != want {
			t.Fatalf("hasUnclosedObject(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestExtractPicksLargestObjectWithAnalysisFields(t *testing.T) {
	raw := `Notes {"source": "model"} then the answer {"recommendation": "Summary", "risks": [{"category": "technical"}], "extra": {"a": {"b": 1}}} done`

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected object")
	}
	if obj["recommendation"] != "Summary" {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestNormalizeKeys(t *testing.T) {
	raw := `{"\n  recommendation": "A", "objective_criteria": [{" name ": "Go", "value\n": "x"}], "'confidence_level'": "low"}`

	obj, ok := NewExtractor().Extract(raw)
	if !ok {
		t.Fatalf("expected object")
	}
	if obj["recommendation"] != "A" {
		t.Fatalf("recommendation not reachable after normalisation: %v", obj)
	}
	if obj["confidence_level"] != "low" {
		t.Fatalf("confidence_level not reachable after normalisation: %v", obj)
	}
	criteria := obj["objective_criteria"].([]any)
	first := criteria[0].(map[string]any)
	if first["name"] != "Go" || first["value"] != "x" {
		t.Fatalf("nested keys not normalised: %v", first)
	}
}

func TestNormalizeKeysCollision(t *testing.T) {
	got := NormalizeKeys(map[string]any{
		"recommendation":   "clean",
		" recommendation":  "padded",
		"\nrecommendation": "newline",
	})

	want := map[string]any{
		"recommendation":   "clean",
		"recommendation_2": "newline",
		"recommendation_3": "padded",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
