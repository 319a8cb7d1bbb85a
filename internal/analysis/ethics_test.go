package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/screening-api/internal/model"
)

const sampleJD = "Backend engineer: five years of Go, PostgreSQL and REST API design."

func sampleResult(recommendation string) model.AnalysisResult {
	return model.AnalysisResult{
		Filename:       "cv.pdf",
		Recommendation: recommendation,
		ObjectiveCriteria: []model.ObjectiveCriterion{
			{Name: "Go experience", Value: "The JD requires 5 years; the CV shows 6. Match: EXACT", Weight: weight(1)},
		},
		ConfidenceLevel:       model.ConfidenceHigh,
		ConfidenceExplanation: "Functional area: match. Requirements met: 4 of 4.",
	}
}

func TestValidateRequestRejectsPersonalAttributes(t *testing.T) {
	req := model.AnalysisRequest{
		JobDescription: sampleJD,
		Candidates: []model.CandidateDocument{
			{Filename: "a.pdf", Content: "Go developer since 2017, PostgreSQL and Kafka in production."},
			{Filename: "b.pdf", Content: "Go developer. Divorced, two relocations. Built payment systems."},
		},
	}

	got := ValidateRequest(req)
	if got.IsValid {
		t.Fatalf("expected request to be rejected")
	}
	if !errors.Is(got.Err(), ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", got.Err())
	}
	if !strings.Contains(got.Reason, "b.pdf") || !strings.Contains(got.Reason, "divorced") {
		t.Fatalf("reason should name the file and the term, got %q", got.Reason)
	}
}

func TestValidateRequestWholeWordsOnly(t *testing.T) {
	req := model.AnalysisRequest{
		JobDescription: sampleJD,
		Candidates: []model.CandidateDocument{
			{Filename: "a.pdf", Content: "Manager of the storage team. Fixed race conditions in the message broker. Agile coach."},
		},
	}

	if got := ValidateRequest(req); !got.IsValid {
		t.Fatalf("expected request to pass, got %q", got.Reason)
	}
}

func TestValidateRequestStructure(t *testing.T) {
	cases := []struct {
		name string
		req  model.AnalysisRequest
	}{
		{"empty job description", model.AnalysisRequest{
			JobDescription: "   ",
			Candidates:     []model.CandidateDocument{{Filename: "a.pdf", Content: "Go developer"}},
		}},
		{"no candidates", model.AnalysisRequest{JobDescription: sampleJD}},
		{"blank CV", model.AnalysisRequest{
			JobDescription: sampleJD,
			Candidates:     []model.CandidateDocument{{Filename: "a.pdf", Content: " \n "}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateRequest(tc.req)
			if got.IsValid {
				t.Fatalf("expected rejection")
			}
			if !errors.Is(got.Err(), ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", got.Err())
			}
		})
	}
}

func TestValidateRequestWarnsOnShortInput(t *testing.T) {
	got := ValidateRequest(model.AnalysisRequest{
		JobDescription: "Go developer",
		Candidates:     []model.CandidateDocument{{Filename: "a.pdf", Content: "Go, SQL"}},
	})

	if !got.IsValid {
		t.Fatalf("short input should only warn, got %q", got.Reason)
	}
	if len(got.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", got.Warnings)
	}
	if got.Err() != nil {
		t.Fatalf("valid result should have no error")
	}
}

func TestValidateAnalysisRejectsSubjectiveLanguage(t *testing.T) {
	for _, rec := range []string{
		"The candidate is an excellent match for the role.",
		"EXCELLENT alignment with the JD.",
	} {
		got := ValidateAnalysis(sampleResult(rec))
		if got.IsValid {
			t.Fatalf("expected rejection for %q", rec)
		}
		if !errors.Is(got.Err(), ErrEthicalViolation) {
			t.Fatalf("expected ErrEthicalViolation, got %v", got.Err())
		}
	}
}

func TestValidateAnalysisWholeWords(t *testing.T) {
	got := ValidateAnalysis(sampleResult("Worked at Goodyear on badge systems; 4 of 4 requirements met."))
	if !got.IsValid {
		t.Fatalf("expected valid result, got %q", got.Reason)
	}
}

func TestValidateAnalysisRejectsPersonalAttributes(t *testing.T) {
	r := sampleResult("Meets 4 of 4 requirements.")
	r.ConfidenceExplanation = "Requirements met, although the candidate's age was considered."
	if got := ValidateAnalysis(r); got.IsValid {
		t.Fatalf("expected rejection for a personal attribute in the explanation")
	}

	r = sampleResult("Meets 4 of 4 requirements.")
	r.ObjectiveCriteria = append(r.ObjectiveCriteria, model.ObjectiveCriterion{Name: "Nationality", Value: "Local"})
	if got := ValidateAnalysis(r); got.IsValid {
		t.Fatalf("expected rejection for a personal attribute in a criterion")
	}
}

func TestValidateAnalysisRejectsEmptyCriteria(t *testing.T) {
	r := sampleResult("Meets 4 of 4 requirements.")
	r.ObjectiveCriteria = nil
	if got := ValidateAnalysis(r); got.IsValid {
		t.Fatalf("expected rejection without criteria")
	}
}

func TestValidateAnalysisWarnsOnBias(t *testing.T) {
	r := sampleResult("Meets 4 of 4 requirements; possibly overqualified. Previous employer was a startup.")
	r.ObjectiveCriteria[0].Value = "Great Go experience"

	got := ValidateAnalysis(r)
	if !got.IsValid {
		t.Fatalf("bias vocabulary should only warn, got %q", got.Reason)
	}
	if len(got.Warnings) != 3 {
		t.Fatalf("expected bias, industry and criterion warnings, got %v", got.Warnings)
	}
}

func TestAdjustAnalysisRemovesForbiddenTerms(t *testing.T) {
	r := sampleResult("An Excellent match:   the JD requires Go and the CV shows it.")
	r.ConfidenceExplanation = "Age aside, requirements met: 4 of 4."
	r.ObjectiveCriteria = []model.ObjectiveCriterion{
		{Name: "Go experience", Value: "Outstanding depth. The JD requires Go; the CV shows Go.", Weight: weight(0.5)},
		{Name: "Gender", Value: "perfect"},
	}

	if ValidateAnalysis(r).IsValid {
		t.Fatalf("fixture should fail validation")
	}

	got := AdjustAnalysis(r)

	if strings.Contains(strings.ToLower(got.Recommendation), "excellent") {
		t.Fatalf("subjective term survived: %q", got.Recommendation)
	}
	if got.Recommendation != "An match: the JD requires Go and the CV shows it." {
		t.Fatalf("unexpected recommendation: %q", got.Recommendation)
	}
	if len(got.ObjectiveCriteria) != 1 {
		t.Fatalf("expected the emptied criterion to be dropped, got %v", got.ObjectiveCriteria)
	}
	if got.ObjectiveCriteria[0].Value != "depth. The JD requires Go; the CV shows Go." {
		t.Fatalf("unexpected criterion value: %q", got.ObjectiveCriteria[0].Value)
	}
	if !got.EthicalCompliance {
		t.Fatalf("adjusted record must be marked compliant")
	}
	if v := ValidateAnalysis(got); !v.IsValid {
		t.Fatalf("adjusted record should validate, got %q", v.Reason)
	}

	if r.Recommendation != "An Excellent match:   the JD requires Go and the CV shows it." {
		t.Fatalf("input record was modified")
	}
}

func TestAdjustAnalysisPlaceholders(t *testing.T) {
	r := sampleResult("Excellent. Perfect.")
	r.Recommendation = "excellent perfect"
	r.ObjectiveCriteria = []model.ObjectiveCriterion{{Name: "Overall", Value: "good"}}

	got := AdjustAnalysis(r)

	if got.Recommendation != neutralRecommendation {
		t.Fatalf("expected neutral recommendation, got %q", got.Recommendation)
	}
	if len(got.ObjectiveCriteria) != 1 || got.ObjectiveCriteria[0].Name != "Objective evaluation" {
		t.Fatalf("expected generic criterion, got %v", got.ObjectiveCriteria)
	}
	if v := ValidateAnalysis(got); !v.IsValid {
		t.Fatalf("adjusted record should validate, got %q", v.Reason)
	}
}

func TestPrinciples(t *testing.T) {
	p := Principles()
	if len(p) != 7 {
		t.Fatalf("expected 7 principles, got %d", len(p))
	}
	p[0].Name = "changed"
	if Principles()[0].Name == "changed" {
		t.Fatalf("Principles should return a copy")
	}
}
