package model

import "strings"

// ── Analysis request ───────────────────────────────────

// CandidateDocument is the extracted plain text of one résumé
type CandidateDocument struct {
	Filename    string `json:"filename" binding:"required"`
	Content     string `json:"content" binding:"required,min=30"`
	CandidateID string `json:"candidateId,omitempty"`
}

// AnalysisRequest asks for one analysis per candidate against a single job description
type AnalysisRequest struct {
	JobDescription string              `json:"jobDescription"`
	Candidates     []CandidateDocument `json:"candidates" binding:"required,min=1,dive"`
	ModelID        string              `json:"modelId,omitempty"`
	PositionID     string              `json:"positionId,omitempty"`
}

// ── Analysis result ────────────────────────────────────

// ObjectiveCriterion is one comparison between a job requirement and the résumé
type ObjectiveCriterion struct {
	Name   string   `json:"name"`
	Value  string   `json:"value"`
	Weight *float64 `json:"weight,omitempty"`
}

// ConfidenceLevel expresses how well the available evidence supports the analysis
type ConfidenceLevel string

const (
	ConfidenceHigh         ConfidenceLevel = "high"
	ConfidenceMedium       ConfidenceLevel = "medium"
	ConfidenceLow          ConfidenceLevel = "low"
	ConfidenceInsufficient ConfidenceLevel = "insufficient"
)

// Rank orders levels by strength: high > medium > low > insufficient.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// ParseConfidence matches s case-insensitively against the four levels
func ParseConfidence(s string) (ConfidenceLevel, bool) {
	switch ConfidenceLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh, true
	case ConfidenceMedium:
		return ConfidenceMedium, true
	case ConfidenceLow:
		return ConfidenceLow, true
	case ConfidenceInsufficient:
		return ConfidenceInsufficient, true
	}
	return "", false
}

// Risk categories
const (
	RiskTechnical      = "technical"
	RiskExperience     = "experience"
	RiskEducation      = "education"
	RiskFunctionalArea = "functional_area"
	RiskCompliance     = "compliance"
)

// Risk levels
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// RiskEntry flags a gap that could affect performance in the role
type RiskEntry struct {
	Category    string `json:"category"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

// AnalysisResult is the per-candidate record returned to the reviewer
type AnalysisResult struct {
	CandidateID           string               `json:"candidateId,omitempty"`
	Filename              string               `json:"filename"`
	Recommendation        string               `json:"recommendation"`
	ObjectiveCriteria     []ObjectiveCriterion `json:"objective_criteria"`
	ConfidenceLevel       ConfidenceLevel      `json:"confidence_level"`
	ConfidenceExplanation string               `json:"confidence_explanation"`
	MissingInformation    []string             `json:"missing_information,omitempty"`
	EthicalCompliance     bool                 `json:"ethical_compliance"`
	Risks                 []RiskEntry          `json:"risks,omitempty"`
}

// PromptBudget is the token split computed for a single prompt
type PromptBudget struct {
	MaxPromptTokens    int `json:"maxPromptTokens"`
	BaseTemplateTokens int `json:"baseTemplateTokens"`
	JDTokenAllocation  int `json:"jdTokenAllocation"`
	CVTokenAllocation  int `json:"cvTokenAllocation"`
}
