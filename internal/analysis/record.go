package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/llm"
	"github.com/yourusername/screening-api/internal/model"
)

const (
	defaultRecommendation = "Analysis unavailable"
	defaultRiskText       = "Unspecified risk"
	incompleteReplyItem   = "complete AI response"
)

// Build maps an extracted reply onto the canonical record. It always returns a
// usable record: a nil object yields the unparsable-reply record, and every field
// falls back to a default when the model left it out or sent the wrong type.
func Build(parsed map[string]any, candidateID, filename string) model.AnalysisResult {
	if parsed == nil {
		return UnparsableRecord(candidateID, filename)
	}

	if !looksLikeAnalysis(parsed) {
		log.Warn().
			Str("candidate", candidateRef(candidateID, filename)).
			Strs("keys", mapKeys(parsed)).
			Msg("Model reply has none of the expected fields")
	}

	out := model.AnalysisResult{
		CandidateID:           candidateID,
		Filename:              filename,
		Recommendation:        coerceString(parsed["recommendation"]),
		ObjectiveCriteria:     coerceCriteria(parsed["objective_criteria"]),
		ConfidenceLevel:       coerceConfidence(parsed["confidence_level"]),
		ConfidenceExplanation: coerceString(parsed["confidence_explanation"]),
		MissingInformation:    coerceStrings(parsed["missing_information"]),
		EthicalCompliance:     true,
		Risks:                 coerceRisks(parsed["risks"]),
	}
	if strings.TrimSpace(out.Recommendation) == "" {
		out.Recommendation = defaultRecommendation
	}

	// Only scattered fields survived; the rest of the analysis is unknown.
	if partial, _ := parsed[partialReplyKey].(bool); partial {
		out.MissingInformation = append(out.MissingInformation, incompleteReplyItem)
		if out.ConfidenceLevel == model.ConfidenceHigh || out.ConfidenceLevel == model.ConfidenceMedium {
			out.ConfidenceLevel = model.ConfidenceLow
		}
		out.Risks = append(out.Risks, model.RiskEntry{
			Category:    model.RiskCompliance,
			Level:       model.RiskHigh,
			Description: "The model reply was incomplete; only part of the analysis could be recovered",
		})
	}

	if repaired := RepairConfidence(out.ConfidenceLevel, len(out.MissingInformation)); repaired != out.ConfidenceLevel {
		log.Warn().
			Str("candidate", candidateRef(candidateID, filename)).
			Str("from", string(out.ConfidenceLevel)).
			Str("to", string(repaired)).
			Int("missing", len(out.MissingInformation)).
			Msg("Confidence level inconsistent with missing requirements, adjusting")
		out.ConfidenceLevel = repaired
	}

	if len(out.ObjectiveCriteria) == 0 {
		out.ObjectiveCriteria = []model.ObjectiveCriterion{{
			Name:   "General analysis",
			Value:  "Manual review required: the model did not list any criteria",
			Weight: weight(1),
		}}
	}

	out.Risks = synthesizeRisks(out.Risks, out.MissingInformation, out.ConfidenceExplanation)
	return out
}

// RepairConfidence lowers a level that contradicts the number of missing
// requirements. The rules run in order and a later rule overrides an earlier one.
func RepairConfidence(level model.ConfidenceLevel, missing int) model.ConfidenceLevel {
	if level == model.ConfidenceHigh && missing > 2 {
		level = model.ConfidenceMedium
	}
	if (level == model.ConfidenceHigh || level == model.ConfidenceMedium) && missing > 3 {
		level = model.ConfidenceLow
	}
	if missing > 5 {
		level = model.ConfidenceInsufficient
	}
	return level
}

func synthesizeRisks(risks []model.RiskEntry, missing []string, explanation string) []model.RiskEntry {
	if len(risks) == 0 && len(missing) > 0 {
		level := model.RiskMedium
		if len(missing) > 3 {
			level = model.RiskHigh
		}
		risks = append(risks, model.RiskEntry{
			Category:    model.RiskCompliance,
			Level:       level,
			Description: fmt.Sprintf("%d mandatory job requirements were not found in the CV", len(missing)),
		})
	}

	if mentionsFunctionalMismatch(explanation) && !hasRisk(risks, model.RiskFunctionalArea) {
		risks = append(risks, model.RiskEntry{
			Category:    model.RiskFunctionalArea,
			Level:       model.RiskHigh,
			Description: "The functional area of the CV does not match the job description and is not transferable",
		})
	}

	if len(risks) == 0 {
		return nil
	}
	return risks
}

func mentionsFunctionalMismatch(explanation string) bool {
	text := strings.ToLower(explanation)
	switch {
	case strings.Contains(text, "functional area"):
		return strings.Contains(text, "different") ||
			strings.Contains(text, "not transferable") ||
			strings.Contains(text, "non-transferable")
	case strings.Contains(text, "área funcional"), strings.Contains(text, "area funcional"):
		return strings.Contains(text, "diferente") || strings.Contains(text, "no transferible")
	}
	return false
}

func hasRisk(risks []model.RiskEntry, category string) bool {
	for _, r := range risks {
		if r.Category == category {
			return true
		}
	}
	return false
}

// ── Degraded records ─────────────────────────────────

// UnparsableRecord is returned when nothing structured could be recovered from
// the model reply.
func UnparsableRecord(candidateID, filename string) model.AnalysisResult {
	return model.AnalysisResult{
		CandidateID:    candidateID,
		Filename:       filename,
		Recommendation: "Manual review required: the model reply was not in the expected format. Try the analysis again.",
		ObjectiveCriteria: []model.ObjectiveCriterion{{
			Name:   "Processing error",
			Value:  "The model reply could not be parsed",
			Weight: weight(0),
		}},
		ConfidenceLevel:       model.ConfidenceInsufficient,
		ConfidenceExplanation: "The model reply could not be processed as a structured analysis.",
		MissingInformation:    []string{"valid AI response format"},
		EthicalCompliance:     true,
		Risks: []model.RiskEntry{{
			Category:    model.RiskCompliance,
			Level:       model.RiskHigh,
			Description: "The model reply could not be processed; manual review or a retry is required",
		}},
	}
}

// FailureRecord is returned for a candidate whose analysis failed before a reply
// could be parsed. The provider error itself is logged by the caller and never
// copied into the record.
func FailureRecord(doc model.CandidateDocument, err error) model.AnalysisResult {
	reason := failureReason(err)

	return model.AnalysisResult{
		CandidateID:    doc.CandidateID,
		Filename:       doc.Filename,
		Recommendation: fmt.Sprintf("This candidate could not be analysed: %s. Check the CV and try again; very long documents may also cause this.", reason),
		ObjectiveCriteria: []model.ObjectiveCriterion{{
			Name:   "Technical error",
			Value:  "Analysis not completed: " + reason,
			Weight: weight(0),
		}},
		ConfidenceLevel:       model.ConfidenceInsufficient,
		ConfidenceExplanation: "The analysis did not complete: " + reason + ".",
		MissingInformation:    []string{"analysis not completed due to a technical error"},
		EthicalCompliance:     true,
		Risks: []model.RiskEntry{{
			Category:    model.RiskCompliance,
			Level:       model.RiskHigh,
			Description: "Technical error during the analysis (" + reason + "); human review required",
		}},
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		return "the model returned an empty response"
	case errors.Is(err, context.DeadlineExceeded):
		return "the model call timed out"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	default:
		return "the model call failed"
	}
}

// ── Coercion ─────────────────────────────────────────

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// coerceWeight accepts numbers and numeric strings in [0,1]. Values written with a
// % suffix, and whole numbers from 2 to 100, are read as percentages. Anything else
// outside [0,1] is dropped.
func coerceWeight(v any) *float64 {
	var w float64
	percent := false
	switch t := v.(type) {
	case float64:
		w = t
	case string:
		s := strings.TrimSpace(t)
		if strings.HasSuffix(s, "%") {
			percent = true
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		w = f
	default:
		return nil
	}

	if !percent && w > 1 && w == math.Trunc(w) {
		percent = true
	}
	if percent {
		w /= 100
	}
	if w < 0 || w > 1 {
		return nil
	}
	return &w
}

func coerceCriteria(v any) []model.ObjectiveCriterion {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]model.ObjectiveCriterion, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := model.ObjectiveCriterion{
			Name:   coerceString(obj["name"]),
			Value:  coerceString(obj["value"]),
			Weight: coerceWeight(obj["weight"]),
		}
		if c.Name == "" && c.Value == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

var confidenceSynonyms = map[string]model.ConfidenceLevel{
	"alto":         model.ConfidenceHigh,
	"alta":         model.ConfidenceHigh,
	"medio":        model.ConfidenceMedium,
	"media":        model.ConfidenceMedium,
	"bajo":         model.ConfidenceLow,
	"baja":         model.ConfidenceLow,
	"insuficiente": model.ConfidenceInsufficient,
}

func coerceConfidence(v any) model.ConfidenceLevel {
	s := coerceString(v)
	if level, ok := model.ParseConfidence(s); ok {
		return level
	}
	if level, ok := confidenceSynonyms[strings.ToLower(s)]; ok {
		return level
	}
	return model.ConfidenceMedium
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var riskCategories = map[string]string{
	"technical":       model.RiskTechnical,
	"técnico":         model.RiskTechnical,
	"tecnico":         model.RiskTechnical,
	"experience":      model.RiskExperience,
	"experiencia":     model.RiskExperience,
	"education":       model.RiskEducation,
	"formación":       model.RiskEducation,
	"formacion":       model.RiskEducation,
	"educación":       model.RiskEducation,
	"functional_area": model.RiskFunctionalArea,
	"functional-area": model.RiskFunctionalArea,
	"functional area": model.RiskFunctionalArea,
	"área_funcional":  model.RiskFunctionalArea,
	"area_funcional":  model.RiskFunctionalArea,
	"compliance":      model.RiskCompliance,
	"cumplimiento":    model.RiskCompliance,
}

var riskLevels = map[string]string{
	"high":   model.RiskHigh,
	"alto":   model.RiskHigh,
	"medium": model.RiskMedium,
	"medio":  model.RiskMedium,
	"low":    model.RiskLow,
	"bajo":   model.RiskLow,
}

func coerceRisks(v any) []model.RiskEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]model.RiskEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		r := model.RiskEntry{
			Category:    model.RiskCompliance,
			Level:       model.RiskMedium,
			Description: coerceString(obj["description"]),
		}
		if c, ok := riskCategories[strings.ToLower(coerceString(obj["category"]))]; ok {
			r.Category = c
		}
		if l, ok := riskLevels[strings.ToLower(coerceString(obj["level"]))]; ok {
			r.Level = l
		}
		if r.Description == "" {
			r.Description = defaultRiskText
		}
		out = append(out, r)
	}
	return out
}

// ── Helpers ──────────────────────────────────────────

func weight(w float64) *float64 {
	return &w
}

func candidateRef(candidateID, filename string) string {
	if candidateID != "" {
		return candidateID
	}
	return filename
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
