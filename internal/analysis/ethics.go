package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yourusername/screening-api/internal/model"
)

// minDocumentLength is the length under which a document only draws a warning
const minDocumentLength = 30

// termSet matches a vocabulary as whole words or phrases, case-insensitively.
// Phrases listed as exempt are never matched or removed.
type termSet struct {
	re     *regexp.Regexp
	exempt *regexp.Regexp
}

func newTermSet(terms []string, exempt ...string) termSet {
	return termSet{re: phraseRegexp(terms), exempt: phraseRegexp(exempt)}
}

func phraseRegexp(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	sorted := append([]string(nil), terms...)
	// Longer phrases first so "too senior" wins over "senior".
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

func (s termSet) mask(text string) string {
	if s.exempt == nil {
		return text
	}
	return s.exempt.ReplaceAllString(text, " ")
}

// find returns the first term present in text, lower-cased
func (s termSet) find(text string) (string, bool) {
	m := s.re.FindString(s.mask(text))
	if m == "" {
		return "", false
	}
	return strings.ToLower(strings.Join(strings.Fields(m), " ")), true
}

// findAll returns every distinct term present in text, in order of appearance
func (s termSet) findAll(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range s.re.FindAllString(s.mask(text), -1) {
		term := strings.ToLower(strings.Join(strings.Fields(m), " "))
		if !seen[term] {
			seen[term] = true
			out = append(out, term)
		}
	}
	return out
}

func (s termSet) remove(text string) string {
	if s.exempt == nil {
		return s.re.ReplaceAllString(text, "")
	}

	var sb strings.Builder
	last := 0
	for _, loc := range s.exempt.FindAllStringIndex(text, -1) {
		sb.WriteString(s.re.ReplaceAllString(text[last:loc[0]], ""))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(s.re.ReplaceAllString(text[last:], ""))
	return sb.String()
}

// ── Vocabularies ─────────────────────────────────────

var (
	subjectiveTerms = newTermSet([]string{
		"excellent", "outstanding", "perfect", "good", "bad", "great", "terrible",
		"incredible", "horrible", "fantastic", "awful", "amazing", "brilliant",
		"mediocre", "disappointing", "impressive", "superb", "poor",
	})

	personalAttributes = newTermSet([]string{
		"age", "years old", "date of birth", "birthdate", "gender", "sex", "race", "racial",
		"ethnicity", "ethnic", "religion", "religious", "sexual orientation", "marital status",
		"married", "unmarried", "divorced", "widowed", "nationality", "citizenship",
		"disability", "disabled", "pregnant", "pregnancy", "male", "female", "man", "woman",
		"elderly", "appearance", "physical appearance", "height", "skin color",
		"skin colour", "place of birth",
	}, "race condition", "race conditions")

	biasIndicators = newTermSet([]string{
		"overqualified", "underqualified", "too senior", "too junior", "too young", "too old",
		"too experienced", "prestigious", "elite", "top-tier", "best", "typical", "normal",
		"unusual", "old-school", "culture fit",
	})

	industryBiasTerms = newTermSet([]string{
		"small company", "large company", "big company", "startup", "corporate", "academic",
		"government", "prestige", "well-known", "renowned", "big tech",
	})
)

// ── Validation ───────────────────────────────────────

// ValidationResult reports whether a request or a record passes the ethical
// policy. Warnings never cause a rejection.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	kind error
}

// Err returns nil for a valid result, otherwise the reason wrapped in the matching
// sentinel error.
func (v ValidationResult) Err() error {
	if v.IsValid {
		return nil
	}
	return fmt.Errorf("%w: %s", v.kind, v.Reason)
}

func reject(kind error, warnings []string, format string, args ...any) ValidationResult {
	return ValidationResult{
		Reason:   fmt.Sprintf(format, args...),
		Warnings: warnings,
		kind:     kind,
	}
}

// ValidateRequest checks a batch before any model call. Documents carrying
// personal-attribute vocabulary are refused outright.
func ValidateRequest(req model.AnalysisRequest) ValidationResult {
	var warnings []string

	jd := strings.TrimSpace(req.JobDescription)
	if jd == "" {
		return reject(ErrInvalidRequest, warnings, "no job description was provided")
	}
	if len(jd) < minDocumentLength {
		warnings = append(warnings, "The job description looks very short or incomplete.")
	}

	if len(req.Candidates) == 0 {
		return reject(ErrInvalidRequest, warnings, "no CVs were provided for analysis")
	}

	for _, c := range req.Candidates {
		content := strings.TrimSpace(c.Content)
		if content == "" {
			return reject(ErrInvalidRequest, warnings, "the CV '%s' is empty", c.Filename)
		}
		if term, found := personalAttributes.find(content); found {
			return reject(ErrInvalidRequest, warnings,
				"the CV '%s' contains personal information that may not be used: %s", c.Filename, term)
		}
		if len(content) < minDocumentLength {
			warnings = append(warnings, fmt.Sprintf("The CV '%s' has very little text to evaluate.", c.Filename))
		}
	}

	return ValidationResult{IsValid: true, Warnings: warnings}
}

// ValidateAnalysis checks a built record for subjective language, missing criteria
// and references to personal attributes. Bias vocabulary only produces warnings.
func ValidateAnalysis(result model.AnalysisResult) ValidationResult {
	var warnings []string

	if term, found := subjectiveTerms.find(result.Recommendation); found {
		return reject(ErrEthicalViolation, warnings, "the recommendation uses subjective language: '%s'", term)
	}

	if len(result.ObjectiveCriteria) == 0 {
		return reject(ErrEthicalViolation, warnings, "the analysis has no objective criteria")
	}

	narrative := result.Recommendation + " " + result.ConfidenceExplanation
	if term, found := personalAttributes.find(narrative); found {
		return reject(ErrEthicalViolation, warnings, "the analysis refers to a personal attribute: %s", term)
	}

	for _, term := range biasIndicators.findAll(narrative) {
		warnings = append(warnings, fmt.Sprintf("Possible bias: the term '%s' may indicate a non-objective evaluation", term))
	}
	for _, term := range industryBiasTerms.findAll(narrative) {
		warnings = append(warnings, fmt.Sprintf("Possible experience-type bias: '%s' may indicate discrimination by industry", term))
	}

	for _, c := range result.ObjectiveCriteria {
		text := c.Name + " " + c.Value
		if term, found := personalAttributes.find(text); found {
			return reject(ErrEthicalViolation, warnings, "the criterion '%s' refers to a personal attribute: %s", c.Name, term)
		}
		for _, term := range subjectiveTerms.findAll(text) {
			warnings = append(warnings, fmt.Sprintf("The criterion '%s' uses subjective language: '%s'", c.Name, term))
		}
	}

	return ValidationResult{IsValid: true, Warnings: warnings}
}

// ── Sanitisation ─────────────────────────────────────

const (
	neutralRecommendation = "Analysis based on the available objective criteria"
	neutralCriterionName  = "Objective criterion"
)

// AdjustAnalysis returns a copy of result with forbidden vocabulary removed. The
// copy always passes ValidateAnalysis and is marked as compliant.
func AdjustAnalysis(result model.AnalysisResult) model.AnalysisResult {
	out := result

	out.Recommendation = scrub(result.Recommendation, subjectiveTerms, biasIndicators, personalAttributes)
	if out.Recommendation == "" {
		out.Recommendation = neutralRecommendation
	}
	out.ConfidenceExplanation = scrub(result.ConfidenceExplanation, personalAttributes)

	criteria := make([]model.ObjectiveCriterion, 0, len(result.ObjectiveCriteria))
	for _, c := range result.ObjectiveCriteria {
		value := scrub(c.Value, subjectiveTerms, biasIndicators, personalAttributes)
		if value == "" {
			continue
		}
		name := scrub(c.Name, personalAttributes)
		if name == "" {
			name = neutralCriterionName
		}
		criteria = append(criteria, model.ObjectiveCriterion{Name: name, Value: value, Weight: c.Weight})
	}
	if len(criteria) == 0 {
		criteria = []model.ObjectiveCriterion{{
			Name:   "Objective evaluation",
			Value:  "Analysis based on job-relevant criteria",
			Weight: weight(1),
		}}
	}
	out.ObjectiveCriteria = criteria

	out.EthicalCompliance = true
	return out
}

func scrub(text string, sets ...termSet) string {
	for _, s := range sets {
		text = s.remove(text)
	}
	return strings.Join(strings.Fields(text), " ")
}

// ── Published principles ─────────────────────────────

var principles = []model.EthicalPrinciple{
	{ID: 1, Name: "Limited purpose", Description: "Only job-relevant information is analysed. The system never makes the final decision."},
	{ID: 2, Name: "Valid variables", Description: "Experience, education, certifications and achievements are considered. Personal data is not used."},
	{ID: 3, Name: "Verifiable reasoning", Description: "Every recommendation is explained with objective, measurable criteria."},
	{ID: 4, Name: "Human oversight", Description: "Results support a reviewer and are not verdicts. A person always reviews them."},
	{ID: 5, Name: "Neutral language", Description: "Descriptions stay objective, without value judgements or subjective adjectives."},
	{ID: 6, Name: "Active privacy", Description: "Candidate documents are neither stored nor shared."},
	{ID: 7, Name: "Uncertainty", Description: "When the data is insufficient the analysis says so and names the missing information."},
}

// Principles returns the rules every analysis is held to
func Principles() []model.EthicalPrinciple {
	out := make([]model.EthicalPrinciple, len(principles))
	copy(out, principles)
	return out
}
