package analysis

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
)

const (
	placeholderJobDescription = "{{job_description}}"
	placeholderCV             = "{{cv_content}}"
)

// promptTemplate is rendered with literal substitution only. Nothing inside the
// job description or the résumé is ever interpreted as template syntax.
const promptTemplate = `You are supporting a human recruiter with a strict, evidence-based comparison between a job description (JD) and a candidate's CV. Your output is decision support only. A human makes every hiring decision.

JOB DESCRIPTION:
{{job_description}}

CANDIDATE CV:
{{cv_content}}

ANALYSIS METHOD (follow every step in order):

1. IDENTIFY REQUIREMENTS
   - List the mandatory requirements of the JD (skills, technologies, years of experience, education, certifications).
   - List the desirable requirements separately.

2. VERIFY THE FUNCTIONAL AREA
   - Determine the functional area of the JD (for example software development, design, finance, sales).
   - Determine the functional area of the CV.
   - State whether they match, differ, or differ but are transferable.
   - If the areas differ and the experience is NOT transferable, the confidence level MUST be "insufficient".

3. COMPARE POINT BY POINT
   - For every mandatory requirement, quote what the JD asks for and what the CV shows.
   - Do not assume that general experience satisfies a specific requirement.

4. CLASSIFY EACH MATCH
   - EXACT: the CV shows the requirement explicitly.
   - PARTIAL: the CV shows related or lesser evidence.
   - NONE: the CV shows no evidence.

5. COMPUTE THE COMPLIANCE PERCENTAGE
   - compliance = mandatory requirements met / total mandatory requirements x 100 (a PARTIAL match counts as half).

6. APPLY THE CONFIDENCE THRESHOLDS AND PENALTIES
   - "high": compliance of 80% or more, same functional area, no mandatory requirement missing.
   - "medium": compliance between 60% and 79%, or at most two mandatory requirements missing.
   - "low": compliance between 50% and 59%, or three or more mandatory requirements missing.
   - "insufficient": compliance below 50%, a non-transferable functional area, or too little information to compare.
   - Every missing mandatory requirement lowers the confidence level. Never give a high level without real, specific matches.

ETHICAL RULES (mandatory):
- Evaluate only job-relevant evidence: experience, skills, education, certifications and verifiable achievements.
- Never use, infer or mention personal attributes: age, gender, race, ethnicity, religion, marital status, nationality, disability, sexual orientation, appearance or family situation.
- Never use subjective or value-laden adjectives such as "excellent", "outstanding", "perfect", "good", "bad" or "mediocre".
- Use neutral comparative phrasing: "The JD requires X; the CV shows Y; match: EXACT/PARTIAL/NONE".
- Do not favour or penalise a candidate for the size, prestige or sector of previous employers or schools.
- Weight mandatory requirements higher than desirable ones. Criterion weights should add up to about 1.0.
- When information is insufficient, say so and list what is missing.

RISK ASSESSMENT:
Report the risks that follow from the comparison, using these categories:
- "technical": missing mandatory skills or technologies.
- "experience": insufficient years or a different type of experience.
- "education": missing required education or certifications.
- "functional_area": a different, non-transferable functional area.
- "compliance": several mandatory requirements unmet or a compliance percentage below 50%.
Each risk has a "level" of "high" (blocking), "medium" (important) or "low" (minor).

RESPONSE FORMAT:
Reply with ONLY a JSON object (no markdown, no code fences, no commentary) with exactly these keys:
{
  "recommendation": "Objective summary: functional area of JD vs CV and whether it transfers, requirements met (with detail), requirements not met (with detail), estimated compliance percentage.",
  "objective_criteria": [
    {
      "name": "Requirement name, for example 'Experience with Go'",
      "value": "The JD requires X; the CV shows Y. Match: EXACT/PARTIAL/NONE. Reason: ...",
      "weight": 0.35
    }
  ],
  "confidence_level": "high|medium|low|insufficient",
  "confidence_explanation": "1) Functional area: match/different/transferable. 2) Requirements met: X of Y. 3) Compliance: Z%. 4) Why this level follows from those figures.",
  "missing_information": ["Specific mandatory JD requirement not found in the CV"],
  "risks": [
    {
      "category": "technical|experience|education|functional_area|compliance",
      "level": "high|medium|low",
      "description": "Specific risk and its possible impact on performance in the role"
    }
  ]
}

Before replying, check that the confidence level matches the computed figures, that the text contains no subjective language, and that no personal attribute is mentioned or inferred.`

// Composer renders the analysis prompt for one candidate
type Composer struct {
	allocator Allocator
	overhead  int
}

// NewComposer returns a composer whose prompts stay within maxPromptTokens
func NewComposer(maxPromptTokens int) *Composer {
	return &Composer{
		allocator: Allocator{MaxPromptTokens: maxPromptTokens},
		overhead:  EstimateTokens(Compose("", "")),
	}
}

// Compose substitutes the two documents into the template in a single pass.
func Compose(jobDescription, cv string) string {
	r := strings.NewReplacer(
		placeholderJobDescription, jobDescription,
		placeholderCV, cv,
	)
	return r.Replace(promptTemplate)
}

// Build fits both documents into the budget and renders the prompt. filename is
// only used for logging; it never reaches the model.
func (c *Composer) Build(jobDescription, cv, filename string) (string, model.PromptBudget) {
	alloc := c.allocator.Allocate(jobDescription, cv, c.overhead)

	if alloc.CVTruncated {
		log.Warn().
			Str("filename", filename).
			Int("allocation", alloc.Budget.CVTokenAllocation).
			Int("tokens", EstimateTokens(cv)).
			Msg("CV exceeds its token allocation, truncating")
	}
	if alloc.JDTruncated {
		log.Warn().
			Str("filename", filename).
			Int("allocation", alloc.Budget.JDTokenAllocation).
			Int("tokens", EstimateTokens(jobDescription)).
			Msg("Job description exceeds its token allocation, truncating")
	}

	prompt := Compose(alloc.JobDescription, alloc.CV)
	if tokens := EstimateTokens(prompt); tokens > alloc.Budget.MaxPromptTokens {
		log.Warn().
			Str("filename", filename).
			Int("tokens", tokens).
			Int("max", alloc.Budget.MaxPromptTokens).
			Msg("Prompt still exceeds the token limit")
	}

	return prompt, alloc.Budget
}
