package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
	"golang.org/x/sync/errgroup"
)

// Generator turns a prompt into raw model text
type Generator interface {
	Generate(ctx context.Context, prompt, modelID string) (string, error)
	// Available reports llm.ErrNoProviderConfigured when modelID cannot be served
	Available(modelID string) error
}

// Analyzer runs the full pipeline for a batch of candidates
type Analyzer struct {
	gen         Generator
	composer    *Composer
	extractor   *Extractor
	concurrency int
	timeout     time.Duration
}

type Option func(*Analyzer)

// WithConcurrency bounds how many candidates are analysed at once
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithCandidateTimeout limits the model call for each candidate
func WithCandidateTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

func WithMaxPromptTokens(n int) Option {
	return func(a *Analyzer) { a.composer = NewComposer(n) }
}

func NewAnalyzer(gen Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		gen:         gen,
		composer:    NewComposer(DefaultMaxPromptTokens),
		extractor:   NewExtractor(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns one result per candidate, in input order. Only an invalid
// request or a model that cannot be served fails the batch; anything that goes
// wrong for a single candidate becomes an insufficient-confidence record.
func (a *Analyzer) Analyze(ctx context.Context, req model.AnalysisRequest) ([]model.AnalysisResult, error) {
	check := ValidateRequest(req)
	if !check.IsValid {
		return nil, check.Err()
	}
	for _, w := range check.Warnings {
		log.Warn().Str("warning", w).Msg("Analysis request warning")
	}

	if err := a.gen.Available(req.ModelID); err != nil {
		return nil, err
	}

	results := make([]model.AnalysisResult, len(req.Candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, doc := range req.Candidates {
		g.Go(func() error {
			results[i] = a.analyzeOne(gctx, req.JobDescription, doc, req.ModelID)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, jobDescription string, doc model.CandidateDocument, modelID string) (result model.AnalysisResult) {
	ref := candidateRef(doc.CandidateID, doc.Filename)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("candidate", ref).Interface("panic", r).Msg("Candidate analysis panicked")
			result = FailureRecord(doc, fmt.Errorf("panic: %v", r))
		}
	}()

	prompt, _ := a.composer.Build(jobDescription, doc.Content, doc.Filename)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.gen.Generate(ctx, prompt, modelID)
	if err != nil {
		log.Error().Err(err).Str("candidate", ref).Str("model", modelID).Msg("Model call failed")
		return FailureRecord(doc, err)
	}
	log.Debug().
		Str("candidate", ref).
		Int("replyChars", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("Model reply received")

	parsed, ok := a.extractor.Extract(raw)
	if !ok {
		log.Error().
			Err(ErrUnparsableResponse).
			Str("candidate", ref).
			Str("reply", preview(raw, 500)).
			Msg("Could not parse model reply")
		return UnparsableRecord(doc.CandidateID, doc.Filename)
	}

	result = Build(parsed, doc.CandidateID, doc.Filename)

	check := ValidateAnalysis(result)
	for _, w := range check.Warnings {
		log.Warn().Str("candidate", ref).Str("warning", w).Msg("Analysis warning")
	}
	if !check.IsValid {
		log.Warn().Err(check.Err()).Str("candidate", ref).Msg("Analysis failed ethical validation, sanitising")
		result = AdjustAnalysis(result)
	}

	return result
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
