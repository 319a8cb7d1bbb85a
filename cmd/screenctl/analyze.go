package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yourusername/screening-api/internal/analysis"
	"github.com/yourusername/screening-api/internal/llm"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/service"
)

var (
	jobFile string
	modelID string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze --job <file> <cv>...",
	Short: "Screen CV files (PDF or text) against a job description and print JSON results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jd, err := readDocument(jobFile)
		if err != nil {
			return fmt.Errorf("reading job description: %w", err)
		}

		req := model.AnalysisRequest{JobDescription: jd, ModelID: modelID}
		for _, path := range args {
			content, err := readDocument(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			req.Candidates = append(req.Candidates, model.CandidateDocument{
				Filename: filepath.Base(path),
				Content:  content,
			})
		}

		gateway, err := llm.Configure(cmd.Context(), llm.Credentials{
			OpenAIKey:        cfg.OpenAIAPIKey,
			OpenAIBaseURL:    cfg.OpenAIBaseURL,
			AnthropicKey:     cfg.ClaudeAPIKey,
			AnthropicBaseURL: cfg.ClaudeBaseURL,
			GeminiKey:        cfg.GeminiAPIKey,
			DefaultModel:     cfg.DefaultModel,
			Timeout:          cfg.LLMTimeout,
		})
		if err != nil {
			return err
		}

		analyzer := analysis.NewAnalyzer(gateway,
			analysis.WithConcurrency(cfg.AnalysisConcurrency),
			analysis.WithCandidateTimeout(cfg.CandidateTimeout),
			analysis.WithMaxPromptTokens(cfg.MaxPromptTokens),
		)

		log.Info().Int("candidates", len(req.Candidates)).Str("model", req.ModelID).Msg("Starting analysis")
		results, err := analyzer.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&jobFile, "job", "", "job description file (PDF or text)")
	analyzeCmd.Flags().StringVar(&modelID, "model", "", "model id (default DEFAULT_MODEL)")
	_ = analyzeCmd.MarkFlagRequired("job")
}

// readDocument returns the text of a PDF or plain text file
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return strings.TrimSpace(string(data)), nil
	}

	text, warnings, err := service.ExtractPDFText(data)
	if err != nil {
		return "", err
	}
	for _, w := range warnings {
		log.Warn().Str("file", path).Msg(w)
	}
	return text, nil
}
