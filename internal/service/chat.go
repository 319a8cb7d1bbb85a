package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/screening-api/internal/analysis"
	"github.com/yourusername/screening-api/internal/model"
)

const chatHistoryTurns = 6

const chatPromptTemplate = `You are assisting a recruiter who is reviewing candidates.

Rules you must follow:
- Base every statement on job-relevant evidence the recruiter provides.
- Never infer or comment on age, gender, ethnicity, religion, nationality, marital status, disability or appearance.
- Avoid subjective adjectives; describe skills, experience and gaps in neutral terms.
- Say so when the information is insufficient to answer.
- The final hiring decision always belongs to the recruiter.

Conversation so far:
%s

RECRUITER: %s

Reply concisely as the SPECIALIST.`

// ChatGenerator is the model call used by the chat assistant
type ChatGenerator interface {
	Generate(ctx context.Context, prompt, modelID string) (string, error)
}

// ChatService answers recruiter questions with a short conversation history
type ChatService struct {
	gen ChatGenerator
}

func NewChatService(gen ChatGenerator) *ChatService {
	return &ChatService{gen: gen}
}

// Reply sends message with the recent history and returns the model's answer
func (s *ChatService) Reply(ctx context.Context, message string, history []model.ChatMessage, modelID string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", analysis.ErrInvalidRequest)
	}

	reply, err := s.gen.Generate(ctx, BuildChatPrompt(message, history), modelID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// BuildChatPrompt renders the last few non-empty turns of history ahead of message
func BuildChatPrompt(message string, history []model.ChatMessage) string {
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}

	var lines []string
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		speaker := "RECRUITER"
		if m.Role == "assistant" {
			speaker = "SPECIALIST"
		}
		lines = append(lines, speaker+": "+content)
	}

	transcript := "No previous messages."
	if len(lines) > 0 {
		transcript = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(chatPromptTemplate, transcript, message)
}
