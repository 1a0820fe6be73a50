// Package ai explains exam answers and suggests new questions through an
// LLM provider.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
)

// ErrNoCorrectAnswer is returned when a question has nothing to explain.
var ErrNoCorrectAnswer = errors.New("question has no correct answer")

// Explainer produces plain-text explanations of correct answers.
type Explainer struct {
	provider llm.Provider
	config   Config
}

// NewExplainer creates an Explainer over provider.
func NewExplainer(provider llm.Provider, cfg Config) *Explainer {
	return &Explainer{provider: provider, config: cfg}
}

// Explain asks why the question's correct answer beats the incorrect ones.
// The exam's explanation prompt is used as the system prompt when set.
func (x *Explainer) Explain(ctx context.Context, e exam.Exam, q exam.Question) (string, error) {
	var (
		correct   string
		incorrect []string
		found     bool
	)
	for _, a := range q.Answers {
		if a.Correct && !found {
			correct, found = a.Description, true
			continue
		}
		if !a.Correct {
			incorrect = append(incorrect, a.Description)
		}
	}
	if !found {
		return "", ErrNoCorrectAnswer
	}

	system := e.ExplanationPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultExplanationPrompt
	}

	resp, err := x.provider.Generate(llm.WithPurpose(ctx, "explain"), llm.Request{
		System:      system,
		Messages:    llm.UserMessage(explainUserMessage(q.Description, correct, incorrect)),
		MaxTokens:   x.config.MaxTokens,
		Temperature: x.config.Temperature,
		TopP:        x.config.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("explain question %s: %w", q.ID, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &llm.ErrInvalidResponse{Err: errors.New("empty explanation")}
	}
	return text, nil
}
