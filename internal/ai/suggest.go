package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/training"
)

// Suggestion is a generated question. It is not stored; the author
// reviews it and submits it like any other question.
type Suggestion struct {
	Description string             `json:"description"`
	Explanation string             `json:"explanation"`
	Answers     []SuggestionAnswer `json:"answers"`
	Categories  []string           `json:"categories"`
}

// SuggestionAnswer is one option of a Suggestion.
type SuggestionAnswer struct {
	Description string `json:"description"`
	Correct     bool   `json:"correct"`
}

// Suggester generates new questions in the style of existing ones.
type Suggester struct {
	provider llm.Provider
	config   Config
}

// NewSuggester creates a Suggester over provider.
func NewSuggester(provider llm.Provider, cfg Config) *Suggester {
	return &Suggester{provider: provider, config: cfg}
}

// Examples picks the example questions for a suggestion: the question with
// questionID when given, otherwise up to MaxExamples random questions.
func (s *Suggester) Examples(r training.Rand, questions []exam.Question, questionID string) []exam.Question {
	if questionID != "" {
		for _, q := range questions {
			if q.ID == questionID {
				return []exam.Question{q}
			}
		}
		return nil
	}
	picked := training.Shuffled(r, questions)
	if n := s.config.MaxExamples; n > 0 && len(picked) > n {
		picked = picked[:n]
	}
	return picked
}

// Suggest generates a question for e. Suggestions failing a retryable
// validation are regenerated with the failures added to the prompt, up to
// MaxAttempts completions.
func (s *Suggester) Suggest(ctx context.Context, e exam.Exam, examples []exam.Question, subject string) (*Suggestion, error) {
	ctx = llm.WithPurpose(ctx, "suggest")

	attempts := max(s.config.MaxAttempts, 1)
	var rejections []string
	for attempt := 1; ; attempt++ {
		sug, verr, err := s.generate(ctx, e, examples, subject, rejections)
		if err != nil {
			return nil, err
		}
		if verr == nil {
			return sug, nil
		}
		if !verr.Retryable || attempt >= attempts {
			return nil, verr
		}
		slog.Warn("suggestion rejected, retrying", "exam", e.Slug, "attempt", attempt, "error", verr)
		rejections = append(rejections, verr.Message)
	}
}

func (s *Suggester) generate(ctx context.Context, e exam.Exam, examples []exam.Question, subject string, rejections []string) (*Suggestion, *ValidationError, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      suggestSystemPrompt,
		Messages:    llm.UserMessage(suggestUserMessage(e, examples, subject, rejections)),
		Schema:      QuestionSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.SuggestTemperature,
		TopP:        s.config.TopP,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("suggest question for %s: %w", e.Slug, err)
	}

	if err := llm.ValidateJSON(QuestionSchema, resp.Content); err != nil {
		return nil, nil, err
	}

	var sug Suggestion
	if err := json.Unmarshal(resp.Content, &sug); err != nil {
		return nil, nil, &llm.ErrInvalidResponse{Err: fmt.Errorf("decode suggestion: %w", err)}
	}
	sug.Description = strings.TrimSpace(sug.Description)
	sug.Explanation = strings.TrimSpace(sug.Explanation)
	if sug.Categories == nil {
		sug.Categories = []string{}
	}

	for _, v := range s.config.Validators {
		if verr := v.Validate(&sug); verr != nil {
			return nil, verr, nil
		}
	}
	return &sug, nil, nil
}

// Input converts the suggestion into the shape accepted by
// exam.NormalizeQuestion.
func (s *Suggestion) Input() exam.QuestionInput {
	explanation := s.Explanation
	in := exam.QuestionInput{
		Description: s.Description,
		Explanation: &explanation,
		Categories:  s.Categories,
	}
	for i, a := range s.Answers {
		order := i
		in.Answers = append(in.Answers, exam.AnswerInput{
			Order:       &order,
			Description: a.Description,
			Correct:     a.Correct,
		})
	}
	return in
}

// IsValidation reports whether err is a rejected suggestion rather than a
// provider failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
