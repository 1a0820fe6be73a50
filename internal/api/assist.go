package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/docstore"
)

type explainParams struct {
	Slug       string `json:"slug"`
	AccessCode string `json:"accessCode"`
	QuestionID string `json:"questionId"`
}

type explainResult struct {
	Explanation string `json:"explanation"`
}

func (s *Server) explainQuestion(ctx context.Context, data json.RawMessage) (any, error) {
	var p explainParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		return nil, notSpecified("slug")
	}
	if p.QuestionID == "" {
		return nil, notSpecified("questionId")
	}

	e, err := s.repo.GetExam(ctx, p.Slug)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	secrets, err := s.secretsOf(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(e, secrets, p.AccessCode); err != nil {
		return nil, err
	}
	if !e.EnableAI {
		return nil, fnError(CodeFailedPrecondition, "AI explanations are disabled for this exam.")
	}
	if s.explainer == nil {
		return nil, fnError(CodeUnavailable, "AI features are not configured.")
	}

	q, err := s.repo.Question(ctx, p.Slug, p.QuestionID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	explanation, err := s.explainer.Explain(ctx, *e, *q)
	if errors.Is(err, ai.ErrNoCorrectAnswer) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return explainResult{Explanation: explanation}, nil
}

type suggestParams struct {
	Slug       string `json:"slug"`
	EditCode   string `json:"editCode"`
	QuestionID string `json:"questionId"`
	Subject    string `json:"subject"`
}

type suggestResult struct {
	Question *ai.Suggestion `json:"question"`
}

func (s *Server) suggestExamQuestion(ctx context.Context, data json.RawMessage) (any, error) {
	var p suggestParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	e, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode)
	if err != nil {
		return nil, err
	}
	if s.suggester == nil {
		return nil, fnError(CodeUnavailable, "AI features are not configured.")
	}

	questions, err := s.repo.Questions(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	examples := s.suggester.Examples(s.rand, questions, p.QuestionID)
	if p.QuestionID != "" && len(examples) == 0 {
		return nil, fnError(CodeNotFound, "Question not found.")
	}

	sug, err := s.suggester.Suggest(ctx, *e, examples, p.Subject)
	if err != nil {
		return nil, err
	}

	slog.Info("suggested exam question", "slug", p.Slug, "examples", len(examples))
	return suggestResult{Question: sug}, nil
}
