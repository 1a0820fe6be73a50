package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
)

type questionParams struct {
	Slug       string             `json:"slug"`
	EditCode   string             `json:"editCode"`
	QuestionID string             `json:"questionId"`
	Data       exam.QuestionInput `json:"data"`
}

type questionIDResult struct {
	ID string `json:"id"`
}

func (s *Server) createExamQuestion(ctx context.Context, data json.RawMessage) (any, error) {
	var p questionParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}

	q, err := exam.NormalizeQuestion(p.Data)
	if err != nil {
		return nil, err
	}
	if p.Data.Order == nil {
		if q.Order, err = s.repo.NextOrder(ctx, p.Slug); err != nil {
			return nil, err
		}
	}
	q, err = s.repo.PutQuestion(ctx, p.Slug, q)
	if err != nil {
		return nil, err
	}

	slog.Info("created exam question", "slug", p.Slug, "question", q.ID)
	return questionIDResult{ID: q.ID}, nil
}

func (s *Server) editExamQuestion(ctx context.Context, data json.RawMessage) (any, error) {
	var p questionParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}
	if p.QuestionID == "" {
		return nil, notSpecified("questionId")
	}

	existing, err := s.repo.Question(ctx, p.Slug, p.QuestionID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fnError(CodeNotFound, "Question not found.")
	}
	if err != nil {
		return nil, err
	}

	q, err := exam.NormalizeQuestion(p.Data)
	if err != nil {
		return nil, err
	}
	q.ID = existing.ID
	if p.Data.Order == nil {
		q.Order = existing.Order
	}
	if _, err := s.repo.PutQuestion(ctx, p.Slug, q); err != nil {
		return nil, err
	}

	slog.Info("edited exam question", "slug", p.Slug, "question", q.ID)
	return struct{}{}, nil
}

func (s *Server) removeExamQuestion(ctx context.Context, data json.RawMessage) (any, error) {
	var p questionParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}
	if p.QuestionID == "" {
		return nil, notSpecified("questionId")
	}
	if err := s.repo.DeleteQuestion(ctx, p.Slug, p.QuestionID); err != nil {
		return nil, err
	}

	slog.Info("removed exam question", "slug", p.Slug, "question", p.QuestionID)
	return struct{}{}, nil
}

type bulkAddParams struct {
	Slug     string `json:"slug"`
	EditCode string `json:"editCode"`
	Text     string `json:"text"`
}

type bulkAddResult struct {
	Count int `json:"count"`

	// PossibleDuplicates lists the descriptions of added questions that
	// closely resemble a question the exam already had.
	PossibleDuplicates []string `json:"possibleDuplicates"`
}

func (s *Server) bulkAddExamQuestions(ctx context.Context, data json.RawMessage) (any, error) {
	var p bulkAddParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}

	existing, err := s.repo.Questions(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	minOrder := 1
	for _, q := range existing {
		minOrder = max(minOrder, q.Order+1)
	}

	inputs := exam.ParseBulk(p.Text, minOrder)
	if len(inputs) == 0 {
		return nil, invalidArgument("no questions found in text.")
	}

	questions := make([]exam.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := exam.NormalizeQuestion(in)
		if err != nil {
			return nil, invalidArgument(fmt.Sprintf("question %d: %v", i+1, err))
		}
		questions = append(questions, q)
	}

	res := bulkAddResult{PossibleDuplicates: []string{}}
	for _, q := range questions {
		if exam.MostSimilar(q.Description, existing) > exam.SimilarityThreshold {
			res.PossibleDuplicates = append(res.PossibleDuplicates, q.Description)
		}
		if _, err := s.repo.PutQuestion(ctx, p.Slug, q); err != nil {
			return nil, err
		}
		res.Count++
	}

	slog.Info("bulk added exam questions", "slug", p.Slug, "count", res.Count, "duplicates", len(res.PossibleDuplicates))
	return res, nil
}
