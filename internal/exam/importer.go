package exam

import (
	"context"
	"fmt"
	"time"
)

// Import creates the exam described by f with fresh codes and stores its
// questions. Every question is validated before anything is written.
func (r *Repository) Import(ctx context.Context, f *File, now time.Time) (Exam, Secrets, error) {
	e, err := NormalizeExam(f.ExamInput)
	if err != nil {
		return Exam{}, Secrets{}, err
	}
	e.Slug = Slugify(e.Title)
	e.Created = now.UTC()

	questions, err := normalizeAll(f.Questions)
	if err != nil {
		return Exam{}, Secrets{}, err
	}

	secrets, err := NewSecrets(f.Owner)
	if err != nil {
		return Exam{}, Secrets{}, err
	}
	if err := r.CreateExam(ctx, e, secrets); err != nil {
		return Exam{}, Secrets{}, err
	}
	for _, q := range questions {
		if _, err := r.PutQuestion(ctx, e.Slug, q); err != nil {
			return Exam{}, Secrets{}, err
		}
	}
	return e, secrets, nil
}

// AddQuestions appends inputs after the existing questions of the exam and
// returns the stored questions.
func (r *Repository) AddQuestions(ctx context.Context, slug string, inputs []QuestionInput) ([]Question, error) {
	questions, err := normalizeAll(inputs)
	if err != nil {
		return nil, err
	}
	next, err := r.NextOrder(ctx, slug)
	if err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(questions))
	for i, q := range questions {
		q.Order = next + i
		stored, err := r.PutQuestion(ctx, slug, q)
		if err != nil {
			return out, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func normalizeAll(inputs []QuestionInput) ([]Question, error) {
	out := make([]Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := NormalizeQuestion(in)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}
