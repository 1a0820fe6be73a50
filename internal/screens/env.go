// Package screens holds the dependencies shared by the terminal screens.
package screens

import (
	"context"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/training"
)

// Explainer produces an explanation of a question's correct answer.
type Explainer interface {
	Explain(ctx context.Context, e exam.Exam, q exam.Question) (string, error)
}

// Env is passed from screen to screen.
type Env struct {
	Exams    *exam.Repository
	Sessions *training.SessionStore

	// Explainer is nil when no LLM provider is configured.
	Explainer Explainer
}
