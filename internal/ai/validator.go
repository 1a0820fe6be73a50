package ai

import (
	"fmt"
	"strings"
)

// Validator checks a suggested question before it is handed to the exam
// author.
type Validator interface {
	// Name identifies the validator in error messages, e.g. "structural".
	Name() string

	// Validate returns nil when the suggestion passes.
	Validate(s *Suggestion) *ValidationError
}

// ValidationError describes why a suggestion was rejected.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that the text fields are filled in.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(s *Suggestion) *ValidationError {
	if strings.TrimSpace(s.Description) == "" {
		return &ValidationError{Validator: v.Name(), Message: "description is empty", Retryable: true}
	}
	for i, a := range s.Answers {
		if strings.TrimSpace(a.Description) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("answer %d has an empty description", i+1),
				Retryable: true,
			}
		}
	}
	for _, c := range s.Categories {
		if strings.TrimSpace(c) == "" {
			return &ValidationError{Validator: v.Name(), Message: "categories contain an empty label", Retryable: true}
		}
	}
	return nil
}

// AnswersValidator checks that the question can actually be answered.
type AnswersValidator struct{}

func (v *AnswersValidator) Name() string { return "answers" }

func (v *AnswersValidator) Validate(s *Suggestion) *ValidationError {
	if len(s.Answers) < 2 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected at least 2 answers, got %d", len(s.Answers)),
			Retryable: true,
		}
	}
	correct := 0
	seen := make(map[string]bool, len(s.Answers))
	for _, a := range s.Answers {
		if a.Correct {
			correct++
		}
		key := strings.ToLower(strings.TrimSpace(a.Description))
		if seen[key] {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("answer %q appears more than once", a.Description),
				Retryable: true,
			}
		}
		seen[key] = true
	}
	if correct == 0 {
		return &ValidationError{Validator: v.Name(), Message: "no answer is marked correct", Retryable: true}
	}
	return nil
}
