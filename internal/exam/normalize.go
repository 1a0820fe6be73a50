package exam

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError describes why an incoming document was rejected.
type ValidationError struct {
	Field   string // JSON name of the offending field
	Message string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ExamInput is an exam document as submitted by a client. Nil fields were
// not provided.
type ExamInput struct {
	Title             *string `json:"title,omitempty" yaml:"title"`
	Description       *string `json:"description,omitempty" yaml:"description"`
	Private           *bool   `json:"private,omitempty" yaml:"private"`
	Threshold         *int    `json:"threshold,omitempty" yaml:"threshold"`
	ExplanationPrompt *string `json:"explanationPrompt,omitempty" yaml:"explanationPrompt"`
	EnableAI          *bool   `json:"enableAI,omitempty" yaml:"enableAI"`
}

// QuestionInput is a question document as submitted by a client.
type QuestionInput struct {
	Order       *int          `json:"order,omitempty" yaml:"order"`
	Description string        `json:"description" yaml:"description"`
	Explanation *string       `json:"explanation,omitempty" yaml:"explanation"`
	Categories  []string      `json:"categories,omitempty" yaml:"categories"`
	Answers     []AnswerInput `json:"answers" yaml:"answers"`
}

// AnswerInput is an answer document as submitted by a client.
type AnswerInput struct {
	ID          string `json:"id,omitempty" yaml:"id"`
	Order       *int   `json:"order,omitempty" yaml:"order"`
	Description string `json:"description" yaml:"description"`
	Correct     bool   `json:"correct" yaml:"correct"`
}

// NormalizeExam validates a new exam document. Slug, owner and creation time
// are assigned by the caller.
func NormalizeExam(in ExamInput) (Exam, error) {
	if in.Title == nil {
		return Exam{}, invalid("title", "not specified")
	}
	fields, err := NormalizeExamPatch(in)
	if err != nil {
		return Exam{}, err
	}

	e := Exam{Threshold: DefaultThreshold}
	applyExamFields(&e, fields)
	return e, nil
}

// NormalizeExamPatch validates a partial exam update and returns the
// provided fields keyed by their document names.
func NormalizeExamPatch(in ExamInput) (map[string]any, error) {
	fields := make(map[string]any)

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		if utf8.RuneCountInString(title) > TitleMaxLength {
			return nil, invalid("title", "exceeds %d characters", TitleMaxLength)
		}
		if Slugify(title) == "" {
			return nil, invalid("title", "must contain letters or digits")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		s, err := boundedString("description", *in.Description)
		if err != nil {
			return nil, err
		}
		fields["description"] = s
	}
	if in.ExplanationPrompt != nil {
		s, err := boundedString("explanationPrompt", *in.ExplanationPrompt)
		if err != nil {
			return nil, err
		}
		fields["explanationPrompt"] = s
	}
	if in.Private != nil {
		fields["private"] = *in.Private
	}
	if in.EnableAI != nil {
		fields["enableAI"] = *in.EnableAI
	}
	if in.Threshold != nil {
		fields["threshold"] = min(max(*in.Threshold, 0), 100)
	}

	return fields, nil
}

// ApplyPatch applies fields returned by NormalizeExamPatch to e.
func ApplyPatch(e *Exam, fields map[string]any) {
	applyExamFields(e, fields)
}

func applyExamFields(e *Exam, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "title":
			e.Title = v.(string)
		case "description":
			e.Description = v.(string)
		case "explanationPrompt":
			e.ExplanationPrompt = v.(string)
		case "private":
			e.Private = v.(bool)
		case "enableAI":
			e.EnableAI = v.(bool)
		case "threshold":
			e.Threshold = v.(int)
		}
	}
}

// NormalizeQuestion validates a question document. Every question must have
// at least two answers, at least one of them correct, and answer identifiers
// unique within the question. Missing answer identifiers are generated.
func NormalizeQuestion(in QuestionInput) (Question, error) {
	desc, err := boundedString("description", in.Description)
	if err != nil {
		return Question{}, err
	}
	if desc == "" {
		return Question{}, invalid("description", "must not be empty")
	}

	q := Question{Description: desc}
	if in.Order != nil {
		q.Order = *in.Order
	}
	if in.Explanation != nil {
		if q.Explanation, err = boundedString("explanation", *in.Explanation); err != nil {
			return Question{}, err
		}
	}
	q.Categories = normalizeCategories(in.Categories)

	if len(in.Answers) < 2 {
		return Question{}, invalid("answers", "at least two answers are required")
	}

	seen := make(map[string]bool, len(in.Answers))
	hasCorrect := false
	q.Answers = make([]Answer, 0, len(in.Answers))
	for i, ai := range in.Answers {
		field := fmt.Sprintf("answers[%d]", i)
		d, err := boundedString(field+".description", ai.Description)
		if err != nil {
			return Question{}, err
		}
		if d == "" {
			return Question{}, invalid(field+".description", "must not be empty")
		}

		a := Answer{ID: strings.TrimSpace(ai.ID), Order: i, Description: d, Correct: ai.Correct}
		if ai.Order != nil {
			a.Order = *ai.Order
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if seen[a.ID] {
			return Question{}, invalid(field+".id", "duplicate answer id %q", a.ID)
		}
		seen[a.ID] = true
		hasCorrect = hasCorrect || a.Correct
		q.Answers = append(q.Answers, a)
	}
	if !hasCorrect {
		return Question{}, invalid("answers", "at least one answer must be correct")
	}

	sortAnswers(q.Answers)
	return q, nil
}

// Sanitize normalizes a question read back from storage or received from a
// server: nil collections become empty and answers are put in order. It
// never rejects, so malformed legacy documents still load and score as
// unanswerable.
func Sanitize(q Question) Question {
	q.Categories = normalizeCategories(q.Categories)
	if q.Answers == nil {
		q.Answers = []Answer{}
	}
	sortAnswers(q.Answers)
	return q
}

func sortAnswers(answers []Answer) {
	slices.SortStableFunc(answers, func(a, b Answer) int { return a.Order - b.Order })
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func boundedString(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > StringMaxLength {
		return "", invalid(field, "exceeds %d characters", StringMaxLength)
	}
	return s, nil
}
