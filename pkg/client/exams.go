package client

import (
	"context"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/exam"
)

// Codes are the credentials of an exam.
type Codes struct {
	Slug       string `json:"slug,omitempty"`
	AccessCode string `json:"accessCode"`
	EditCode   string `json:"editCode"`
}

// BulkResult reports the outcome of a bulk import.
type BulkResult struct {
	Count              int      `json:"count"`
	PossibleDuplicates []string `json:"possibleDuplicates"`
}

// CreateExam creates an exam and returns its slug. The codes are mailed to
// owner.
func (c *Client) CreateExam(ctx context.Context, in exam.ExamInput, owner string) (string, error) {
	var res struct {
		Slug string `json:"slug"`
	}
	if _, err := c.call(ctx, "createExam", map[string]any{"exam": in, "owner": owner}, &res); err != nil {
		return "", err
	}
	return res.Slug, nil
}

// CopyExam creates a new exam with the questions of slug.
func (c *Client) CopyExam(ctx context.Context, slug, editCode string, in exam.ExamInput, owner string) (*Codes, error) {
	var codes Codes
	_, err := c.call(ctx, "copyExam", map[string]any{
		"slug": slug, "editCode": editCode, "exam": in, "owner": owner,
	}, &codes)
	if err != nil {
		return nil, err
	}
	return &codes, nil
}

// GetExam retrieves an exam with its questions. It returns nil, nil when
// the exam does not exist. Either code may be empty.
func (c *Client) GetExam(ctx context.Context, slug, accessCode, editCode string) (*exam.WithQuestions, error) {
	var e exam.WithQuestions
	found, err := c.call(ctx, "getExam", map[string]any{
		"slug": slug, "accessCode": accessCode, "editCode": editCode,
	}, &e)
	if err != nil || !found {
		return nil, err
	}
	for i, q := range e.Questions {
		e.Questions[i] = exam.Sanitize(q)
	}
	return &e, nil
}

// EditExamDetails updates the provided fields of an exam.
func (c *Client) EditExamDetails(ctx context.Context, slug, editCode string, in exam.ExamInput) error {
	_, err := c.call(ctx, "editExamDetails", map[string]any{"slug": slug, "editCode": editCode, "data": in}, nil)
	return err
}

// ResetExam replaces both codes of an exam.
func (c *Client) ResetExam(ctx context.Context, slug, editCode string) (*Codes, error) {
	var codes Codes
	if _, err := c.call(ctx, "resetExam", map[string]any{"slug": slug, "editCode": editCode}, &codes); err != nil {
		return nil, err
	}
	codes.Slug = slug
	return &codes, nil
}

// DeleteExam removes an exam with its questions.
func (c *Client) DeleteExam(ctx context.Context, slug, editCode string) error {
	_, err := c.call(ctx, "deleteExam", map[string]any{"slug": slug, "editCode": editCode}, nil)
	return err
}

// IsSlugAvailable reports whether no exam uses slug.
func (c *Client) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	var ok bool
	_, err := c.call(ctx, "isSlugAvailable", map[string]any{"slug": slug}, &ok)
	return ok, err
}

// CreateQuestion adds a question and returns its id.
func (c *Client) CreateQuestion(ctx context.Context, slug, editCode string, in exam.QuestionInput) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	_, err := c.call(ctx, "createExamQuestion", map[string]any{"slug": slug, "editCode": editCode, "data": in}, &res)
	return res.ID, err
}

// EditQuestion replaces a question.
func (c *Client) EditQuestion(ctx context.Context, slug, editCode, questionID string, in exam.QuestionInput) error {
	_, err := c.call(ctx, "editExamQuestion", map[string]any{
		"slug": slug, "editCode": editCode, "questionId": questionID, "data": in,
	}, nil)
	return err
}

// RemoveQuestion deletes a question.
func (c *Client) RemoveQuestion(ctx context.Context, slug, editCode, questionID string) error {
	_, err := c.call(ctx, "removeExamQuestion", map[string]any{
		"slug": slug, "editCode": editCode, "questionId": questionID,
	}, nil)
	return err
}

// BulkAddQuestions imports questions pasted as plain text.
func (c *Client) BulkAddQuestions(ctx context.Context, slug, editCode, text string) (*BulkResult, error) {
	var res BulkResult
	if _, err := c.call(ctx, "bulkAddExamQuestions", map[string]any{
		"slug": slug, "editCode": editCode, "text": text,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExplainQuestion asks the server for an AI explanation of the correct
// answer. It returns "" when the exam or the question does not exist.
func (c *Client) ExplainQuestion(ctx context.Context, slug, accessCode, questionID string) (string, error) {
	var res struct {
		Explanation string `json:"explanation"`
	}
	_, err := c.call(ctx, "explainQuestion", map[string]any{
		"slug": slug, "accessCode": accessCode, "questionId": questionID,
	}, &res)
	return res.Explanation, err
}

// SuggestQuestion asks the server for an AI-written question. questionID
// and subject are optional.
func (c *Client) SuggestQuestion(ctx context.Context, slug, editCode, questionID, subject string) (*ai.Suggestion, error) {
	var res struct {
		Question *ai.Suggestion `json:"question"`
	}
	if _, err := c.call(ctx, "suggestExamQuestion", map[string]any{
		"slug": slug, "editCode": editCode, "questionId": questionID, "subject": subject,
	}, &res); err != nil {
		return nil, err
	}
	return res.Question, nil
}
