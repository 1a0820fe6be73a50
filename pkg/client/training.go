package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/examtraining/examtraining/internal/api"
	"github.com/examtraining/examtraining/internal/training"
)

func jsonBody(v any) (io.Reader, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(body), nil
}

// StartTraining starts a server-hosted session for the exam. It returns
// ErrEmptyPool when no question passes the filters.
func (c *Client) StartTraining(ctx context.Context, slug string, req api.StartTrainingRequest) (*api.TrainingView, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, c.trainingPath(slug, ""), body, &raw); err != nil {
		return nil, err
	}
	if isEmptyPool(raw) {
		return nil, ErrEmptyPool
	}
	var view api.TrainingView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &view, nil
}

// Training returns the current session of the exam.
func (c *Client) Training(ctx context.Context, slug string) (*api.TrainingView, error) {
	var view api.TrainingView
	if _, err := c.do(ctx, http.MethodGet, c.trainingPath(slug, ""), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Answer records the chosen answer of a session question.
func (c *Client) Answer(ctx context.Context, slug, questionID, answerID string) (*api.AnswerResult, error) {
	body, err := jsonBody(api.AnswerRequest{QuestionID: questionID, AnswerID: answerID})
	if err != nil {
		return nil, err
	}
	var res api.AnswerResult
	if _, err := c.do(ctx, http.MethodPost, c.trainingPath(slug, "/answer"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Advance moves to the next question.
func (c *Client) Advance(ctx context.Context, slug string) (*api.TrainingView, error) {
	return c.move(ctx, slug, "/advance")
}

// Back moves to the previous question.
func (c *Client) Back(ctx context.Context, slug string) (*api.TrainingView, error) {
	return c.move(ctx, slug, "/back")
}

func (c *Client) move(ctx context.Context, slug, suffix string) (*api.TrainingView, error) {
	var view api.TrainingView
	if _, err := c.do(ctx, http.MethodPost, c.trainingPath(slug, suffix), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Result scores the finished session.
func (c *Client) Result(ctx context.Context, slug string) (*training.Result, error) {
	var res training.Result
	if _, err := c.do(ctx, http.MethodGet, c.trainingPath(slug, "/result"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ResetTraining discards the session of the exam.
func (c *Client) ResetTraining(ctx context.Context, slug string) error {
	_, err := c.do(ctx, http.MethodDelete, c.trainingPath(slug, ""), nil, nil)
	return err
}

// ResetAnsweredCorrectly forgets which questions were answered correctly.
func (c *Client) ResetAnsweredCorrectly(ctx context.Context, slug string) error {
	_, err := c.do(ctx, http.MethodDelete, c.trainingPath(slug, "/correct"), nil, nil)
	return err
}
