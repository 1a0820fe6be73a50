package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/api"
	"github.com/examtraining/examtraining/internal/config"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/kv"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/mail"
	"github.com/examtraining/examtraining/internal/training"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	client *Client
	docs   *docstore.Memory
	llm    *llm.MockProvider
	url    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rng := rand.New(rand.NewPCG(3, 5))
	docs := docstore.NewMemory()
	mock := llm.NewMockProvider()

	srv := api.NewServer(config.ServerConfig{}, api.Services{
		Docs:      docs,
		Sessions:  training.NewSessionStore(kv.NewMemory(), training.NewResolver(training.WithRand(rng))),
		Outbox:    mail.NewOutbox(docs),
		Explainer: ai.NewExplainer(mock, ai.DefaultConfig()),
		Suggester: ai.NewSuggester(mock, ai.DefaultConfig()),
		Rand:      rng,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &fixture{client: NewClient(ts.URL + "/"), docs: docs, llm: mock, url: ts.URL}
}

func (f *fixture) secrets(t *testing.T, slug string) exam.Secrets {
	t.Helper()
	s, err := exam.NewRepository(f.docs).Secrets(context.Background(), slug)
	require.NoError(t, err)
	return *s
}

func twoAnswers(desc, correct, wrong string) exam.QuestionInput {
	return exam.QuestionInput{
		Description: desc,
		Categories:  []string{"basics"},
		Answers: []exam.AnswerInput{
			{Description: correct, Correct: true},
			{Description: wrong},
		},
	}
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("http://example.com/", WithHTTPClient(hc), WithTimeout(5*time.Second), WithClientID("abc"))

	assert.Equal(t, "http://example.com", c.baseURL)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 5*time.Second, hc.Timeout)
	assert.Equal(t, "abc", c.ClientID())

	other := NewClient("http://example.com")
	assert.NotEqual(t, other.ClientID(), NewClient("http://example.com").ClientID())
}

func TestClient_ExamLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client

	require.NoError(t, c.Health(ctx))

	slug, err := c.CreateExam(ctx, exam.ExamInput{Title: ptr("Go Basics"), Private: ptr(true)}, "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "go-basics", slug)
	sec := f.secrets(t, slug)

	_, err = c.GetExam(ctx, slug, "", "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, api.CodePermissionDenied))

	missing, err := c.GetExam(ctx, "nope", "", "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := c.CreateQuestion(ctx, slug, sec.EditCode, twoAnswers("Zero value of int?", "0", "nil"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, c.EditQuestion(ctx, slug, sec.EditCode, id, twoAnswers("Zero value of an int?", "0", "nil")))
	require.NoError(t, c.EditExamDetails(ctx, slug, sec.EditCode, exam.ExamInput{Description: ptr("Intro")}))

	e, err := c.GetExam(ctx, slug, sec.AccessCode, "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Intro", e.Description)
	require.Len(t, e.Questions, 1)
	assert.Equal(t, "Zero value of an int?", e.Questions[0].Description)

	bulk, err := c.BulkAddQuestions(ctx, slug, sec.EditCode, "1. Keyword for a goroutine?\n* go\n- async")
	require.NoError(t, err)
	assert.Equal(t, 1, bulk.Count)
	assert.Empty(t, bulk.PossibleDuplicates)

	codes, err := c.ResetExam(ctx, slug, sec.EditCode)
	require.NoError(t, err)
	assert.Equal(t, slug, codes.Slug)
	assert.NotEqual(t, sec.EditCode, codes.EditCode)

	copied, err := c.CopyExam(ctx, slug, codes.EditCode, exam.ExamInput{Title: ptr("Go Basics 2")}, "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-2", copied.Slug)

	require.NoError(t, c.RemoveQuestion(ctx, slug, codes.EditCode, id))
	require.NoError(t, c.DeleteExam(ctx, slug, codes.EditCode))

	ok, err := c.IsSlugAvailable(ctx, slug)
	require.NoError(t, err)
	assert.True(t, ok)

	err = c.DeleteExam(ctx, slug, codes.EditCode)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.Equal(t, api.CodeNotFound, apiErr.Status)
}

func TestClient_AI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client

	slug, err := c.CreateExam(ctx, exam.ExamInput{Title: ptr("AI"), EnableAI: ptr(true)}, "me@example.com")
	require.NoError(t, err)
	sec := f.secrets(t, slug)
	id, err := c.CreateQuestion(ctx, slug, sec.EditCode, twoAnswers("2+2?", "4", "5"))
	require.NoError(t, err)

	f.llm.AddResponse(llm.MockResponse{Text: "Because 2+2=4."})
	text, err := c.ExplainQuestion(ctx, slug, "", id)
	require.NoError(t, err)
	assert.Equal(t, "Because 2+2=4.", text)

	text, err = c.ExplainQuestion(ctx, "missing", "", id)
	require.NoError(t, err)
	assert.Empty(t, text)

	content, err := json.Marshal(ai.Suggestion{
		Description: "3+3?",
		Explanation: "Addition.",
		Answers:     []ai.SuggestionAnswer{{Description: "6", Correct: true}, {Description: "7"}},
		Categories:  []string{},
	})
	require.NoError(t, err)
	f.llm.AddResponse(llm.MockResponse{Content: content})

	sug, err := c.SuggestQuestion(ctx, slug, sec.EditCode, id, "")
	require.NoError(t, err)
	require.NotNil(t, sug)
	assert.Equal(t, "3+3?", sug.Description)
	assert.Len(t, sug.Answers, 2)
}

func TestClient_Training(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client

	slug, err := c.CreateExam(ctx, exam.ExamInput{Title: ptr("Trainable")}, "me@example.com")
	require.NoError(t, err)

	_, err = c.StartTraining(ctx, slug, api.StartTrainingRequest{})
	assert.ErrorIs(t, err, ErrEmptyPool)

	sec := f.secrets(t, slug)
	for _, q := range []exam.QuestionInput{
		twoAnswers("A?", "a", "b"),
		twoAnswers("B?", "b", "a"),
	} {
		_, err := c.CreateQuestion(ctx, slug, sec.EditCode, q)
		require.NoError(t, err)
	}

	view, err := c.StartTraining(ctx, slug, api.StartTrainingRequest{Filters: training.Filters{QuestionCount: 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)

	first := view.Current
	require.NotNil(t, first)
	correctID, _ := first.CorrectAnswerID()
	res, err := c.Answer(ctx, slug, first.ID, correctID)
	require.NoError(t, err)
	assert.True(t, res.Correct)

	view, err = c.Advance(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Position)

	view, err = c.Back(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Position)

	_, err = c.Result(ctx, slug)
	assert.True(t, IsStatus(err, api.CodeFailedPrecondition))

	_, err = c.Advance(ctx, slug)
	require.NoError(t, err)
	view, err = c.Advance(ctx, slug)
	require.NoError(t, err)
	assert.True(t, view.Finished)

	result, err := c.Result(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCorrect)
	assert.Equal(t, 50, result.PercentageCorrect)
	assert.False(t, result.Passed)

	again, err := c.Training(ctx, slug)
	require.NoError(t, err)
	assert.True(t, again.Finished)

	other := NewClient(f.url, WithClientID(c.ClientID()))
	shared, err := other.Training(ctx, slug)
	require.NoError(t, err, "same client id sees the same session")
	assert.Equal(t, 2, shared.Total)

	require.NoError(t, c.ResetAnsweredCorrectly(ctx, slug))
	require.NoError(t, c.ResetTraining(ctx, slug))
	_, err = c.Training(ctx, slug)
	assert.True(t, IsStatus(err, api.CodeNotFound))
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateExam(context.Background(), exam.ExamInput{Title: ptr("x")}, "o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.False(t, IsStatus(err, api.CodeInternal))
}
