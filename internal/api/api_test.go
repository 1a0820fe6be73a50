package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/config"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/kv"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/mail"
	"github.com/examtraining/examtraining/internal/training"
)

type testEnv struct {
	srv    *httptest.Server
	docs   *docstore.Memory
	outbox *mail.Outbox
	llm    *llm.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	docs := docstore.NewMemory()
	mock := llm.NewMockProvider()
	env := &testEnv{docs: docs, outbox: mail.NewOutbox(docs), llm: mock}

	s := NewServer(config.ServerConfig{PublicURL: "https://exams.example"}, Services{
		Docs:      docs,
		Sessions:  training.NewSessionStore(kv.NewMemory(), training.NewResolver(training.WithRand(rng))),
		Outbox:    env.outbox,
		Explainer: ai.NewExplainer(mock, ai.DefaultConfig()),
		Suggester: ai.NewSuggester(mock, ai.DefaultConfig()),
		Rand:      rng,
		Now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	env.srv = httptest.NewServer(s.Router())
	t.Cleanup(env.srv.Close)
	return env
}

type callResult struct {
	Status int
	Result json.RawMessage `json:"result"`
	Error  *FunctionError  `json:"error"`
}

func (e *testEnv) call(t *testing.T, name string, data any) callResult {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": data})
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+"/functions/"+name, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out callResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	out.Status = resp.StatusCode
	return out
}

func (e *testEnv) mustCall(t *testing.T, name string, data any, v any) {
	t.Helper()
	res := e.call(t, name, data)
	require.Nil(t, res.Error, "%s failed", name)
	require.Equal(t, http.StatusOK, res.Status)
	if v != nil {
		require.NoError(t, json.Unmarshal(res.Result, v))
	}
}

// createExam creates an exam through the API and returns its slug and
// the codes taken from the document store.
func (e *testEnv) createExam(t *testing.T, title string, private bool) (string, exam.Secrets) {
	t.Helper()
	var res createExamResult
	e.mustCall(t, "createExam", map[string]any{
		"exam":  map[string]any{"title": title, "private": private, "enableAI": true},
		"owner": "owner@example.com",
	}, &res)

	doc, err := e.docs.Get(context.Background(), exam.CollectionSecrets, res.Slug)
	require.NoError(t, err)
	var secrets exam.Secrets
	require.NoError(t, doc.Decode(&secrets))
	return res.Slug, secrets
}

func question(desc string, answers ...string) map[string]any {
	var as []map[string]any
	for i, a := range answers {
		as = append(as, map[string]any{"description": strings.TrimPrefix(a, "*"), "correct": strings.HasPrefix(a, "*"), "order": i})
	}
	return map[string]any{"description": desc, "answers": as, "categories": []string{"geo"}}
}

func TestCreateExam(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Géographie Europe", true)

	assert.Equal(t, "geographie-europe", slug)
	assert.Len(t, secrets.AccessCode, 4)
	assert.Len(t, secrets.EditCode, 16)
	assert.Equal(t, "owner@example.com", secrets.Owner)

	pending, err := env.outbox.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Exam created", pending[0].Message.Subject)
	assert.Contains(t, pending[0].Message.HTML, "https://exams.example/geographie-europe?accessCode="+secrets.AccessCode)

	res := env.call(t, "createExam", map[string]any{
		"exam": map[string]any{"title": "geographie europe"}, "owner": "x@example.com",
	})
	require.NotNil(t, res.Error)
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, CodeAlreadyExists, res.Error.Status)
}

func TestCreateExam_InvalidArguments(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		data any
	}{
		{"no title", map[string]any{"exam": map[string]any{}, "owner": "o@example.com"}},
		{"no owner", map[string]any{"exam": map[string]any{"title": "T"}}},
		{"title without letters", map[string]any{"exam": map[string]any{"title": "!!!"}, "owner": "o@example.com"}},
		{"malformed", map[string]any{"exam": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.call(t, "createExam", tt.data)
			require.NotNil(t, res.Error)
			assert.Equal(t, CodeInvalidArgument, res.Error.Status)
			assert.Equal(t, http.StatusBadRequest, res.Status)
		})
	}
}

func TestGetExam_Access(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Private", true)

	var id questionIDResult
	env.mustCall(t, "createExamQuestion", map[string]any{
		"slug": slug, "editCode": secrets.EditCode, "data": question("Capital of France?", "Lyon", "*Paris"),
	}, &id)

	tests := []struct {
		name   string
		params map[string]any
		status string
	}{
		{"no code", map[string]any{"slug": slug}, CodePermissionDenied},
		{"wrong access code", map[string]any{"slug": slug, "accessCode": "zzzz"}, CodePermissionDenied},
		{"access code", map[string]any{"slug": slug, "accessCode": secrets.AccessCode}, ""},
		{"edit code", map[string]any{"slug": slug, "editCode": secrets.EditCode}, ""},
		{"wrong edit code wins over access code", map[string]any{"slug": slug, "editCode": "bad", "accessCode": secrets.AccessCode}, CodePermissionDenied},
		{"no slug", map[string]any{}, CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.call(t, "getExam", tt.params)
			if tt.status != "" {
				require.NotNil(t, res.Error)
				assert.Equal(t, tt.status, res.Error.Status)
				return
			}
			require.Nil(t, res.Error)
			var got exam.WithQuestions
			require.NoError(t, json.Unmarshal(res.Result, &got))
			assert.Equal(t, "Private", got.Title)
			assert.Empty(t, got.Owner)
			require.Len(t, got.Questions, 1)
			assert.Equal(t, id.ID, got.Questions[0].ID)
			assert.Equal(t, "Paris", got.Questions[0].Answers[1].Description)
		})
	}

	res := env.call(t, "getExam", map[string]any{"slug": "missing"})
	require.Nil(t, res.Error)
	assert.Equal(t, "null", string(res.Result))
}

func TestQuestionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Lifecycle", false)
	edit := secrets.EditCode

	var first, second questionIDResult
	env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": edit, "data": question("Q1", "*a", "b")}, &first)
	env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": edit, "data": question("Q2", "a", "*b")}, &second)

	env.mustCall(t, "editExamQuestion", map[string]any{
		"slug": slug, "editCode": edit, "questionId": first.ID, "data": question("Q1 edited", "x", "y", "*z"),
	}, nil)

	var got exam.WithQuestions
	env.mustCall(t, "getExam", map[string]any{"slug": slug}, &got)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "Q1 edited", got.Questions[0].Description)
	assert.Len(t, got.Questions[0].Answers, 3)
	assert.Less(t, got.Questions[0].Order, got.Questions[1].Order)

	res := env.call(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": edit, "data": question("bad", "*only")})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidArgument, res.Error.Status)

	res = env.call(t, "editExamQuestion", map[string]any{"slug": slug, "editCode": edit, "questionId": "nope", "data": question("Q", "*a", "b")})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)

	res = env.call(t, "removeExamQuestion", map[string]any{"slug": slug, "editCode": "wrong", "questionId": second.ID})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodePermissionDenied, res.Error.Status)

	env.mustCall(t, "removeExamQuestion", map[string]any{"slug": slug, "editCode": edit, "questionId": second.ID}, nil)
	env.mustCall(t, "getExam", map[string]any{"slug": slug}, &got)
	assert.Len(t, got.Questions, 1)
}

func TestEditExamDetails(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Details", false)

	env.mustCall(t, "editExamDetails", map[string]any{
		"slug": slug, "editCode": secrets.EditCode,
		"data": map[string]any{"description": "  trimmed  ", "threshold": 150},
	}, nil)

	var got exam.WithQuestions
	env.mustCall(t, "getExam", map[string]any{"slug": slug}, &got)
	assert.Equal(t, "trimmed", got.Description)
	assert.Equal(t, 100, got.Threshold)
	assert.Equal(t, "Details", got.Title)

	res := env.call(t, "editExamDetails", map[string]any{"slug": slug, "data": map[string]any{}})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidArgument, res.Error.Status)

	res = env.call(t, "editExamDetails", map[string]any{"slug": "missing", "editCode": "x"})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)
}

func TestBulkAddExamQuestions(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Bulk", false)
	env.mustCall(t, "createExamQuestion", map[string]any{
		"slug": slug, "editCode": secrets.EditCode, "data": question("What is the capital of France?", "*Paris", "Lyon"),
	}, nil)

	var res bulkAddResult
	env.mustCall(t, "bulkAddExamQuestions", map[string]any{
		"slug": slug, "editCode": secrets.EditCode,
		"text": "1. What is the capital of France?\n* Paris\n- Lyon\n2. Pick the even number\n- 3\n* 4",
	}, &res)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"What is the capital of France?"}, res.PossibleDuplicates)

	var got exam.WithQuestions
	env.mustCall(t, "getExam", map[string]any{"slug": slug}, &got)
	require.Len(t, got.Questions, 3)
	assert.Equal(t, "Pick the even number", got.Questions[2].Description)

	bad := env.call(t, "bulkAddExamQuestions", map[string]any{"slug": slug, "editCode": secrets.EditCode, "text": "1. No answers"})
	require.NotNil(t, bad.Error)
	assert.Equal(t, CodeInvalidArgument, bad.Error.Status)
	assert.Contains(t, bad.Error.Message, "question 1")
}

func TestResetCopyDelete(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Original", false)
	env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "data": question("Q", "*a", "b")}, nil)

	var codes codesResult
	env.mustCall(t, "resetExam", map[string]any{"slug": slug, "editCode": secrets.EditCode}, &codes)
	assert.NotEqual(t, secrets.EditCode, codes.EditCode)

	res := env.call(t, "deleteExam", map[string]any{"slug": slug, "editCode": secrets.EditCode})
	require.NotNil(t, res.Error, "old edit code must stop working")
	assert.Equal(t, CodePermissionDenied, res.Error.Status)

	var copied codesResult
	env.mustCall(t, "copyExam", map[string]any{
		"slug": slug, "editCode": codes.EditCode,
		"exam": map[string]any{"title": "Copy"}, "owner": "new@example.com",
	}, &copied)
	assert.Equal(t, "copy", copied.Slug)

	var got exam.WithQuestions
	env.mustCall(t, "getExam", map[string]any{"slug": "copy", "editCode": copied.EditCode}, &got)
	assert.Len(t, got.Questions, 1)

	var available bool
	env.mustCall(t, "isSlugAvailable", map[string]any{"slug": slug}, &available)
	assert.False(t, available)

	env.mustCall(t, "deleteExam", map[string]any{"slug": slug, "editCode": codes.EditCode}, nil)
	env.mustCall(t, "isSlugAvailable", map[string]any{"slug": slug}, &available)
	assert.True(t, available)

	qs, err := env.docs.Query(context.Background(), docstore.Collection(exam.CollectionExams, slug, exam.CollectionQuestions), "")
	require.NoError(t, err)
	assert.Empty(t, qs)

	pending, err := env.outbox.Pending(context.Background())
	require.NoError(t, err)
	var subjects []string
	for _, p := range pending {
		subjects = append(subjects, p.Message.Subject)
	}
	assert.ElementsMatch(t, []string{"Exam created", "Exam codes reset", "Exam created"}, subjects)
}

func TestExplainQuestion(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Explain", true)
	var id questionIDResult
	env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "data": question("Capital?", "Lyon", "*Paris")}, &id)

	res := env.call(t, "explainQuestion", map[string]any{"slug": slug, "questionId": id.ID})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodePermissionDenied, res.Error.Status)

	env.llm.AddResponse(llm.MockResponse{Text: "Paris is the capital."})
	var out explainResult
	env.mustCall(t, "explainQuestion", map[string]any{"slug": slug, "accessCode": secrets.AccessCode, "questionId": id.ID}, &out)
	assert.Equal(t, "Paris is the capital.", out.Explanation)

	res = env.call(t, "explainQuestion", map[string]any{"slug": slug, "accessCode": secrets.AccessCode, "questionId": "missing"})
	require.Nil(t, res.Error)
	assert.Equal(t, "null", string(res.Result))

	env.mustCall(t, "editExamDetails", map[string]any{"slug": slug, "editCode": secrets.EditCode, "data": map[string]any{"enableAI": false}}, nil)
	res = env.call(t, "explainQuestion", map[string]any{"slug": slug, "accessCode": secrets.AccessCode, "questionId": id.ID})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeFailedPrecondition, res.Error.Status)
}

func TestSuggestExamQuestion(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Suggest", false)

	sug := ai.Suggestion{
		Description: "Capital of Spain?",
		Explanation: "Madrid.",
		Answers:     []ai.SuggestionAnswer{{Description: "Madrid", Correct: true}, {Description: "Seville"}},
		Categories:  []string{"geo"},
	}
	content, _ := json.Marshal(sug)
	env.llm.AddResponse(llm.MockResponse{Content: content})

	var out suggestResult
	env.mustCall(t, "suggestExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "subject": "Spain"}, &out)
	assert.Equal(t, "Capital of Spain?", out.Question.Description)

	res := env.call(t, "suggestExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "questionId": "missing"})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)

	env.llm.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	res = env.call(t, "suggestExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeUnavailable, res.Error.Status)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
}

func TestUnknownFunction(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "dropDatabase", nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (e *testEnv) train(t *testing.T, method, path, clientID string, body any) callResult {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+"/training/"+path, rd)
	require.NoError(t, err)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out callResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	out.Status = resp.StatusCode
	return out
}

func TestTrainingFlow(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Training", false)
	for i, q := range []map[string]any{
		question("Q1", "*a", "b"),
		question("Q2", "*a", "b"),
		question("Q3", "*a", "b"),
	} {
		q["order"] = i
		env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "data": q}, nil)
	}
	client := uuid.NewString()

	res := env.train(t, http.MethodPost, slug, "", nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidArgument, res.Error.Status)

	res = env.train(t, http.MethodGet, slug, client, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)

	res = env.train(t, http.MethodPost, slug, client, map[string]any{"questionCount": 2})
	require.Nil(t, res.Error)
	var view TrainingView
	require.NoError(t, json.Unmarshal(res.Result, &view))
	assert.Equal(t, 1, view.Position)
	assert.Equal(t, 2, view.Total)
	require.NotNil(t, view.Current)

	res = env.train(t, http.MethodGet, slug+"/result", client, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeFailedPrecondition, res.Error.Status)

	res = env.train(t, http.MethodPost, slug+"/answer", client, AnswerRequest{QuestionID: "nope", AnswerID: "x"})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidArgument, res.Error.Status)

	for i := 0; i < 2; i++ {
		q := view.Current
		correctID, _ := q.CorrectAnswerID()
		res = env.train(t, http.MethodPost, slug+"/answer", client, AnswerRequest{QuestionID: q.ID, AnswerID: correctID})
		require.Nil(t, res.Error)
		var ans AnswerResult
		require.NoError(t, json.Unmarshal(res.Result, &ans))
		assert.True(t, ans.Correct)

		res = env.train(t, http.MethodPost, slug+"/advance", client, nil)
		require.Nil(t, res.Error)
		require.NoError(t, json.Unmarshal(res.Result, &view))
	}
	assert.True(t, view.Finished)

	res = env.train(t, http.MethodGet, slug+"/result", client, nil)
	require.Nil(t, res.Error)
	var result training.Result
	require.NoError(t, json.Unmarshal(res.Result, &result))
	assert.Equal(t, 2, result.TotalCorrect)
	assert.Equal(t, 100, result.PercentageCorrect)
	assert.True(t, result.Passed)

	other := uuid.NewString()
	res = env.train(t, http.MethodGet, slug, other, nil)
	require.NotNil(t, res.Error, "sessions are isolated per client")

	res = env.train(t, http.MethodPost, slug, client, map[string]any{"questionCount": 3, "excludeCorrect": true})
	require.Nil(t, res.Error)
	require.NoError(t, json.Unmarshal(res.Result, &view))
	assert.Equal(t, 1, view.Total, "only the unanswered question remains")

	res = env.train(t, http.MethodDelete, slug+"/correct", client, nil)
	require.Nil(t, res.Error)
	res = env.train(t, http.MethodPost, slug, client, map[string]any{"excludeCorrect": true})
	require.Nil(t, res.Error)
	require.NoError(t, json.Unmarshal(res.Result, &view))
	assert.Equal(t, 3, view.Total, "remembered question count applies after the reset")

	res = env.train(t, http.MethodDelete, slug, client, nil)
	require.Nil(t, res.Error)
	res = env.train(t, http.MethodGet, slug, client, nil)
	require.NotNil(t, res.Error)
}

func TestTrainingEmptyPool(t *testing.T) {
	env := newTestEnv(t)
	slug, _ := env.createExam(t, "Empty", false)

	res := env.train(t, http.MethodPost, slug, uuid.NewString(), map[string]any{"questionCount": 5})
	require.Nil(t, res.Error)
	assert.JSONEq(t, `{"empty":true}`, string(res.Result))
}

func TestTrainingPrivateExam(t *testing.T) {
	env := newTestEnv(t)
	slug, secrets := env.createExam(t, "Secret", true)
	env.mustCall(t, "createExamQuestion", map[string]any{"slug": slug, "editCode": secrets.EditCode, "data": question("Q", "*a", "b")}, nil)
	client := uuid.NewString()

	res := env.train(t, http.MethodPost, slug, client, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodePermissionDenied, res.Error.Status)

	res = env.train(t, http.MethodPost, slug, client, map[string]any{"accessCode": secrets.AccessCode})
	require.Nil(t, res.Error)

	res = env.train(t, http.MethodPost, "missing", client, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeNotFound, res.Error.Status)
}
