package ai

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
)

func capitalQuestion() exam.Question {
	return exam.Question{
		ID:          "q1",
		Description: "What is the capital of France?",
		Categories:  []string{"geography"},
		Answers: []exam.Answer{
			{ID: "a", Description: "Lyon"},
			{ID: "b", Description: "Paris", Correct: true},
			{ID: "c", Description: "Nice"},
		},
	}
}

func TestExplain(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "  Paris has been the capital since 508.\n"})
	x := NewExplainer(mock, DefaultConfig())

	got, err := x.Explain(context.Background(), exam.Exam{Slug: "geo"}, capitalQuestion())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Paris has been the capital since 508." {
		t.Fatalf("explanation = %q", got)
	}

	req := mock.Calls[0]
	want := `Explain why "Paris" is the correct answer instead of "Lyon" or "Nice" to the question "What is the capital of France?". Explain in the language of the question.`
	if req.Messages[0].Content != want {
		t.Fatalf("prompt =\n%s\nwant\n%s", req.Messages[0].Content, want)
	}
	if req.System != DefaultExplanationPrompt {
		t.Fatalf("system = %q", req.System)
	}
	if req.Temperature != 0.1 || req.TopP != 0.1 || req.MaxTokens != 512 || req.Schema != nil {
		t.Fatalf("request params = %+v", req)
	}
}

func TestExplain_ExamPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "Weil."})
	x := NewExplainer(mock, DefaultConfig())

	e := exam.Exam{ExplanationPrompt: "Antworte auf Deutsch."}
	if _, err := x.Explain(context.Background(), e, capitalQuestion()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls[0].System != "Antworte auf Deutsch." {
		t.Fatalf("system = %q", mock.Calls[0].System)
	}
}

func TestExplain_Errors(t *testing.T) {
	q := capitalQuestion()
	q.Answers[1].Correct = false

	mock := llm.NewMockProvider()
	x := NewExplainer(mock, DefaultConfig())
	if _, err := x.Explain(context.Background(), exam.Exam{}, q); !errors.Is(err, ErrNoCorrectAnswer) {
		t.Fatalf("expected ErrNoCorrectAnswer, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatal("provider must not be called without a correct answer")
	}

	mock.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
	_, err := x.Explain(context.Background(), exam.Exam{}, capitalQuestion())
	var rl *llm.ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected wrapped ErrRateLimit, got %v", err)
	}

	mock.AddResponse(llm.MockResponse{Text: "   "})
	_, err = x.Explain(context.Background(), exam.Exam{}, capitalQuestion())
	var inv *llm.ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func suggestionJSON(s Suggestion) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

func validSuggestion() Suggestion {
	return Suggestion{
		Description: "What is the capital of Italy?",
		Explanation: "Rome became the capital in 1871.",
		Answers: []SuggestionAnswer{
			{Description: "Milan"},
			{Description: "Rome", Correct: true},
		},
		Categories: []string{"geography"},
	}
}

func TestSuggest(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: suggestionJSON(validSuggestion())})
	s := NewSuggester(mock, DefaultConfig())

	e := exam.Exam{Slug: "geo", Title: "Geography"}
	got, err := s.Suggest(context.Background(), e, []exam.Question{capitalQuestion()}, "Europe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "What is the capital of Italy?" || len(got.Answers) != 2 {
		t.Fatalf("suggestion = %+v", got)
	}

	req := mock.Calls[0]
	if req.Schema != QuestionSchema || req.Temperature != 0.3 {
		t.Fatalf("request = %+v", req)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{
		"Exam title: Geography",
		"Exam description: No description",
		`"description": "What is the capital of France?"`,
		"Subject: Europe",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, `"id"`) {
		t.Error("example questions must not leak identifiers")
	}
}

func TestSuggest_NoExamples(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: suggestionJSON(validSuggestion())})
	s := NewSuggester(mock, DefaultConfig())

	if _, err := s.Suggest(context.Background(), exam.Exam{Title: "Empty", Description: "Nothing yet"}, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "No example questions") || strings.Contains(prompt, "Subject:") {
		t.Fatalf("prompt =\n%s", prompt)
	}
}

func TestSuggest_RetriesWithFeedback(t *testing.T) {
	bad := validSuggestion()
	bad.Answers[1].Correct = false

	mock := llm.NewMockProvider(
		llm.MockResponse{Content: suggestionJSON(bad)},
		llm.MockResponse{Content: suggestionJSON(validSuggestion())},
	)
	s := NewSuggester(mock, DefaultConfig())

	got, err := s.Suggest(context.Background(), exam.Exam{Title: "Geography"}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Answers[1].Description != "Rome" {
		t.Fatalf("suggestion = %+v", got)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", mock.CallCount())
	}
	retry := mock.Calls[1].Messages[0].Content
	if !strings.Contains(retry, "no answer is marked correct") {
		t.Fatalf("retry prompt does not carry the rejection:\n%s", retry)
	}
}

func TestSuggest_GivesUp(t *testing.T) {
	bad := validSuggestion()
	bad.Answers = bad.Answers[:1]

	mock := llm.NewMockProvider(
		llm.MockResponse{Content: suggestionJSON(bad)},
		llm.MockResponse{Content: suggestionJSON(bad)},
		llm.MockResponse{Content: suggestionJSON(validSuggestion())},
	)
	s := NewSuggester(mock, DefaultConfig())

	_, err := s.Suggest(context.Background(), exam.Exam{}, nil, "")
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("calls = %d, want MaxAttempts", mock.CallCount())
	}
}

func TestSuggest_SchemaMismatch(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"description":"x"}`)})
	s := NewSuggester(mock, DefaultConfig())

	_, err := s.Suggest(context.Background(), exam.Exam{}, nil, "")
	var inv *llm.ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T: %v", err, err)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Suggestion)
		want   string
	}{
		{"valid", func(*Suggestion) {}, ""},
		{"empty description", func(s *Suggestion) { s.Description = " " }, "structural"},
		{"empty answer", func(s *Suggestion) { s.Answers[0].Description = "" }, "structural"},
		{"empty category", func(s *Suggestion) { s.Categories = []string{""} }, "structural"},
		{"one answer", func(s *Suggestion) { s.Answers = s.Answers[1:] }, "answers"},
		{"no correct", func(s *Suggestion) { s.Answers[1].Correct = false }, "answers"},
		{"duplicate answers", func(s *Suggestion) { s.Answers[0].Description = "rome" }, "answers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSuggestion()
			tt.mutate(&s)
			var got string
			for _, v := range DefaultConfig().Validators {
				if verr := v.Validate(&s); verr != nil {
					got = verr.Validator
					break
				}
			}
			if got != tt.want {
				t.Fatalf("failed validator = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExamples(t *testing.T) {
	var questions []exam.Question
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		questions = append(questions, exam.Question{ID: id})
	}
	s := NewSuggester(llm.NewMockProvider(), DefaultConfig())
	r := rand.New(rand.NewPCG(1, 2))

	got := s.Examples(r, questions, "")
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	seen := map[string]bool{}
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("duplicate example %s", q.ID)
		}
		seen[q.ID] = true
	}

	if got := s.Examples(r, questions, "c"); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("by id = %+v", got)
	}
	if got := s.Examples(r, questions, "zz"); len(got) != 0 {
		t.Fatalf("unknown id = %+v", got)
	}
	if questions[0].ID != "a" {
		t.Fatal("Examples must not reorder the caller's slice")
	}
}

func TestSuggestionInput(t *testing.T) {
	sug := validSuggestion()
	q, err := exam.NormalizeQuestion(sug.Input())
	if err != nil {
		t.Fatalf("NormalizeQuestion: %v", err)
	}
	if len(q.Answers) != 2 || !q.Answers[1].Correct || q.Explanation == "" {
		t.Fatalf("question = %+v", q)
	}
}
