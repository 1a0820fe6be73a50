package exam

import (
	"errors"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Exam", "my-exam"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Ça va? Très bien!", "ca-va-tres-bien"},
		{"AWS: Solutions Architect", "aws-solutions-architect"},
		{"snake_case/and,more", "snake-case-and-more"},
		{"multiple   spaces -- dashes", "multiple-spaces-dashes"},
		{"Ünïcödé ñ", "unicode-n"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestNewSecrets(t *testing.T) {
	s, err := NewSecrets("owner@example.com")
	if err != nil {
		t.Fatalf("NewSecrets: %v", err)
	}
	if len(s.AccessCode) != 4 {
		t.Errorf("access code length = %d, want 4", len(s.AccessCode))
	}
	if len(s.EditCode) != 16 {
		t.Errorf("edit code length = %d, want 16", len(s.EditCode))
	}
	if !s.CheckEdit(s.EditCode) || !s.CheckAccess(s.AccessCode) {
		t.Error("codes should verify against themselves")
	}
	if s.CheckEdit("") || s.CheckAccess("") {
		t.Error("empty codes must never verify")
	}
	if s.CheckEdit(s.AccessCode) {
		t.Error("access code must not grant edit rights")
	}
}

func validQuestion() QuestionInput {
	return QuestionInput{
		Description: " What is 2+2? ",
		Categories:  []string{"math", " math ", "", "basics"},
		Answers: []AnswerInput{
			{Description: "3"},
			{Description: "4", Correct: true},
		},
	}
}

func TestNormalizeQuestion(t *testing.T) {
	q, err := NormalizeQuestion(validQuestion())
	if err != nil {
		t.Fatalf("NormalizeQuestion: %v", err)
	}
	if q.Description != "What is 2+2?" {
		t.Errorf("Description = %q", q.Description)
	}
	if strings.Join(q.Categories, ",") != "math,basics" {
		t.Errorf("Categories = %v, want [math basics]", q.Categories)
	}
	if len(q.Answers) != 2 || q.Answers[0].ID == "" || q.Answers[0].ID == q.Answers[1].ID {
		t.Errorf("answers should get distinct generated ids: %+v", q.Answers)
	}
	if id, ok := q.CorrectAnswerID(); !ok || id != q.Answers[1].ID {
		t.Errorf("CorrectAnswerID = %q, %v", id, ok)
	}
}

func TestNormalizeQuestion_SortsAnswersByOrder(t *testing.T) {
	in := validQuestion()
	in.Answers[0].Order = ptr(2)
	in.Answers[1].Order = ptr(1)

	q, err := NormalizeQuestion(in)
	if err != nil {
		t.Fatalf("NormalizeQuestion: %v", err)
	}
	if q.Answers[0].Description != "4" {
		t.Errorf("first answer = %q, want %q", q.Answers[0].Description, "4")
	}
}

func TestNormalizeQuestion_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestionInput)
		field  string
	}{
		{"empty description", func(q *QuestionInput) { q.Description = "  " }, "description"},
		{"single answer", func(q *QuestionInput) { q.Answers = q.Answers[:1] }, "answers"},
		{"no correct answer", func(q *QuestionInput) { q.Answers[1].Correct = false }, "answers"},
		{"empty answer", func(q *QuestionInput) { q.Answers[0].Description = "" }, "answers[0].description"},
		{"duplicate ids", func(q *QuestionInput) {
			q.Answers[0].ID = "a"
			q.Answers[1].ID = "a"
		}, "answers[1].id"},
		{"too long", func(q *QuestionInput) { q.Description = strings.Repeat("x", StringMaxLength+1) }, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validQuestion()
			tt.mutate(&in)
			_, err := NormalizeQuestion(in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestNormalizeExam(t *testing.T) {
	e, err := NormalizeExam(ExamInput{Title: ptr("  Go Basics ")})
	if err != nil {
		t.Fatalf("NormalizeExam: %v", err)
	}
	if e.Title != "Go Basics" || e.Threshold != DefaultThreshold {
		t.Errorf("got %+v", e)
	}

	if _, err := NormalizeExam(ExamInput{}); err == nil {
		t.Error("expected missing title to be rejected")
	}
	if _, err := NormalizeExam(ExamInput{Title: ptr(strings.Repeat("a", TitleMaxLength+1))}); err == nil {
		t.Error("expected long title to be rejected")
	}

	e, err = NormalizeExam(ExamInput{Title: ptr("x"), Threshold: ptr(150)})
	if err != nil {
		t.Fatalf("NormalizeExam: %v", err)
	}
	if e.Threshold != 100 {
		t.Errorf("Threshold = %d, want clamped 100", e.Threshold)
	}
}

func TestNormalizeExamPatch_OnlyProvidedFields(t *testing.T) {
	fields, err := NormalizeExamPatch(ExamInput{Private: ptr(true), Description: ptr(" d ")})
	if err != nil {
		t.Fatalf("NormalizeExamPatch: %v", err)
	}
	if len(fields) != 2 || fields["private"] != true || fields["description"] != "d" {
		t.Errorf("fields = %v", fields)
	}

	e := Exam{Title: "keep"}
	ApplyPatch(&e, fields)
	if !e.Private || e.Description != "d" || e.Title != "keep" {
		t.Errorf("ApplyPatch result = %+v", e)
	}
}

func TestSanitize(t *testing.T) {
	q := Sanitize(Question{
		ID:      "q",
		Answers: []Answer{{ID: "b", Order: 2}, {ID: "a", Order: 1}},
	})
	if q.Categories == nil {
		t.Error("Categories should be non-nil")
	}
	if q.Answers[0].ID != "a" {
		t.Errorf("answers not sorted: %+v", q.Answers)
	}
	if _, ok := Sanitize(Question{}).CorrectAnswerID(); ok {
		t.Error("question without answers has no correct answer")
	}
}

func TestParseBulk(t *testing.T) {
	text := `
1. What is the capital of France?
It is in Europe.
a. Berlin
* Paris
which is big
- Madrid

2: Pick the even number
• 3
*) 4
`
	qs := ParseBulk(text, 10)
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}

	q := qs[0]
	if *q.Order != 10 {
		t.Errorf("order = %d, want 10", *q.Order)
	}
	if q.Description != "What is the capital of France?\nIt is in Europe." {
		t.Errorf("description = %q", q.Description)
	}
	if len(q.Answers) != 3 {
		t.Fatalf("got %d answers, want 3", len(q.Answers))
	}
	if q.Answers[1].Description != "Paris which is big" || !q.Answers[1].Correct {
		t.Errorf("answer 2 = %+v", q.Answers[1])
	}
	if q.Answers[0].Correct || q.Answers[2].Correct {
		t.Error("only the starred answer is correct")
	}

	if *qs[1].Order != 11 {
		t.Errorf("second order = %d, want 11", *qs[1].Order)
	}
	if len(qs[1].Answers) != 1 {
		t.Errorf("\"*) 4\" is not an answer line, got %d answers", len(qs[1].Answers))
	}

	if _, err := NormalizeQuestion(qs[0]); err != nil {
		t.Errorf("parsed question should normalize: %v", err)
	}
}

func TestParseBulk_IgnoresLinesBeforeFirstQuestion(t *testing.T) {
	qs := ParseBulk("a. orphan\nnoise\n1. Q\n* A\n- B", 1)
	if len(qs) != 1 || len(qs[0].Answers) != 2 {
		t.Fatalf("got %+v", qs)
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Hello world", "hello world"); got != 1 {
		t.Errorf("identical strings = %v, want 1", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings = %v, want 0", got)
	}
	if got := Similarity("a", "a"); got != 0 {
		t.Errorf("strings shorter than a bigram = %v, want 0", got)
	}
	got := MostSimilar("What is the capital of France?", []Question{
		{Description: "Who wrote Hamlet?"},
		{Description: "What is the capital of France"},
	})
	if got <= SimilarityThreshold {
		t.Errorf("MostSimilar = %v, want > %v", got, SimilarityThreshold)
	}
}

func TestParseFile(t *testing.T) {
	data := []byte(`
title: Geography
description: Capitals of the world
private: true
threshold: 80
owner: author@example.com
questions:
  - description: Capital of Italy?
    categories: [europe]
    answers:
      - description: Rome
        correct: true
      - description: Milan
bulk: |
  1. Capital of Spain?
  * Madrid
  - Lisbon
`)
	f, err := ParseFile(data)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if *f.Title != "Geography" || !*f.Private || *f.Threshold != 80 || f.Owner != "author@example.com" {
		t.Errorf("header = %+v", f)
	}
	if len(f.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(f.Questions))
	}
	if *f.Questions[0].Order != 1 || *f.Questions[1].Order != 2 {
		t.Errorf("orders = %d, %d", *f.Questions[0].Order, *f.Questions[1].Order)
	}

	if _, err := ParseFile([]byte("description: no title")); err == nil {
		t.Error("expected missing title to fail")
	}
}
