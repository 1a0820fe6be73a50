// Package screenstest provides fixtures for testing screens against
// in-memory stores.
package screenstest

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/kv"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screen"
	"github.com/examtraining/examtraining/internal/screens"
	"github.com/examtraining/examtraining/internal/training"
)

// Env returns an environment over empty in-memory stores with a seeded
// resolver.
func Env() screens.Env {
	rng := rand.New(rand.NewPCG(1, 2))
	return screens.Env{
		Exams:    exam.NewRepository(docstore.NewMemory()),
		Sessions: training.NewSessionStore(kv.NewMemory(), training.NewResolver(training.WithRand(rng))),
	}
}

// Question builds a question. Answers prefixed with "*" are correct.
func Question(desc, category string, answers ...string) exam.Question {
	q := exam.Question{Description: desc, Categories: []string{}}
	if category != "" {
		q.Categories = []string{category}
	}
	for i, a := range answers {
		correct := strings.HasPrefix(a, "*")
		q.Answers = append(q.Answers, exam.Answer{
			ID:          desc + "/" + strings.TrimPrefix(a, "*"),
			Order:       i,
			Description: strings.TrimPrefix(a, "*"),
			Correct:     correct,
		})
	}
	return q
}

// AddExam stores e with the given questions.
func AddExam(t testing.TB, env screens.Env, e exam.Exam, questions ...exam.Question) {
	t.Helper()
	ctx := context.Background()
	if err := env.Exams.CreateExam(ctx, e, exam.Secrets{Owner: "owner@example.com"}); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	for i, q := range questions {
		q.Order = i + 1
		if _, err := env.Exams.PutQuestion(ctx, e.Slug, q); err != nil {
			t.Fatalf("PutQuestion: %v", err)
		}
	}
}

// Run executes cmd and feeds the produced messages back into s until no
// command is left. Navigation and quit messages are collected instead of
// delivered.
func Run(s screen.Screen, cmd tea.Cmd) (screen.Screen, []tea.Msg) {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case router.PushScreenMsg, router.PopScreenMsg, router.ReplaceScreenMsg, tea.QuitMsg:
			out = append(out, msg)
		default:
			var c tea.Cmd
			s, c = s.Update(msg)
			queue = append(queue, c)
		}
	}
	return s, out
}

// Press sends a key press to s and runs the resulting commands.
func Press(s screen.Screen, key string) (screen.Screen, []tea.Msg) {
	var msg tea.KeyPressMsg
	switch key {
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	case "tab":
		msg = tea.KeyPressMsg{Code: tea.KeyTab}
	case "backspace":
		msg = tea.KeyPressMsg{Code: tea.KeyBackspace}
	default:
		r := []rune(key)[0]
		msg = tea.KeyPressMsg{Code: r, Text: key}
	}
	s, cmd := s.Update(msg)
	return Run(s, cmd)
}
