package results

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screens/screenstest"
	"github.com/examtraining/examtraining/internal/training"
)

func finishedTracker(t *testing.T, correct int) (exam.Exam, *training.Tracker) {
	t.Helper()
	env := screenstest.Env()
	e := exam.Exam{Slug: "capitals", Title: "Capitals", Threshold: 60}
	screenstest.AddExam(t, env, e,
		screenstest.Question("France?", "", "*Paris", "Lyon"),
		screenstest.Question("Spain?", "", "*Madrid", "Sevilla"),
		screenstest.Question("Peru?", "", "*Lima", "Cusco"),
	)

	ctx := context.Background()
	questions, _ := env.Exams.Questions(ctx, "capitals")
	tr, err := env.Sessions.NewTraining(ctx, "capitals", questions, training.Filters{QuestionCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		q, _ := tr.Current()
		for _, a := range q.Answers {
			if a.Correct == (i < correct) {
				if _, err := tr.RecordAnswer(ctx, q.ID, a.ID); err != nil {
					t.Fatal(err)
				}
				break
			}
		}
		if err := tr.Advance(ctx); err != nil {
			t.Fatal(err)
		}
	}
	return e, tr
}

func TestResultsScreen_Passed(t *testing.T) {
	e, tr := finishedTracker(t, 2)
	s := New(e, tr)

	r := s.Result()
	if r.TotalCorrect != 2 || r.PercentageCorrect != 67 || !r.Passed {
		t.Errorf("result = %+v", r)
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "67%") || !strings.Contains(view, "Passed!") {
		t.Errorf("view missing score or verdict:\n%s", view)
	}
}

func TestResultsScreen_FailedListsMisses(t *testing.T) {
	e, tr := finishedTracker(t, 0)
	s := New(e, tr)

	if s.Result().Passed {
		t.Fatal("expected a failed result")
	}
	view := s.View(120, 40)
	if !strings.Contains(view, "Not passed") {
		t.Error("expected the failed verdict")
	}
	for _, want := range []string{"Paris", "Madrid", "Lima"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing correct answer %q", want)
		}
	}
}

func TestResultsScreen_EnterPops(t *testing.T) {
	e, tr := finishedTracker(t, 3)
	s := New(e, tr)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
	if s.Title() != "Results" {
		t.Errorf("Title = %q", s.Title())
	}
}
