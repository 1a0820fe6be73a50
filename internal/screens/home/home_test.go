package home

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screens/screenstest"
	"github.com/examtraining/examtraining/internal/screens/setup"
	"github.com/examtraining/examtraining/internal/training"
)

func TestHomeScreen_Empty(t *testing.T) {
	h := New(screenstest.Env())
	next, _ := screenstest.Run(h, h.Init())
	if !strings.Contains(next.View(100, 30), "No exams yet") {
		t.Error("expected the empty state")
	}
}

func TestHomeScreen_RecentFirst(t *testing.T) {
	env := screenstest.Env()
	for _, e := range []exam.Exam{
		{Slug: "algebra", Title: "Algebra"},
		{Slug: "biology", Title: "Biology", Private: true},
		{Slug: "chemistry", Title: "Chemistry"},
	} {
		screenstest.AddExam(t, env, e)
	}
	ctx := context.Background()
	if err := env.Sessions.AddRecentExam(ctx, training.RecentExam{Slug: "chemistry", Visited: time.Now()}); err != nil {
		t.Fatal(err)
	}

	h := New(env)
	next, _ := screenstest.Run(h, h.Init())
	h = next.(*HomeScreen)

	want := []string{"chemistry", "algebra", "biology"}
	got := h.Exams()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Exams = %v, want %v", got, want)
	}
	if d := h.menu.Items[2].Detail; !strings.Contains(d, "private") {
		t.Errorf("biology detail = %q", d)
	}

	_, msgs := screenstest.Press(h, "j")
	if len(msgs) != 0 {
		t.Fatalf("navigation produced %v", msgs)
	}
	_, msgs = screenstest.Press(h, "enter")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	push, ok := msgs[0].(router.PushScreenMsg)
	if !ok {
		t.Fatalf("got %T", msgs[0])
	}
	if _, ok := push.Screen.(*setup.SetupScreen); !ok {
		t.Errorf("pushed %T", push.Screen)
	}
}

func TestHomeScreen_Quit(t *testing.T) {
	h := New(screenstest.Env())
	_, msgs := screenstest.Press(h, "q")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if _, ok := msgs[0].(tea.QuitMsg); !ok {
		t.Errorf("got %T, want QuitMsg", msgs[0])
	}
}
