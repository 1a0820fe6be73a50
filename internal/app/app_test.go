package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/screens/screenstest"
)

func TestNewAppModel_Slug(t *testing.T) {
	env := screenstest.Env()
	screenstest.AddExam(t, env, exam.Exam{Slug: "capitals", Title: "Capitals"},
		screenstest.Question("France?", "", "*Paris", "Lyon"))

	m := newAppModel(Options{Env: env})
	if m.router.Depth() != 1 || m.router.Active().Title() != "Exams" {
		t.Errorf("without slug: depth %d, title %q", m.router.Depth(), m.router.Active().Title())
	}

	m = newAppModel(Options{Env: env, Slug: "capitals"})
	if m.router.Depth() != 2 {
		t.Fatalf("with slug: depth %d, want 2", m.router.Depth())
	}
}

func TestAppModel_EscAndQuit(t *testing.T) {
	env := screenstest.Env()
	m := newAppModel(Options{Env: env, Slug: "capitals"})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc above the root should pop")
	}
	next, _ := m.Update(cmd())
	if next.(AppModel).router.Depth() != 1 {
		t.Error("expected the setup screen to be popped")
	}

	_, cmd = m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("got %T, want QuitMsg", cmd())
	}
}

func TestAppModel_View(t *testing.T) {
	m := newAppModel(Options{Env: screenstest.Env()})
	if m.View().Content != "" {
		t.Error("expected an empty view before the first window size")
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(next.View().Content, "too small") {
		t.Error("expected the minimum size message")
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := next.View().Content
	for _, want := range []string{"examtraining", "Exams", "Ctrl+C"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
