package session

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screen"
	"github.com/examtraining/examtraining/internal/screens"
	"github.com/examtraining/examtraining/internal/screens/results"
	"github.com/examtraining/examtraining/internal/training"
	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/ui/layout"
)

// SessionScreen walks through the questions of a running session.
type SessionScreen struct {
	env     screens.Env
	exam    exam.Exam
	tracker *training.Tracker
	choice  components.MultiChoice

	explanations map[string]string
	explaining   bool
	errMsg       string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.StatusProvider = (*SessionScreen)(nil)

// New creates a SessionScreen over a started session.
func New(env screens.Env, e exam.Exam, t *training.Tracker) *SessionScreen {
	s := &SessionScreen{
		env:          env,
		exam:         e,
		tracker:      t,
		explanations: make(map[string]string),
	}
	s.refresh()
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	return nil
}

func (s *SessionScreen) Title() string {
	return s.exam.Title
}

// Status shows the position in the session.
func (s *SessionScreen) Status() string {
	pos, total := s.tracker.Position()
	return fmt.Sprintf("Question %d/%d", pos, total)
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	if s.answered() {
		hints = append(hints, layout.KeyHint{Key: "Enter/n", Description: "Next"})
		if s.canExplain() {
			hints = append(hints, layout.KeyHint{Key: "e", Description: "Explain"})
		}
	} else {
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Choose"},
			layout.KeyHint{Key: "Enter/1-9", Description: "Answer"},
			layout.KeyHint{Key: "n", Description: "Skip"},
		)
	}
	return append(hints,
		layout.KeyHint{Key: "b", Description: "Previous"},
		layout.KeyHint{Key: "Esc", Description: "Pause"},
	)
}

// refresh points the answer selector at the current question.
func (s *SessionScreen) refresh() {
	q, ok := s.tracker.Current()
	if !ok {
		return
	}
	chosen := ""
	if sess := s.tracker.Session(); sess != nil {
		chosen = sess.Answers[q.ID]
	}
	s.choice = components.NewMultiChoice(q, chosen)
	s.choice.Locked = chosen != ""
}

func (s *SessionScreen) answered() bool {
	return s.choice.Chosen != ""
}

func (s *SessionScreen) canExplain() bool {
	return s.exam.EnableAI && s.env.Explainer != nil
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case components.AnswerPickedMsg:
		if _, err := s.tracker.RecordAnswer(context.Background(), msg.QuestionID, msg.AnswerID); err != nil {
			s.errMsg = err.Error()
			s.choice.Chosen = ""
			return s, nil
		}
		s.choice.Locked = true
		return s, nil

	case explainedMsg:
		s.explaining = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.explanations[msg.QuestionID] = msg.Text
		return s, nil

	case tea.KeyMsg:
		s.errMsg = ""
		switch key := msg.String(); {
		case key == "n" || key == "right" || (key == "enter" && s.answered()):
			return s.advance()
		case key == "b" || key == "left":
			if err := s.tracker.Back(context.Background()); err != nil {
				s.errMsg = err.Error()
			}
			s.refresh()
			return s, nil
		case key == "e":
			return s, s.explain()
		}
	}

	var cmd tea.Cmd
	s.choice, cmd = s.choice.Update(msg)
	return s, cmd
}

func (s *SessionScreen) advance() (screen.Screen, tea.Cmd) {
	if err := s.tracker.Advance(context.Background()); err != nil {
		s.errMsg = err.Error()
		return s, nil
	}
	if s.tracker.IsFinished() {
		next := results.New(s.exam, s.tracker)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}
	s.refresh()
	return s, nil
}

func (s *SessionScreen) explain() tea.Cmd {
	q := s.choice.Question
	if !s.canExplain() || !s.answered() || s.explaining || s.explanations[q.ID] != "" {
		return nil
	}
	s.explaining = true
	explainer, e := s.env.Explainer, s.exam
	return func() tea.Msg {
		text, err := explainer.Explain(context.Background(), e, q)
		return explainedMsg{QuestionID: q.ID, Text: text, Err: err}
	}
}
