package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screen"
	"github.com/examtraining/examtraining/internal/training"
	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/ui/layout"
	"github.com/examtraining/examtraining/internal/ui/theme"
)

// maxListed bounds the incorrect answers listed below the score.
const maxListed = 8

// ResultsScreen shows the score of a finished session.
type ResultsScreen struct {
	exam    exam.Exam
	result  training.Result
	session *training.Session
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New scores the session held by t against the exam threshold.
func New(e exam.Exam, t *training.Tracker) *ResultsScreen {
	r, _ := t.Score(e.Threshold)
	return &ResultsScreen{exam: e, result: r, session: t.Session()}
}

// Result returns the computed score.
func (s *ResultsScreen) Result() training.Result {
	return s.result
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Train again"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "enter" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	cw := min(width-8, 80)
	total := len(s.result.Outcomes)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(fmt.Sprintf("%d%%", s.result.PercentageCorrect)))
	b.WriteString("\n\n")

	verdict := theme.Incorrect.Render(fmt.Sprintf("Not passed (pass mark %d%%)", s.exam.Threshold))
	if s.result.Passed {
		verdict = theme.Correct.Render("Passed!")
	}
	b.WriteString(lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(verdict))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(
		theme.Body.Render(fmt.Sprintf("%d of %d answered correctly", s.result.TotalCorrect, total))))
	b.WriteString("\n\n")

	listed := 0
	for _, o := range s.result.Outcomes {
		if o.Correct {
			continue
		}
		if listed == maxListed {
			b.WriteString(theme.Dimmed.Render(fmt.Sprintf("... and %d more", total-s.result.TotalCorrect-listed)) + "\n")
			break
		}
		listed++
		b.WriteString(s.renderMiss(o, cw))
	}

	return layout.Center(b.String(), width, height)
}

func (s *ResultsScreen) renderMiss(o training.Outcome, width int) string {
	q, ok := s.session.Question(o.QuestionID)
	if !ok {
		return ""
	}
	line := theme.Incorrect.Render("x ") + theme.Body.Render(q.Description)
	if a, ok := q.Answer(o.CorrectAnswer); ok {
		line += "\n  " + theme.Correct.Render(answerLabel(q, a.ID)+") "+a.Description)
	}
	return lipgloss.NewStyle().Width(width).Render(line) + "\n"
}

func answerLabel(q exam.Question, id string) string {
	for i, a := range q.Answers {
		if a.ID == id {
			return components.Label(i)
		}
	}
	return "?"
}
