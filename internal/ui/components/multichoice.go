package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/ui/theme"
)

// MultiChoice lets the user pick one answer of a question. Once Chosen is
// set the correct answer and the chosen one are highlighted.
type MultiChoice struct {
	Question exam.Question
	Selected int

	// Chosen is the id of the picked answer, empty until the user picks one.
	Chosen string

	// Locked disables selection, for questions already answered.
	Locked bool
}

// NewMultiChoice creates a selector over q's answers. A previously recorded
// answer is shown as chosen.
func NewMultiChoice(q exam.Question, chosen string) MultiChoice {
	m := MultiChoice{Question: q, Chosen: chosen}
	for i, a := range q.Answers {
		if a.ID == chosen {
			m.Selected = i
		}
	}
	return m
}

// Label returns the letter shown in front of the i-th answer.
func Label(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}

// Update moves the cursor. Enter or a digit picks an answer and emits an
// AnswerPickedMsg.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || m.Locked {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, nil
	case "down", "j":
		if m.Selected < len(m.Question.Answers)-1 {
			m.Selected++
		}
		return m, nil
	case "enter":
		return m.pick(m.Selected)
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return m.pick(int(key[0] - '1'))
	}
	return m, nil
}

func (m MultiChoice) pick(i int) (MultiChoice, tea.Cmd) {
	if i < 0 || i >= len(m.Question.Answers) {
		return m, nil
	}
	m.Selected = i
	m.Chosen = m.Question.Answers[i].ID
	picked := AnswerPickedMsg{QuestionID: m.Question.ID, AnswerID: m.Chosen}
	return m, func() tea.Msg { return picked }
}

// AnswerPickedMsg reports the answer chosen in a MultiChoice.
type AnswerPickedMsg struct {
	QuestionID string
	AnswerID   string
}

// View renders the question and its answers.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true).
		Width(width).
		Render(m.Question.Description))
	b.WriteString("\n\n")

	answered := m.Chosen != ""
	for i, a := range m.Question.Answers {
		prefix := "  "
		if i == m.Selected && !answered {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, Label(i), a.Description)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case answered && a.Correct:
			style = theme.Correct
		case answered && a.ID == m.Chosen:
			style = theme.Incorrect
		case answered:
			style = theme.Dimmed
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Width(width).Render(line) + "\n")
	}
	return b.String()
}

// IsCorrect reports whether the chosen answer is flagged correct.
func (m MultiChoice) IsCorrect() bool {
	a, ok := m.Question.Answer(m.Chosen)
	return ok && a.Correct
}
