package session

import (
	"strings"

	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/ui/layout"
	"github.com/examtraining/examtraining/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	cw := min(width-8, 80)
	pos, total := s.tracker.Position()

	var b strings.Builder
	b.WriteString(components.NewProgressBar("Progress", pos, total, cw).View())
	b.WriteString("\n\n")

	q := s.choice.Question
	if len(q.Categories) > 0 {
		b.WriteString(theme.Hint.Render(strings.Join(q.Categories, ", ")) + "\n")
	}
	b.WriteString(s.choice.View(cw))

	if s.answered() {
		b.WriteString("\n")
		if s.choice.IsCorrect() {
			b.WriteString(theme.Correct.Render("Correct!"))
		} else {
			b.WriteString(theme.Incorrect.Render("Not quite."))
		}
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString("\n" + theme.Body.Width(cw).Render(q.Explanation) + "\n")
		}
		switch {
		case s.explanations[q.ID] != "":
			b.WriteString("\n" + theme.Subtitle.Width(cw).Render(s.explanations[q.ID]) + "\n")
		case s.explaining:
			b.WriteString("\n" + theme.Dimmed.Render("Asking for an explanation...") + "\n")
		}
	}

	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render("Error: "+s.errMsg) + "\n")
	}

	return layout.Center(b.String(), width, height)
}
