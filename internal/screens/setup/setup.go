package setup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screen"
	"github.com/examtraining/examtraining/internal/screens"
	sessionscreen "github.com/examtraining/examtraining/internal/screens/session"
	"github.com/examtraining/examtraining/internal/training"
	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/ui/layout"
	"github.com/examtraining/examtraining/internal/ui/theme"
)

type loadedMsg struct {
	exam      *exam.Exam
	questions []exam.Question
	tracker   *training.Tracker
	prefs     training.Preferences
	err       error
}

type startedMsg struct {
	tracker *training.Tracker
	err     error
}

type correctResetMsg struct {
	err error
}

// SetupScreen lets the user choose the filters of a new session or resume
// the current one.
type SetupScreen struct {
	env  screens.Env
	slug string

	exam       *exam.Exam
	questions  []exam.Question
	tracker    *training.Tracker
	categories []string
	category   int

	count            components.TextInput
	includeIncorrect bool
	excludeCorrect   bool

	notice string
	errMsg string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates a SetupScreen for the exam with the given slug.
func New(env screens.Env, slug string) *SetupScreen {
	return &SetupScreen{
		env:   env,
		slug:  slug,
		count: components.NewTextInput("questions", true, 2),
	}
}

// Init (re)loads the exam and the training state, so returning from a
// session shows the fresh state.
func (s *SetupScreen) Init() tea.Cmd {
	return s.load()
}

func (s *SetupScreen) load() tea.Cmd {
	env, slug := s.env, s.slug
	return func() tea.Msg {
		ctx := context.Background()
		e, err := env.Exams.GetExam(ctx, slug)
		if err != nil {
			return loadedMsg{err: err}
		}
		questions, err := env.Exams.Questions(ctx, slug)
		if err != nil {
			return loadedMsg{err: err}
		}
		t, err := env.Sessions.Tracker(ctx, slug)
		if err != nil {
			return loadedMsg{err: err}
		}
		prefs, err := env.Sessions.Preferences(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{exam: e, questions: questions, tracker: t, prefs: prefs}
	}
}

func (s *SetupScreen) Title() string {
	if s.exam != nil {
		return s.exam.Title
	}
	return "Training"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "Tab", Description: "Category"},
		{Key: "i/x", Description: "Filters"},
		{Key: "c", Description: "Forget correct"},
	}
	if s.canResume() {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Resume"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *SetupScreen) canResume() bool {
	return s.tracker != nil && s.tracker.HasSession() && !s.tracker.IsFinished()
}

// Filters returns the filters the screen would start a session with.
func (s *SetupScreen) Filters() training.Filters {
	n, err := s.count.NumericValue()
	if err != nil || n <= 0 {
		n = training.DefaultQuestionsCount
	}
	f := training.Filters{
		QuestionCount:    n,
		IncludeIncorrect: s.includeIncorrect,
		ExcludeCorrect:   s.excludeCorrect,
	}
	if s.category > 0 {
		f.Category = s.categories[s.category]
	}
	return f
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.exam, s.questions, s.tracker = msg.exam, msg.questions, msg.tracker
		s.categories = append([]string{""}, exam.Categories(msg.questions)...)
		if s.category >= len(s.categories) {
			s.category = 0
		}
		if s.count.Value() == "" {
			s.count.SetValue(strconv.Itoa(msg.prefs.QuestionsCount))
		}
		return s, nil

	case startedMsg:
		if errors.Is(msg.err, training.ErrEmptyPool) {
			s.notice = "No questions match these filters."
			return s, nil
		}
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.notice = ""
		return s, s.push(msg.tracker)

	case correctResetMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		} else {
			s.notice = "Forgot the correctly answered questions."
		}
		return s, nil

	case tea.KeyMsg:
		if s.exam == nil {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			return s, s.start()
		case "tab":
			s.category = (s.category + 1) % len(s.categories)
			return s, nil
		case "i":
			s.includeIncorrect = !s.includeIncorrect
			return s, nil
		case "x":
			s.excludeCorrect = !s.excludeCorrect
			return s, nil
		case "c":
			return s, s.resetCorrect()
		case "r":
			if s.canResume() {
				return s, s.push(s.tracker)
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.count, cmd = s.count.Update(msg)
	return s, cmd
}

func (s *SetupScreen) push(t *training.Tracker) tea.Cmd {
	next := sessionscreen.New(s.env, *s.exam, t)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *SetupScreen) start() tea.Cmd {
	env, e, questions, f := s.env, *s.exam, s.questions, s.Filters()
	return func() tea.Msg {
		ctx := context.Background()
		if err := env.Sessions.SavePreferences(ctx, training.Preferences{QuestionsCount: f.QuestionCount}); err != nil {
			return startedMsg{err: err}
		}
		t, err := env.Sessions.NewTraining(ctx, e.Slug, questions, f)
		if err != nil {
			return startedMsg{err: err}
		}
		err = env.Sessions.AddRecentExam(ctx, training.RecentExam{Slug: e.Slug, Title: e.Title, Visited: time.Now().UTC()})
		return startedMsg{tracker: t, err: err}
	}
}

func (s *SetupScreen) resetCorrect() tea.Cmd {
	t := s.tracker
	return func() tea.Msg {
		return correctResetMsg{err: t.ResetAnsweredCorrectly(context.Background())}
	}
}

func (s *SetupScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Center(theme.Incorrect.Render("Error: "+s.errMsg), width, height)
	}
	if s.exam == nil {
		return layout.Center(theme.Dimmed.Render("Loading exam..."), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(s.exam.Title) + "\n")
	if s.exam.Description != "" {
		b.WriteString(theme.Subtitle.Width(min(width-8, 72)).Render(s.exam.Description) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(theme.Body.Render(fmt.Sprintf("%d questions, pass mark %d%%", len(s.questions), s.exam.Threshold)))
	b.WriteString("\n\n")

	maxCount := s.env.Sessions.Resolver().MaxCount(len(s.questions))
	b.WriteString(theme.Body.Render("Questions: ") + s.count.View() +
		theme.Hint.Render(fmt.Sprintf("  (1-%d)", max(maxCount, 1))) + "\n")

	category := "All categories"
	if s.category > 0 {
		category = s.categories[s.category]
	}
	b.WriteString(theme.Body.Render("Category:  ") + theme.Selected.Render(category) + "\n\n")

	b.WriteString(theme.Toggle("Include questions answered incorrectly last time (i)", s.includeIncorrect) + "\n")
	b.WriteString(theme.Toggle("Exclude questions ever answered correctly (x)", s.excludeCorrect) + "\n")

	if s.tracker != nil {
		known := len(s.tracker.AnsweredCorrectlyEver())
		b.WriteString("\n" + theme.Dimmed.Render(fmt.Sprintf("%d of %d questions answered correctly so far", known, len(s.questions))) + "\n")
	}
	if s.canResume() {
		pos, total := s.tracker.Position()
		b.WriteString(theme.Warning.Render(fmt.Sprintf("Session in progress: question %d of %d, press r to resume", pos, total)) + "\n")
	}
	if s.notice != "" {
		b.WriteString("\n" + theme.Warning.Render(s.notice) + "\n")
	}

	return layout.Center(theme.Card.Render(b.String()), width, height)
}
