package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/router"
	"github.com/examtraining/examtraining/internal/screen"
	"github.com/examtraining/examtraining/internal/screens"
	"github.com/examtraining/examtraining/internal/screens/setup"
	"github.com/examtraining/examtraining/internal/training"
	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/ui/layout"
	"github.com/examtraining/examtraining/internal/ui/theme"
)

type examsLoadedMsg struct {
	exams  []exam.Exam
	recent []training.RecentExam
	err    error
}

// HomeScreen lists the exams of the local database, recently trained ones
// first.
type HomeScreen struct {
	env    screens.Env
	menu   components.Menu
	loaded bool
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(env screens.Env) *HomeScreen {
	return &HomeScreen{env: env}
}

func (h *HomeScreen) Init() tea.Cmd {
	env := h.env
	return func() tea.Msg {
		ctx := context.Background()
		exams, err := env.Exams.Exams(ctx)
		if err != nil {
			return examsLoadedMsg{err: err}
		}
		recent, err := env.Sessions.RecentExams(ctx)
		return examsLoadedMsg{exams: exams, recent: recent, err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Exams"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Train"},
		{Key: "q", Description: "Quit"},
	}
}

// Exams returns the slugs in menu order.
func (h *HomeScreen) Exams() []string {
	slugs := make([]string, 0, len(h.menu.Items))
	for _, item := range h.menu.Items {
		slugs = append(slugs, item.Label)
	}
	return slugs
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case examsLoadedMsg:
		h.loaded = true
		if msg.err != nil {
			h.errMsg = msg.err.Error()
			return h, nil
		}
		h.menu = components.NewMenu(h.items(orderByRecent(msg.exams, msg.recent), msg.recent))
		return h, nil

	case tea.KeyMsg:
		if msg.String() == "q" {
			return h, tea.Quit
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) items(exams []exam.Exam, recent []training.RecentExam) []components.MenuItem {
	visited := make(map[string]bool, len(recent))
	for _, r := range recent {
		visited[r.Slug] = true
	}

	items := make([]components.MenuItem, 0, len(exams))
	for _, e := range exams {
		var details []string
		if e.Title != e.Slug {
			details = append(details, e.Title)
		}
		if e.Private {
			details = append(details, "private")
		}
		if visited[e.Slug] {
			details = append(details, "recent")
		}
		env, slug := h.env, e.Slug
		items = append(items, components.MenuItem{
			Label:  slug,
			Detail: strings.Join(details, " · "),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: setup.New(env, slug)}
				}
			},
		})
	}
	return items
}

// orderByRecent moves recently trained exams to the front, most recent
// first, keeping the title order of the rest.
func orderByRecent(exams []exam.Exam, recent []training.RecentExam) []exam.Exam {
	bySlug := make(map[string]exam.Exam, len(exams))
	for _, e := range exams {
		bySlug[e.Slug] = e
	}

	out := make([]exam.Exam, 0, len(exams))
	seen := make(map[string]bool)
	for _, r := range recent {
		if e, ok := bySlug[r.Slug]; ok && !seen[r.Slug] {
			out = append(out, e)
			seen[r.Slug] = true
		}
	}
	for _, e := range exams {
		if !seen[e.Slug] {
			out = append(out, e)
		}
	}
	return out
}

func (h *HomeScreen) View(width, height int) string {
	if h.errMsg != "" {
		return layout.Center(theme.Incorrect.Render("Error: "+h.errMsg), width, height)
	}
	if !h.loaded {
		return layout.Center(theme.Dimmed.Render("Loading exams..."), width, height)
	}
	if len(h.menu.Items) == 0 {
		return layout.Center(theme.Card.Render(
			theme.Title.Render("No exams yet")+"\n\n"+
				theme.Body.Render("Import one with:")+"\n"+
				theme.Hint.Render("examtraining exam import exam.yaml"),
		), width, height)
	}
	return layout.Center(theme.Title.Render("Pick an exam")+"\n\n"+h.menu.View(), width, height)
}
