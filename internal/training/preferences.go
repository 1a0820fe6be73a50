package training

import (
	"context"
	"time"
)

const (
	// DefaultQuestionsCount is the session length offered before the user
	// picks one.
	DefaultQuestionsCount = 20

	// MaxRecentExams bounds the recent-exams list.
	MaxRecentExams = 5
)

// Preferences are remembered between sessions.
type Preferences struct {
	QuestionsCount int `json:"questionsCount"`
}

// RecentExam is an entry of the recently trained exams list.
type RecentExam struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	AccessCode string    `json:"accessCode,omitempty"`
	Visited    time.Time `json:"visited"`
}

// Preferences returns the stored preferences with defaults filled in.
func (s *SessionStore) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	if err := s.load(ctx, s.key("preferences"), &p); err != nil {
		return Preferences{}, err
	}
	if p.QuestionsCount <= 0 {
		p.QuestionsCount = DefaultQuestionsCount
	}
	return p, nil
}

// SavePreferences stores p.
func (s *SessionStore) SavePreferences(ctx context.Context, p Preferences) error {
	return s.save(ctx, s.key("preferences"), p)
}

// RecentExams returns the recently trained exams, most recent first.
func (s *SessionStore) RecentExams(ctx context.Context) ([]RecentExam, error) {
	var recent []RecentExam
	if err := s.load(ctx, s.key("recent"), &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

// AddRecentExam moves e to the front of the recent list, dropping an older
// entry for the same exam and the oldest entries beyond MaxRecentExams.
func (s *SessionStore) AddRecentExam(ctx context.Context, e RecentExam) error {
	recent, err := s.RecentExams(ctx)
	if err != nil {
		return err
	}

	next := []RecentExam{e}
	for _, r := range recent {
		if r.Slug != e.Slug {
			next = append(next, r)
		}
	}
	if len(next) > MaxRecentExams {
		next = next[:MaxRecentExams]
	}
	return s.save(ctx, s.key("recent"), next)
}
