package training

import (
	"encoding/json"
	"slices"

	"github.com/examtraining/examtraining/internal/exam"
)

// Filters are the user's choices for a new training session.
type Filters struct {
	// QuestionCount is the requested session length. Out-of-range values are
	// clamped, never rejected.
	QuestionCount int `json:"questionCount"`

	// Category restricts new questions to those carrying the label.
	// Empty means no category filtering.
	Category string `json:"category,omitempty"`

	// IncludeIncorrect prioritizes questions answered wrongly (or not at
	// all) in the previous finished session.
	IncludeIncorrect bool `json:"includeIncorrect"`

	// ExcludeCorrect skips questions ever answered correctly.
	ExcludeCorrect bool `json:"excludeCorrect"`
}

// Session is one attempt at training through a selected subset of an exam's
// questions. Questions carry their own shuffled answer order and never
// change after the session starts.
type Session struct {
	Questions []exam.Question `json:"questions"`

	// Current indexes Questions. It equals len(Questions) once finished.
	Current int `json:"current"`

	// Answers maps question id to the chosen answer id.
	Answers map[string]string `json:"answers"`
}

// IsFinished reports whether every question has been passed.
func (s *Session) IsFinished() bool {
	return s.Current >= len(s.Questions)
}

// Question returns the session question with the given id.
func (s *Session) Question(id string) (exam.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return exam.Question{}, false
}

// Incorrect returns the questions whose recorded answer is not the correct
// one. Unanswered questions are included.
func (s *Session) Incorrect() []exam.Question {
	var out []exam.Question
	for _, q := range s.Questions {
		if !IsCorrect(q, s.Answers[q.ID]) {
			out = append(out, q)
		}
	}
	return out
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{
		Questions: slices.Clone(s.Questions),
		Current:   s.Current,
		Answers:   make(map[string]string, len(s.Answers)),
	}
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return c
}

// IsCorrect reports whether answerID is the identifier of the question's
// correct answer. A question without a correct answer is never answered
// correctly.
func IsCorrect(q exam.Question, answerID string) bool {
	correct, ok := q.CorrectAnswerID()
	return ok && answerID != "" && answerID == correct
}

// QuestionSet is a set of question identifiers. It serializes as a sorted
// JSON array.
type QuestionSet map[string]struct{}

// NewQuestionSet builds a set from ids.
func NewQuestionSet(ids ...string) QuestionSet {
	s := make(QuestionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s QuestionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether it was new.
func (s QuestionSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the members in sorted order.
func (s QuestionSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s QuestionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *QuestionSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewQuestionSet(ids...)
	return nil
}
