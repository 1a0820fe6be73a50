package exam

import "time"

const (
	// DefaultThreshold is the pass percentage applied when an exam does not
	// configure one.
	DefaultThreshold = 75

	// TitleMaxLength bounds exam titles.
	TitleMaxLength = 128

	// StringMaxLength bounds every other free-text field.
	StringMaxLength = 8192
)

// Exam is a named collection of multiple-choice questions with a pass
// threshold. Its questions live in their own collection and are loaded
// separately.
type Exam struct {
	// Slug is the globally unique identifier derived from Title.
	Slug string `json:"slug"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// Owner is the e-mail address that receives the exam codes.
	Owner string `json:"owner"`

	// Private exams require the access code to be viewed or trained.
	Private bool `json:"private"`

	// Threshold is the minimum percentage of correct answers to pass (0-100).
	Threshold int `json:"threshold"`

	Created time.Time `json:"created"`

	// ExplanationPrompt replaces the default system prompt used when
	// explaining answers. Empty means the default.
	ExplanationPrompt string `json:"explanationPrompt"`

	// EnableAI allows students to request AI explanations.
	EnableAI bool `json:"enableAI"`
}

// Question belongs to exactly one exam.
type Question struct {
	ID string `json:"id"`

	// Order is a stable sort key. Values are not necessarily contiguous.
	Order int `json:"order"`

	Description string `json:"description"`
	Explanation string `json:"explanation"`

	// Categories are free-form labels. Never nil after normalization.
	Categories []string `json:"categories"`

	// Answers are ordered by Answer.Order. Never nil after normalization.
	Answers []Answer `json:"answers"`
}

// Answer belongs to exactly one question.
type Answer struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	Correct     bool   `json:"correct"`
}

// CorrectAnswerID returns the identifier of the first answer flagged
// correct. It reports false for questions without a correct answer.
func (q Question) CorrectAnswerID() (string, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a.ID, true
		}
	}
	return "", false
}

// HasCategory reports whether the question carries the given label.
func (q Question) HasCategory(category string) bool {
	for _, c := range q.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Answer returns the answer with the given identifier.
func (q Question) Answer(id string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// Clone returns a deep copy so callers can reorder answers or categories
// without touching the original record.
func (q Question) Clone() Question {
	c := q
	c.Categories = append([]string{}, q.Categories...)
	c.Answers = append([]Answer{}, q.Answers...)
	return c
}

// WithQuestions is an exam together with its ordered questions, the shape
// returned to clients by getExam.
type WithQuestions struct {
	Exam
	Questions []Question `json:"questions"`
}

// Categories returns the distinct category labels across questions in
// first-seen order.
func Categories(questions []Question) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range questions {
		for _, c := range q.Categories {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
