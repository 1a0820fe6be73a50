package training

import (
	"errors"

	"github.com/examtraining/examtraining/internal/exam"
)

// MaxQuestions caps the length of a training session.
const MaxQuestions = 50

// ErrEmptyPool reports that no question qualifies under the chosen filters.
// It is an informational outcome: callers tell the user instead of starting
// an empty session.
var ErrEmptyPool = errors.New("no questions available")

// Resolver selects the questions of a new training session.
type Resolver struct {
	rand Rand
	max  int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRand sets the random source used for every shuffle.
func WithRand(r Rand) ResolverOption {
	return func(res *Resolver) { res.rand = r }
}

// WithMaxQuestions overrides MaxQuestions.
func WithMaxQuestions(n int) ResolverOption {
	return func(res *Resolver) {
		if n > 0 {
			res.max = n
		}
	}
}

// NewResolver creates a Resolver using DefaultRand and MaxQuestions unless
// overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{rand: DefaultRand, max: MaxQuestions}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxCount returns the largest session length the resolver produces for an
// exam with available questions.
func (r *Resolver) MaxCount(available int) int {
	return min(r.max, available)
}

// ClampCount clamps a requested session length into [1, MaxCount(available)].
// It returns 0 only when no questions are available.
func (r *Resolver) ClampCount(requested, available int) int {
	upper := r.MaxCount(available)
	if upper < 1 {
		return 0
	}
	return min(max(requested, 1), upper)
}

// Resolve computes the ordered questions of a new session.
//
// Questions answered incorrectly in a finished previous session come first
// when IncludeIncorrect is set, followed by the shuffled questions passing
// the category and ExcludeCorrect filters, without duplicates. The
// combination is cut to the clamped count and shuffled again so the
// priority is not visible in the final order. Every returned question is a
// copy with independently shuffled answers; all is never modified.
func (r *Resolver) Resolve(all []exam.Question, previous *Session, correctEver QuestionSet, f Filters) ([]exam.Question, error) {
	count := r.ClampCount(f.QuestionCount, len(all))

	var incorrect []exam.Question
	if f.IncludeIncorrect && previous != nil && previous.IsFinished() {
		incorrect = previous.Incorrect()
		Shuffle(r.rand, incorrect)
	}

	pool := make([]exam.Question, 0, len(all))
	for _, q := range all {
		if f.Category != "" && !q.HasCategory(f.Category) {
			continue
		}
		if f.ExcludeCorrect && correctEver.Has(q.ID) {
			continue
		}
		pool = append(pool, q)
	}
	Shuffle(r.rand, pool)

	seen := make(map[string]bool, len(incorrect)+len(pool))
	selected := make([]exam.Question, 0, len(incorrect)+len(pool))
	for _, group := range [][]exam.Question{incorrect, pool} {
		for _, q := range group {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			selected = append(selected, q)
		}
	}

	if len(selected) > count {
		selected = selected[:count]
	}
	if len(selected) == 0 {
		return nil, ErrEmptyPool
	}
	Shuffle(r.rand, selected)

	out := make([]exam.Question, len(selected))
	for i, q := range selected {
		c := q.Clone()
		Shuffle(r.rand, c.Answers)
		out[i] = c
	}
	return out, nil
}
