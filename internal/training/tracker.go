package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examtraining/examtraining/internal/exam"
)

// ErrInvalidSelection is returned when an answer is recorded for a question
// (or with an answer) that is not part of the current session.
var ErrInvalidSelection = errors.New("invalid selection")

// KV is the durable key-value storage training state is persisted to.
type KV interface {
	// Load returns the stored value, or nil when the key is absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error
}

// SessionStore owns the training state of one client: the active session
// and the answered-correctly set of every exam, plus preferences. It is
// passed explicitly to whoever needs it.
type SessionStore struct {
	kv        KV
	resolver  *Resolver
	namespace string
}

// NewSessionStore creates a store persisting to kv. A nil resolver uses
// NewResolver().
func NewSessionStore(kv KV, resolver *Resolver) *SessionStore {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &SessionStore{kv: kv, resolver: resolver}
}

// Namespace returns a store sharing the same KV whose keys are prefixed
// with ns, isolating one client's state from another's.
func (s *SessionStore) Namespace(ns string) *SessionStore {
	c := *s
	if s.namespace != "" {
		ns = s.namespace + "/" + ns
	}
	c.namespace = ns
	return &c
}

// Resolver returns the resolver used by NewTraining.
func (s *SessionStore) Resolver() *Resolver {
	return s.resolver
}

func (s *SessionStore) key(parts ...string) string {
	k := s.namespace
	for _, p := range parts {
		if k != "" {
			k += "/"
		}
		k += p
	}
	return k
}

func (s *SessionStore) load(ctx context.Context, key string, v any) error {
	data, err := s.kv.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *SessionStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Tracker loads the training state of one exam.
func (s *SessionStore) Tracker(ctx context.Context, examID string) (*Tracker, error) {
	t := &Tracker{store: s, examID: examID, correct: NewQuestionSet()}
	if err := s.load(ctx, t.sessionKey(), &t.session); err != nil {
		return nil, err
	}
	if err := s.load(ctx, t.correctKey(), &t.correct); err != nil {
		return nil, err
	}
	if t.correct == nil {
		t.correct = NewQuestionSet()
	}
	if t.session != nil && t.session.Answers == nil {
		t.session.Answers = make(map[string]string)
	}
	return t, nil
}

// NewTraining selects questions for a new session of the exam and starts
// it. The previous session, when finished, feeds the IncludeIncorrect
// filter before being replaced. ErrEmptyPool leaves the state untouched.
func (s *SessionStore) NewTraining(ctx context.Context, examID string, all []exam.Question, f Filters) (*Tracker, error) {
	t, err := s.Tracker(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.resolver.Resolve(all, t.session, t.correct, f)
	if err != nil {
		return t, err
	}
	if err := t.StartSession(ctx, questions); err != nil {
		return nil, err
	}
	return t, nil
}

// Tracker holds and mutates the session of a single exam. Every mutation is
// persisted before returning; on a persistence error the in-memory state
// keeps the change and the next successful save catches up.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	store   *SessionStore
	examID  string
	session *Session
	correct QuestionSet
}

func (t *Tracker) sessionKey() string { return t.store.key("training", t.examID) }
func (t *Tracker) correctKey() string { return t.store.key("correct", t.examID) }

// ExamID returns the exam the tracker belongs to.
func (t *Tracker) ExamID() string { return t.examID }

// HasSession reports whether a session was started and not reset.
func (t *Tracker) HasSession() bool { return t.session != nil }

// Session returns a copy of the current session, or nil.
func (t *Tracker) Session() *Session { return t.session.clone() }

// AnsweredCorrectlyEver returns a copy of the identifiers of every question
// ever answered correctly for this exam.
func (t *Tracker) AnsweredCorrectlyEver() QuestionSet {
	return NewQuestionSet(t.correct.IDs()...)
}

// StartSession replaces the current session with a fresh one over
// questions. The answered-correctly set is kept.
func (t *Tracker) StartSession(ctx context.Context, questions []exam.Question) error {
	t.session = &Session{
		Questions: questions,
		Answers:   make(map[string]string),
	}
	return t.store.save(ctx, t.sessionKey(), t.session)
}

// RecordAnswer stores the chosen answer and reports whether it is correct.
// Correct answers join the answered-correctly set, which never shrinks.
func (t *Tracker) RecordAnswer(ctx context.Context, questionID, answerID string) (bool, error) {
	if t.session == nil {
		return false, fmt.Errorf("%w: no active session", ErrInvalidSelection)
	}
	q, ok := t.session.Question(questionID)
	if !ok {
		return false, fmt.Errorf("%w: question %q", ErrInvalidSelection, questionID)
	}
	if _, ok := q.Answer(answerID); !ok {
		return false, fmt.Errorf("%w: answer %q of question %q", ErrInvalidSelection, answerID, questionID)
	}

	t.session.Answers[questionID] = answerID
	if err := t.store.save(ctx, t.sessionKey(), t.session); err != nil {
		return false, err
	}

	correct := IsCorrect(q, answerID)
	if correct && t.correct.Add(questionID) {
		if err := t.store.save(ctx, t.correctKey(), t.correct); err != nil {
			return true, err
		}
	}
	return correct, nil
}

// Advance moves to the next question. Passing the last question finishes
// the session; advancing a finished session does nothing.
func (t *Tracker) Advance(ctx context.Context) error {
	if t.session == nil || t.session.IsFinished() {
		return nil
	}
	t.session.Current++
	return t.store.save(ctx, t.sessionKey(), t.session)
}

// Back moves to the previous question. It does nothing on the first one.
func (t *Tracker) Back(ctx context.Context) error {
	if t.session == nil || t.session.Current == 0 {
		return nil
	}
	t.session.Current = min(t.session.Current, len(t.session.Questions)) - 1
	return t.store.save(ctx, t.sessionKey(), t.session)
}

// IsFinished reports whether the session has passed its last question.
// Without a session there is nothing to answer, so it reports true.
func (t *Tracker) IsFinished() bool {
	return t.session == nil || t.session.IsFinished()
}

// Current returns the question at the cursor.
func (t *Tracker) Current() (exam.Question, bool) {
	if t.IsFinished() {
		return exam.Question{}, false
	}
	return t.session.Questions[t.session.Current], true
}

// Position returns the one-based number of the current question and the
// session length.
func (t *Tracker) Position() (int, int) {
	if t.session == nil {
		return 0, 0
	}
	return min(t.session.Current+1, len(t.session.Questions)), len(t.session.Questions)
}

// Reset discards the session. The answered-correctly set is kept.
func (t *Tracker) Reset(ctx context.Context) error {
	t.session = nil
	return t.store.save(ctx, t.sessionKey(), t.session)
}

// ResetAnsweredCorrectly empties the answered-correctly set.
func (t *Tracker) ResetAnsweredCorrectly(ctx context.Context) error {
	t.correct = NewQuestionSet()
	return t.store.save(ctx, t.correctKey(), t.correct)
}

// Score scores the session against threshold.
func (t *Tracker) Score(threshold int) (Result, bool) {
	if t.session == nil || len(t.session.Questions) == 0 {
		return Result{}, false
	}
	return Score(t.session, threshold), true
}
