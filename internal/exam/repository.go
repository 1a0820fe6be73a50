package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/examtraining/examtraining/internal/docstore"
)

// Collection names in the document store.
const (
	CollectionExams     = "exams"
	CollectionSecrets   = "secrets"
	CollectionQuestions = "questions"
)

// Repository provides typed access to exams, their secrets and their
// questions on top of a document store. Lookups of missing documents return
// errors wrapping docstore.ErrNotFound.
type Repository struct {
	docs docstore.Store
}

// NewRepository creates a Repository over docs.
func NewRepository(docs docstore.Store) *Repository {
	return &Repository{docs: docs}
}

func questionsOf(slug string) string {
	return docstore.Collection(CollectionExams, slug, CollectionQuestions)
}

// CreateExam stores a new exam and its secrets. It fails with an error
// wrapping docstore.ErrExists when the slug is taken.
func (r *Repository) CreateExam(ctx context.Context, e Exam, s Secrets) error {
	if err := r.docs.Create(ctx, CollectionExams, e.Slug, e); err != nil {
		return fmt.Errorf("create exam %q: %w", e.Slug, err)
	}
	if err := r.docs.Set(ctx, CollectionSecrets, e.Slug, s); err != nil {
		return fmt.Errorf("store secrets for %q: %w", e.Slug, err)
	}
	return nil
}

// GetExam loads an exam without its questions.
func (r *Repository) GetExam(ctx context.Context, slug string) (*Exam, error) {
	doc, err := r.docs.Get(ctx, CollectionExams, slug)
	if err != nil {
		return nil, fmt.Errorf("get exam %q: %w", slug, err)
	}
	var e Exam
	if err := doc.Decode(&e); err != nil {
		return nil, err
	}
	e.Slug = doc.ID
	return &e, nil
}

// Exams lists every exam ordered by title.
func (r *Repository) Exams(ctx context.Context) ([]Exam, error) {
	docs, err := r.docs.Query(ctx, CollectionExams, "title")
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	out := make([]Exam, 0, len(docs))
	for _, d := range docs {
		var e Exam
		if err := d.Decode(&e); err != nil {
			return nil, err
		}
		e.Slug = d.ID
		out = append(out, e)
	}
	return out, nil
}

// UpdateExam merges fields produced by NormalizeExamPatch into the exam.
func (r *Repository) UpdateExam(ctx context.Context, slug string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.docs.Update(ctx, CollectionExams, slug, fields); err != nil {
		return fmt.Errorf("update exam %q: %w", slug, err)
	}
	return nil
}

// DeleteExam removes the exam together with its questions and secrets.
func (r *Repository) DeleteExam(ctx context.Context, slug string) error {
	if err := r.docs.DeleteCollection(ctx, questionsOf(slug)); err != nil {
		return fmt.Errorf("delete questions of %q: %w", slug, err)
	}
	if err := r.docs.Delete(ctx, CollectionSecrets, slug); err != nil {
		return fmt.Errorf("delete secrets of %q: %w", slug, err)
	}
	if err := r.docs.Delete(ctx, CollectionExams, slug); err != nil {
		return fmt.Errorf("delete exam %q: %w", slug, err)
	}
	return nil
}

// SlugAvailable reports whether no exam uses slug.
func (r *Repository) SlugAvailable(ctx context.Context, slug string) (bool, error) {
	_, err := r.docs.Get(ctx, CollectionExams, slug)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("look up exam %q: %w", slug, err)
	}
	return false, nil
}

// Secrets loads the credentials of an exam.
func (r *Repository) Secrets(ctx context.Context, slug string) (*Secrets, error) {
	doc, err := r.docs.Get(ctx, CollectionSecrets, slug)
	if err != nil {
		return nil, fmt.Errorf("get secrets of %q: %w", slug, err)
	}
	var s Secrets
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSecrets replaces the credentials of an exam.
func (r *Repository) SetSecrets(ctx context.Context, slug string, s Secrets) error {
	if err := r.docs.Set(ctx, CollectionSecrets, slug, s); err != nil {
		return fmt.Errorf("store secrets for %q: %w", slug, err)
	}
	return nil
}

// Questions returns every question of the exam ordered by Order.
func (r *Repository) Questions(ctx context.Context, slug string) ([]Question, error) {
	docs, err := r.docs.Query(ctx, questionsOf(slug), "order")
	if err != nil {
		return nil, fmt.Errorf("query questions of %q: %w", slug, err)
	}
	out := make([]Question, 0, len(docs))
	for _, d := range docs {
		var q Question
		if err := d.Decode(&q); err != nil {
			return nil, err
		}
		q.ID = d.ID
		out = append(out, Sanitize(q))
	}
	return out, nil
}

// Question loads a single question.
func (r *Repository) Question(ctx context.Context, slug, id string) (*Question, error) {
	doc, err := r.docs.Get(ctx, questionsOf(slug), id)
	if err != nil {
		return nil, fmt.Errorf("get question %q of %q: %w", id, slug, err)
	}
	var q Question
	if err := doc.Decode(&q); err != nil {
		return nil, err
	}
	q.ID = doc.ID
	q = Sanitize(q)
	return &q, nil
}

// PutQuestion stores q, replacing its answers wholesale. A question without
// an identifier is assigned a new one. The stored question is returned.
func (r *Repository) PutQuestion(ctx context.Context, slug string, q Question) (Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := r.docs.Set(ctx, questionsOf(slug), q.ID, q); err != nil {
		return Question{}, fmt.Errorf("store question %q of %q: %w", q.ID, slug, err)
	}
	return q, nil
}

// DeleteQuestion removes a question.
func (r *Repository) DeleteQuestion(ctx context.Context, slug, id string) error {
	if err := r.docs.Delete(ctx, questionsOf(slug), id); err != nil {
		return fmt.Errorf("delete question %q of %q: %w", id, slug, err)
	}
	return nil
}

// NextOrder returns an order value that sorts after every existing question.
func (r *Repository) NextOrder(ctx context.Context, slug string) (int, error) {
	qs, err := r.Questions(ctx, slug)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, q := range qs {
		next = max(next, q.Order+1)
	}
	return next, nil
}

// WithQuestions loads an exam together with its ordered questions.
func (r *Repository) WithQuestions(ctx context.Context, slug string) (*WithQuestions, error) {
	e, err := r.GetExam(ctx, slug)
	if err != nil {
		return nil, err
	}
	qs, err := r.Questions(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &WithQuestions{Exam: *e, Questions: qs}, nil
}
