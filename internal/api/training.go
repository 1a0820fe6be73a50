package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/training"
)

// TrainingView is the state of a server-hosted training session.
type TrainingView struct {
	Slug     string            `json:"slug"`
	Position int               `json:"position"`
	Total    int               `json:"total"`
	Finished bool              `json:"finished"`
	Current  *exam.Question    `json:"current,omitempty"`
	Session  *training.Session `json:"session"`
}

// StartTrainingRequest starts a session. A zero QuestionCount uses the
// client's remembered preference.
type StartTrainingRequest struct {
	AccessCode string `json:"accessCode,omitempty"`
	training.Filters
}

// AnswerRequest records the chosen answer of a session question.
type AnswerRequest struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

// AnswerResult reports whether the answer was correct.
type AnswerResult struct {
	Correct  bool         `json:"correct"`
	Training TrainingView `json:"training"`
}

func newTrainingView(slug string, t *training.Tracker) TrainingView {
	pos, total := t.Position()
	v := TrainingView{
		Slug:     slug,
		Position: pos,
		Total:    total,
		Finished: t.IsFinished(),
		Session:  t.Session(),
	}
	if q, ok := t.Current(); ok {
		v.Current = &q
	}
	return v
}

func (s *Server) clientStore(r *http.Request) *training.SessionStore {
	return s.sessions.Namespace("clients/" + ClientIDFromContext(r.Context()))
}

// tracker loads the client's tracker of the exam in the URL. It fails with
// not-found when no session was started.
func (s *Server) tracker(r *http.Request) (*training.Tracker, string, error) {
	slug := chi.URLParam(r, "slug")
	t, err := s.clientStore(r).Tracker(r.Context(), slug)
	if err != nil {
		return nil, slug, err
	}
	if !t.HasSession() {
		return nil, slug, fnError(CodeNotFound, "No training session for this exam.")
	}
	return t, slug, nil
}

func (s *Server) handleStartTraining(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	var req StartTrainingRequest
	if err := readBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	e, err := s.repo.GetExam(ctx, slug)
	if errors.Is(err, docstore.ErrNotFound) {
		respondError(w, fnError(CodeNotFound, "Exam not found."))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	secrets, err := s.secretsOf(ctx, slug)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := checkAccess(e, secrets, req.AccessCode); err != nil {
		respondError(w, err)
		return
	}

	questions, err := s.repo.Questions(ctx, slug)
	if err != nil {
		respondError(w, err)
		return
	}

	store := s.clientStore(r)
	prefs, err := store.Preferences(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = prefs.QuestionsCount
	} else if req.QuestionCount != prefs.QuestionsCount {
		prefs.QuestionsCount = req.QuestionCount
		if err := store.SavePreferences(ctx, prefs); err != nil {
			respondError(w, err)
			return
		}
	}

	t, err := store.NewTraining(ctx, slug, questions, req.Filters)
	if errors.Is(err, training.ErrEmptyPool) {
		respondResult(w, map[string]bool{"empty": true})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	recent := training.RecentExam{Slug: slug, Title: e.Title, Visited: s.now().UTC()}
	if e.Private {
		recent.AccessCode = req.AccessCode
	}
	if err := store.AddRecentExam(ctx, recent); err != nil {
		respondError(w, err)
		return
	}

	respondResult(w, newTrainingView(slug, t))
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	t, slug, err := s.tracker(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, newTrainingView(slug, t))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := readBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.QuestionID == "" {
		respondError(w, notSpecified("questionId"))
		return
	}

	t, slug, err := s.tracker(r)
	if err != nil {
		respondError(w, err)
		return
	}
	correct, err := t.RecordAnswer(r.Context(), req.QuestionID, req.AnswerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, AnswerResult{Correct: correct, Training: newTrainingView(slug, t)})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	t, slug, err := s.tracker(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := t.Advance(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, newTrainingView(slug, t))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	t, slug, err := s.tracker(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := t.Back(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, newTrainingView(slug, t))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	t, slug, err := s.tracker(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if !t.IsFinished() {
		respondError(w, fnError(CodeFailedPrecondition, "The training session is not finished."))
		return
	}

	threshold := exam.DefaultThreshold
	e, err := s.repo.GetExam(r.Context(), slug)
	switch {
	case err == nil:
		threshold = e.Threshold
	case !errors.Is(err, docstore.ErrNotFound):
		respondError(w, err)
		return
	}

	result, _ := t.Score(threshold)
	respondResult(w, result)
}

func (s *Server) handleResetTraining(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	t, err := s.clientStore(r).Tracker(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := t.Reset(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, struct{}{})
}

func (s *Server) handleResetCorrect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	t, err := s.clientStore(r).Tracker(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := t.ResetAnsweredCorrectly(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondResult(w, struct{}{})
}
