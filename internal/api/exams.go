package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/mail"
)

type createExamParams struct {
	Exam  exam.ExamInput `json:"exam"`
	Owner string         `json:"owner"`
}

type createExamResult struct {
	Slug string `json:"slug"`
}

func (s *Server) createExam(ctx context.Context, data json.RawMessage) (any, error) {
	var p createExamParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if p.Exam.Title == nil || strings.TrimSpace(*p.Exam.Title) == "" {
		return nil, notSpecified("title")
	}
	owner := strings.TrimSpace(p.Owner)
	if owner == "" {
		return nil, notSpecified("owner")
	}

	e, secrets, err := s.newExam(ctx, p.Exam, owner)
	if err != nil {
		return nil, err
	}
	s.queueCodes(ctx, mail.ExamCreated, e, secrets)

	slog.Info("created exam", "slug", e.Slug)
	return createExamResult{Slug: e.Slug}, nil
}

// newExam normalizes in, generates its codes and stores both.
func (s *Server) newExam(ctx context.Context, in exam.ExamInput, owner string) (exam.Exam, exam.Secrets, error) {
	e, err := exam.NormalizeExam(in)
	if err != nil {
		return exam.Exam{}, exam.Secrets{}, err
	}
	e.Slug = exam.Slugify(e.Title)
	e.Created = s.now().UTC()

	secrets, err := exam.NewSecrets(owner)
	if err != nil {
		return exam.Exam{}, exam.Secrets{}, err
	}
	if err := s.repo.CreateExam(ctx, e, secrets); err != nil {
		if errors.Is(err, docstore.ErrExists) {
			return exam.Exam{}, exam.Secrets{}, fnError(CodeAlreadyExists, "exam with the same name already exists.")
		}
		return exam.Exam{}, exam.Secrets{}, err
	}
	return e, secrets, nil
}

// queueCodes mails the exam codes to the owner. Mail problems are logged
// and never fail the request.
func (s *Server) queueCodes(ctx context.Context, template func(publicURL, to string, c mail.ExamCodes) (mail.Message, error), e exam.Exam, secrets exam.Secrets) {
	if s.outbox == nil {
		return
	}
	msg, err := template(s.config.PublicURL, secrets.Owner, mail.ExamCodes{
		Title:      e.Title,
		Slug:       e.Slug,
		Private:    e.Private,
		AccessCode: secrets.AccessCode,
		EditCode:   secrets.EditCode,
	})
	if err != nil {
		slog.Error("failed to render mail", "slug", e.Slug, "error", err)
		return
	}
	if _, err := s.outbox.Enqueue(ctx, msg); err != nil {
		slog.Error("failed to queue mail", "slug", e.Slug, "error", err)
	}
}

type copyExamParams struct {
	Slug     string         `json:"slug"`
	EditCode string         `json:"editCode"`
	Exam     exam.ExamInput `json:"exam"`
	Owner    string         `json:"owner"`
}

type codesResult struct {
	Slug       string `json:"slug,omitempty"`
	AccessCode string `json:"accessCode"`
	EditCode   string `json:"editCode"`
}

func (s *Server) copyExam(ctx context.Context, data json.RawMessage) (any, error) {
	var p copyExamParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if p.Exam.Title == nil || strings.TrimSpace(*p.Exam.Title) == "" {
		return nil, notSpecified("title")
	}
	if p.Slug == "" {
		return nil, notSpecified("slug")
	}
	if p.EditCode == "" {
		return nil, notSpecified("editCode")
	}
	owner := strings.TrimSpace(p.Owner)
	if owner == "" {
		return nil, notSpecified("owner")
	}

	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}
	questions, err := s.repo.Questions(ctx, p.Slug)
	if err != nil {
		return nil, err
	}

	e, secrets, err := s.newExam(ctx, p.Exam, owner)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		if _, err := s.repo.PutQuestion(ctx, e.Slug, q); err != nil {
			return nil, fmt.Errorf("copy question %s: %w", q.ID, err)
		}
	}
	s.queueCodes(ctx, mail.ExamCreated, e, secrets)

	slog.Info("copied exam", "from", p.Slug, "to", e.Slug, "questions", len(questions))
	return codesResult{Slug: e.Slug, AccessCode: secrets.AccessCode, EditCode: secrets.EditCode}, nil
}

type getExamParams struct {
	Slug       string `json:"slug"`
	AccessCode string `json:"accessCode"`
	EditCode   string `json:"editCode"`
}

func (s *Server) getExam(ctx context.Context, data json.RawMessage) (any, error) {
	var p getExamParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		return nil, notSpecified("slug")
	}

	e, err := s.repo.GetExam(ctx, p.Slug)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	secrets, err := s.secretsOf(ctx, p.Slug)
	if err != nil {
		return nil, err
	}

	if p.EditCode != "" {
		if !secrets.CheckEdit(p.EditCode) {
			return nil, fnError(CodePermissionDenied, "The edit code provided is incorrect.")
		}
	} else if err := checkAccess(e, secrets, p.AccessCode); err != nil {
		return nil, err
	}

	questions, err := s.repo.Questions(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	e.Owner = ""
	return exam.WithQuestions{Exam: *e, Questions: questions}, nil
}

// checkAccess enforces the access code of private exams.
func checkAccess(e *exam.Exam, secrets *exam.Secrets, accessCode string) error {
	if !e.Private {
		return nil
	}
	if accessCode == "" {
		return fnError(CodePermissionDenied, "You need an access code to view this exam.")
	}
	if !secrets.CheckAccess(accessCode) {
		return fnError(CodePermissionDenied, "The access code provided is incorrect.")
	}
	return nil
}

func (s *Server) secretsOf(ctx context.Context, slug string) (*exam.Secrets, error) {
	secrets, err := s.repo.Secrets(ctx, slug)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fnError(CodeInternal, "secrets not found for exam.")
	}
	return secrets, err
}

// authorizeEdit loads the exam and verifies the edit code.
func (s *Server) authorizeEdit(ctx context.Context, slug, editCode string) (*exam.Exam, *exam.Secrets, error) {
	if slug == "" {
		return nil, nil, notSpecified("slug")
	}
	if editCode == "" {
		return nil, nil, notSpecified("editCode")
	}
	e, err := s.repo.GetExam(ctx, slug)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil, fnError(CodeNotFound, "Exam not found.")
	}
	if err != nil {
		return nil, nil, err
	}
	secrets, err := s.secretsOf(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if !secrets.CheckEdit(editCode) {
		return nil, nil, fnError(CodePermissionDenied, "The edit code provided is incorrect.")
	}
	return e, secrets, nil
}

type editExamDetailsParams struct {
	Slug     string         `json:"slug"`
	EditCode string         `json:"editCode"`
	Data     exam.ExamInput `json:"data"`
}

func (s *Server) editExamDetails(ctx context.Context, data json.RawMessage) (any, error) {
	var p editExamDetailsParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}

	fields, err := exam.NormalizeExamPatch(p.Data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateExam(ctx, p.Slug, fields); err != nil {
		return nil, err
	}

	slog.Info("edited exam", "slug", p.Slug, "fields", len(fields))
	return struct{}{}, nil
}

type editCodeParams struct {
	Slug     string `json:"slug"`
	EditCode string `json:"editCode"`
}

func (s *Server) resetExam(ctx context.Context, data json.RawMessage) (any, error) {
	var p editCodeParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	e, old, err := s.authorizeEdit(ctx, p.Slug, p.EditCode)
	if err != nil {
		return nil, err
	}

	secrets, err := exam.NewSecrets(old.Owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetSecrets(ctx, p.Slug, secrets); err != nil {
		return nil, err
	}
	s.queueCodes(ctx, mail.ExamCodesReset, *e, secrets)

	slog.Info("exam codes reset", "slug", p.Slug)
	return codesResult{AccessCode: secrets.AccessCode, EditCode: secrets.EditCode}, nil
}

func (s *Server) deleteExam(ctx context.Context, data json.RawMessage) (any, error) {
	var p editCodeParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeEdit(ctx, p.Slug, p.EditCode); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteExam(ctx, p.Slug); err != nil {
		return nil, err
	}

	slog.Info("deleted exam", "slug", p.Slug)
	return struct{}{}, nil
}

type slugParams struct {
	Slug string `json:"slug"`
}

func (s *Server) isSlugAvailable(ctx context.Context, data json.RawMessage) (any, error) {
	var p slugParams
	if err := decodeParams(data, &p); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		return nil, notSpecified("slug")
	}
	return s.repo.SlugAvailable(ctx, p.Slug)
}
