// Package api serves the callable functions and the training API over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/config"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/mail"
	"github.com/examtraining/examtraining/internal/training"
)

// Services are the collaborators of the server. Explainer and Suggester
// may be nil when no LLM provider is configured.
type Services struct {
	Docs      docstore.Store
	Sessions  *training.SessionStore
	Outbox    *mail.Outbox
	Explainer *ai.Explainer
	Suggester *ai.Suggester

	// Rand picks suggestion examples. Nil uses training.DefaultRand.
	Rand training.Rand

	// Now stamps new exams. Nil uses time.Now.
	Now func() time.Time
}

// Server represents the HTTP API server.
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	repo      *exam.Repository
	sessions  *training.SessionStore
	outbox    *mail.Outbox
	explainer *ai.Explainer
	suggester *ai.Suggester
	rand      training.Rand
	now       func() time.Time
	functions map[string]function
}

// NewServer creates a new API server.
func NewServer(cfg config.ServerConfig, svc Services) *Server {
	s := &Server{
		config:    cfg,
		repo:      exam.NewRepository(svc.Docs),
		sessions:  svc.Sessions,
		outbox:    svc.Outbox,
		explainer: svc.Explainer,
		suggester: svc.Suggester,
		rand:      svc.Rand,
		now:       svc.Now,
	}
	if s.rand == nil {
		s.rand = training.DefaultRand
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.config.PublicURL == "" {
		s.config.PublicURL = mail.DefaultPublicURL
	}
	s.functions = map[string]function{
		"createExam":           s.createExam,
		"copyExam":             s.copyExam,
		"getExam":              s.getExam,
		"editExamDetails":      s.editExamDetails,
		"resetExam":            s.resetExam,
		"deleteExam":           s.deleteExam,
		"isSlugAvailable":      s.isSlugAvailable,
		"createExamQuestion":   s.createExamQuestion,
		"editExamQuestion":     s.editExamQuestion,
		"removeExamQuestion":   s.removeExamQuestion,
		"bulkAddExamQuestions": s.bulkAddExamQuestions,
		"explainQuestion":      s.explainQuestion,
		"suggestExamQuestion":  s.suggestExamQuestion,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Client-ID", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Post("/functions/{name}", s.handleFunction)

	r.Route("/training/{slug}", func(r chi.Router) {
		r.Use(requireClientID)
		r.Post("/", s.handleStartTraining)
		r.Get("/", s.handleGetTraining)
		r.Delete("/", s.handleResetTraining)
		r.Post("/answer", s.handleAnswer)
		r.Post("/advance", s.handleAdvance)
		r.Post("/back", s.handleBack)
		r.Get("/result", s.handleResult)
		r.Delete("/correct", s.handleResetCorrect)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondResult(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn, ok := s.functions[name]
	if !ok {
		respondError(w, fnError(CodeNotFound, "unknown function "+name))
		return
	}

	var req callRequest
	if err := readBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := fn(r.Context(), req.Data)
	if err != nil {
		fe := toFunctionError(err)
		slog.Info("function rejected", "function", name, "status", fe.Status, "message", fe.Message)
		respondError(w, fe)
		return
	}
	respondResult(w, result)
}
