package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/api"
	"github.com/examtraining/examtraining/internal/config"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/kv"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/mail"
	"github.com/examtraining/examtraining/internal/pgstore"
	"github.com/examtraining/examtraining/internal/store"
	"github.com/examtraining/examtraining/internal/training"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the callable exam functions and the training API.

Configuration is read from EXAMTRAINING_* environment variables.`,
	RunE: runServe,
}

// backends are the opened storage collaborators of the server.
type backends struct {
	docs     docstore.Store
	kv       training.KV
	recorder llm.EventRecorder
	closers  []io.Closer
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			slog.Error("close error", "error", err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Storage.SQLitePath = p
	}

	slog.Info("starting examtraining",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"sessions", cfg.Sessions.Backend,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	b, err := openBackends(initCtx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	svc := api.Services{
		Docs:     b.docs,
		Sessions: training.NewSessionStore(b.kv, nil),
		Outbox:   mail.NewOutbox(b.docs),
	}

	provider, err := llm.NewProviderFromEnv(initCtx, b.recorder)
	if err != nil {
		slog.Warn("LLM provider not configured, AI features disabled", "error", err)
	} else {
		svc.Explainer = ai.NewExplainer(provider, ai.DefaultConfig())
		svc.Suggester = ai.NewSuggester(provider, ai.DefaultConfig())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sender mail.Sender = mail.LogSender{}
	if cfg.Mail.SMTPHost != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
			From:     cfg.Mail.From,
		})
	}
	mail.NewDispatcher(svc.Outbox, sender, cfg.Mail.Interval, cfg.Mail.MaxAttempts).Start(ctx)

	server := api.NewServer(cfg.Server, svc)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	slog.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("examtraining stopped")
	return nil
}

// openBackends opens the document database and the session store selected
// by cfg. The "sqlite" session backend keeps sessions next to the documents,
// in whichever database that is.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	switch cfg.Storage.Backend {
	case "postgres":
		pg, err := pgstore.Open(ctx, pgstore.Config{DSN: cfg.Storage.PostgresDSN})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		slog.Info("database connected successfully", "backend", "postgres")
		b.docs, b.kv = pg, pg.KV()
		b.closers = append(b.closers, pg)
	default:
		path := cfg.Storage.SQLitePath
		if path == "" {
			var err error
			if path, err = store.DefaultDBPath(); err != nil {
				return nil, err
			}
		} else if err := store.EnsureDir(path); err != nil {
			return nil, err
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.Info("database opened", "backend", "sqlite", "path", path)
		b.docs, b.kv, b.recorder = st.Documents(), st.KV(), st.EventRepo()
		b.closers = append(b.closers, st)
	}

	switch cfg.Sessions.Backend {
	case "redis":
		r, err := kv.NewRedis(ctx, kv.RedisConfig{
			URL:    cfg.Sessions.RedisURL,
			Prefix: cfg.Sessions.RedisPrefix,
			TTL:    cfg.Sessions.TTL,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.kv = r
		b.closers = append(b.closers, r)
	case "memory":
		b.kv = kv.NewMemory()
	}

	return b, nil
}
