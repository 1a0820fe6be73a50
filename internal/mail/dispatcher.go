package mail

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher periodically delivers pending mail.
type Dispatcher struct {
	outbox      *Outbox
	sender      Sender
	interval    time.Duration
	maxAttempts int
}

// NewDispatcher creates a delivery worker. A non-positive interval defaults
// to 30 seconds and a non-positive maxAttempts to 5.
func NewDispatcher(outbox *Outbox, sender Sender, interval time.Duration, maxAttempts int) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		outbox:      outbox,
		sender:      sender,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Start runs the worker in a goroutine until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	slog.Info("mail dispatcher started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.Dispatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("mail dispatcher stopped")
			return
		case <-ticker.C:
			d.Dispatch(ctx)
		}
	}
}

// Dispatch delivers every pending message once and returns how many were
// sent.
func (d *Dispatcher) Dispatch(ctx context.Context) int {
	pending, err := d.outbox.Pending(ctx)
	if err != nil {
		slog.Error("failed to load pending mail", "error", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	sent := 0
	for _, env := range pending {
		msg := Message{To: env.To, Subject: env.Message.Subject, HTML: env.Message.HTML}
		if err := d.sender.Send(ctx, msg); err != nil {
			slog.Warn("mail delivery failed", "id", env.ID, "to", env.To, "attempt", env.Attempts+1, "error", err)
			if err := d.outbox.markFailed(ctx, env, err, d.maxAttempts); err != nil {
				slog.Error("failed to record mail failure", "id", env.ID, "error", err)
			}
			continue
		}
		if err := d.outbox.markDelivered(ctx, env); err != nil {
			slog.Error("failed to record mail delivery", "id", env.ID, "error", err)
		}
		sent++
	}

	slog.Info("mail dispatched", "sent", sent, "pending", len(pending))
	return sent
}
