package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/examtraining/examtraining/internal/docstore"
)

// Collection holds queued mail documents.
const Collection = "mail"

// Delivery states.
const (
	StatePending = "PENDING"
	StateSuccess = "SUCCESS"
	StateError   = "ERROR"
)

// Envelope is a queued mail document.
type Envelope struct {
	ID       string    `json:"-"`
	To       string    `json:"to"`
	Message  Content   `json:"message"`
	State    string    `json:"state"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created"`
}

// Content is the message part of an Envelope.
type Content struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Outbox queues messages in the document store.
type Outbox struct {
	docs docstore.Store
	now  func() time.Time
}

// NewOutbox creates an Outbox over docs.
func NewOutbox(docs docstore.Store) *Outbox {
	return &Outbox{docs: docs, now: time.Now}
}

// Enqueue stores msg as a pending document and returns its identifier.
func (o *Outbox) Enqueue(ctx context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	env := Envelope{
		To:      msg.To,
		Message: Content{Subject: msg.Subject, HTML: msg.HTML},
		State:   StatePending,
		Created: o.now().UTC(),
	}
	if err := o.docs.Create(ctx, Collection, id, env); err != nil {
		return "", fmt.Errorf("queue mail to %s: %w", msg.To, err)
	}
	return id, nil
}

// Pending returns the queued envelopes that still need delivery, oldest
// first.
func (o *Outbox) Pending(ctx context.Context) ([]Envelope, error) {
	docs, err := o.docs.Query(ctx, Collection, "")
	if err != nil {
		return nil, fmt.Errorf("query mail: %w", err)
	}
	var out []Envelope
	for _, d := range docs {
		var env Envelope
		if err := d.Decode(&env); err != nil {
			return nil, err
		}
		if env.State != StatePending {
			continue
		}
		env.ID = d.ID
		out = append(out, env)
	}
	return out, nil
}

// Get returns a queued envelope.
func (o *Outbox) Get(ctx context.Context, id string) (*Envelope, error) {
	d, err := o.docs.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := d.Decode(&env); err != nil {
		return nil, err
	}
	env.ID = id
	return &env, nil
}

// markDelivered records a successful delivery.
func (o *Outbox) markDelivered(ctx context.Context, env Envelope) error {
	return o.docs.Update(ctx, Collection, env.ID, map[string]any{
		"state":    StateSuccess,
		"attempts": env.Attempts + 1,
		"error":    "",
	})
}

// markFailed records a failed attempt. The envelope stays pending until
// maxAttempts is reached.
func (o *Outbox) markFailed(ctx context.Context, env Envelope, sendErr error, maxAttempts int) error {
	attempts := env.Attempts + 1
	state := StatePending
	if attempts >= maxAttempts {
		state = StateError
	}
	return o.docs.Update(ctx, Collection, env.ID, map[string]any{
		"state":    state,
		"attempts": attempts,
		"error":    sendErr.Error(),
	})
}
