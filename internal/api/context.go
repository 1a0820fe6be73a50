package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const clientIDContextKey contextKey = "client_id"

// ClientIDHeader identifies the client whose training state a request
// reads or changes.
const ClientIDHeader = "X-Client-ID"

// ClientIDFromContext returns the client id set by requireClientID.
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDContextKey).(string)
	return id
}

// ContextWithClientID adds the client id to ctx.
func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, id)
}

// requireClientID rejects requests without a UUID client id.
func requireClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ClientIDHeader)
		if raw == "" {
			respondError(w, invalidArgument(ClientIDHeader+" header not specified."))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, invalidArgument(ClientIDHeader+" must be a UUID."))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClientID(r.Context(), id.String())))
	})
}
