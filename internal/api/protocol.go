package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes bounds request bodies. Bulk imports are the largest.
const maxBodyBytes = 1 << 20

// function is a callable function. data is the raw "data" member of the
// request; the returned value becomes the "result" member.
type function func(ctx context.Context, data json.RawMessage) (any, error)

type callRequest struct {
	Data json.RawMessage `json:"data"`
}

type callResponse struct {
	Result any `json:"result"`
}

type errorResponse struct {
	Error *FunctionError `json:"error"`
}

// decodeParams unmarshals callable parameters. A missing data member
// decodes as an empty object.
func decodeParams(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalidArgument("invalid parameters: " + err.Error())
	}
	return nil
}

func readBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return invalidArgument("could not read request body")
	}
	if len(body) > maxBodyBytes {
		return invalidArgument("request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return invalidArgument("invalid JSON body")
	}
	return nil
}

func respondResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(callResponse{Result: result}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	fe := toFunctionError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(fe.HTTPStatus())
	if err := json.NewEncoder(w).Encode(errorResponse{Error: fe}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
