package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/training"
)

// Status codes of the callable-function protocol.
const (
	CodeInvalidArgument    = "invalid-argument"
	CodePermissionDenied   = "permission-denied"
	CodeNotFound           = "not-found"
	CodeAlreadyExists      = "already-exists"
	CodeFailedPrecondition = "failed-precondition"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

// FunctionError is an error reported to the caller with a protocol status.
type FunctionError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *FunctionError) Error() string {
	return e.Status + ": " + e.Message
}

// HTTPStatus maps the protocol status to an HTTP status code.
func (e *FunctionError) HTTPStatus() int {
	switch e.Status {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fnError(status, message string) *FunctionError {
	return &FunctionError{Status: status, Message: message}
}

func invalidArgument(message string) *FunctionError {
	return fnError(CodeInvalidArgument, message)
}

func notSpecified(field string) *FunctionError {
	return invalidArgument(field + " not specified.")
}

// toFunctionError classifies err. Unclassified errors are logged and
// reported as internal without details.
func toFunctionError(err error) *FunctionError {
	var fe *FunctionError
	if errors.As(err, &fe) {
		return fe
	}

	var verr *exam.ValidationError
	if errors.As(err, &verr) {
		return invalidArgument(verr.Error())
	}

	var sugErr *ai.ValidationError
	var invalid *llm.ErrInvalidResponse
	var rateLimit *llm.ErrRateLimit
	var unavailable *llm.ErrProviderUnavailable

	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return fnError(CodeNotFound, "Document not found.")
	case errors.Is(err, docstore.ErrExists):
		return fnError(CodeAlreadyExists, "Document already exists.")
	case errors.Is(err, training.ErrInvalidSelection):
		return invalidArgument("The question is not part of the session.")
	case errors.Is(err, llm.ErrDisabled):
		return fnError(CodeUnavailable, "AI features are not configured.")
	case errors.As(err, &rateLimit), errors.As(err, &unavailable):
		return fnError(CodeUnavailable, "The AI service is unavailable. Try again later.")
	case errors.As(err, &sugErr), errors.As(err, &invalid):
		slog.Warn("unusable AI response", "error", err)
		return fnError(CodeInternal, "The AI service returned an unusable answer.")
	}

	slog.Error("function failed", "error", err)
	return fnError(CodeInternal, "Internal error.")
}
