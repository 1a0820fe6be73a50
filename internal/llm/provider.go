// Package llm talks to hosted language models. Every provider accepts the
// same Request and returns either plain text or JSON validated against a
// schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a completion for a Request.
type Provider interface {
	// Generate sends the request and returns the completion. With a Schema
	// the provider uses its native structured output and Content holds the
	// validated object; without one Text holds the plain answer.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation. Explanations and suggestions are single
	// user messages.
	Messages []Message

	// Schema, when set, constrains the answer to a JSON object.
	Schema *Schema

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature and TopP tune sampling. Zero leaves the provider default.
	Temperature float64
	TopP        float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage is shorthand for a single-turn conversation.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema in provider requests and in the compiled
	// schema cache, e.g. "question_response".
	Name string

	// Description is sent to the model when the provider supports it.
	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the validated JSON object for schema requests, and the
	// text encoded as a JSON string otherwise.
	Content json.RawMessage

	// Text is the raw completion text.
	Text string

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// textResponse builds the Content/Text pair for a completion.
func textResponse(schema *Schema, text string) (json.RawMessage, error) {
	if schema != nil {
		content := json.RawMessage(text)
		if err := validateResponse(schema, content); err != nil {
			return nil, err
		}
		return content, nil
	}
	b, err := json.Marshal(text)
	if err != nil {
		return nil, &ErrInvalidResponse{Err: err}
	}
	return b, nil
}
