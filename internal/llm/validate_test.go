package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func answerSchema() *Schema {
	return &Schema{
		Name:        "test_answer",
		Description: "An answer option",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{"type": "string", "minLength": 1},
				"correct":     map[string]any{"type": "boolean"},
				"tags": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required":             []any{"description", "correct"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"description":"Paris","correct":true}`, false},
		{"valid with optional", `{"description":"Paris","correct":false,"tags":["geo"]}`, false},
		{"missing required", `{"description":"Paris"}`, true},
		{"wrong type", `{"description":"Paris","correct":"yes"}`, true},
		{"empty string", `{"description":"","correct":true}`, true},
		{"extra property", `{"description":"Paris","correct":true,"score":1}`, true},
		{"wrong item type", `{"description":"Paris","correct":true,"tags":[1]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(answerSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := ValidateJSON(nil, json.RawMessage(`"plain text"`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}

func TestTextResponse(t *testing.T) {
	content, err := textResponse(nil, `Because "x" holds.`)
	if err != nil {
		t.Fatalf("textResponse: %v", err)
	}
	var s string
	if err := json.Unmarshal(content, &s); err != nil || s != `Because "x" holds.` {
		t.Fatalf("content = %s", content)
	}

	if _, err := textResponse(answerSchema(), `not json`); err == nil {
		t.Fatal("schema responses must be validated")
	}
}
