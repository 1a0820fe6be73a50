package ai

import "github.com/examtraining/examtraining/internal/llm"

// QuestionSchema is the structured output of a suggestion.
var QuestionSchema = &llm.Schema{
	Name:        "question_response",
	Description: "A multiple-choice exam question with its answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "The question text shown to the student",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Context that helps to understand the correct answer",
			},
			"answers": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"correct":     map[string]any{"type": "boolean"},
					},
					"required":             []any{"description", "correct"},
					"additionalProperties": false,
				},
			},
			"categories": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []any{"description", "explanation", "answers", "categories"},
		"additionalProperties": false,
	},
}
