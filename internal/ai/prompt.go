package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examtraining/examtraining/internal/exam"
)

// DefaultExplanationPrompt is the system prompt for exams that do not
// configure their own.
const DefaultExplanationPrompt = `You are a patient teacher helping a student prepare for an exam.
Keep explanations short and factual. Do not invent facts you are unsure about.`

const suggestSystemPrompt = "You are a teacher creating questions for an exam. You are given a set of " +
	"example questions and optionally a subject to help you create a new question. The explanation " +
	"field should contain context to better understand the correct answer."

// explainUserMessage asks why the correct answer beats the others.
func explainUserMessage(question, correct string, incorrect []string) string {
	return fmt.Sprintf(
		"Explain why %q is the correct answer instead of %q to the question %q. Explain in the language of the question.",
		correct, strings.Join(incorrect, `" or "`), question,
	)
}

// exampleQuestion is the shape of an example as shown to the model.
type exampleQuestion struct {
	Description string          `json:"description"`
	Explanation string          `json:"explanation"`
	Answers     []exampleAnswer `json:"answers"`
	Categories  []string        `json:"categories"`
}

type exampleAnswer struct {
	Description string `json:"description"`
	Correct     bool   `json:"correct"`
}

// suggestUserMessage describes the exam, the examples and the optional
// subject. Rejections from earlier attempts are appended so the model can
// correct them.
func suggestUserMessage(e exam.Exam, examples []exam.Question, subject string, rejections []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Exam title: %s\n\n", e.Title)
	description := e.Description
	if description == "" {
		description = "No description"
	}
	fmt.Fprintf(&b, "Exam description: %s\n\n", description)

	b.WriteString("Example questions:\n\n")
	if len(examples) == 0 {
		b.WriteString("No example questions")
	}
	for i, q := range examples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		ex := exampleQuestion{
			Description: q.Description,
			Explanation: q.Explanation,
			Categories:  q.Categories,
		}
		for _, a := range q.Answers {
			ex.Answers = append(ex.Answers, exampleAnswer{Description: a.Description, Correct: a.Correct})
		}
		data, _ := json.MarshalIndent(ex, "", "  ")
		fmt.Fprintf(&b, "```json\n%s\n```", data)
	}

	if subject != "" {
		fmt.Fprintf(&b, "\n\nSubject: %s", subject)
	}

	if len(rejections) > 0 {
		b.WriteString("\n\nYour previous suggestion was rejected:\n")
		for i, r := range rejections {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
		b.WriteString("Fix these problems in the new question.")
	}

	return b.String()
}
