package exam

import (
	"regexp"
	"strings"
)

// SimilarityThreshold is the Similarity score above which a bulk-imported
// question is reported as a likely duplicate of an existing one.
const SimilarityThreshold = 0.95

var (
	bulkQuestionLine = regexp.MustCompile(`^\d+[.:]?\s*(.+)$`)
	bulkAnswerLine   = regexp.MustCompile(`^[-*•a-zA-Z][.:]?\s+(.+)$`)
)

// ParseBulk parses questions pasted as plain text:
//
//	1. What is the capital of France?
//	a. Berlin
//	* Paris
//	- Madrid
//
// A numbered line starts a question and a bulleted or lettered line starts
// an answer. A leading "*" marks the correct answer. Other lines continue
// the current answer, or the question text when no answer was started yet.
// Questions are numbered from minOrder. Answer identifiers are left empty
// for NormalizeQuestion to assign.
func ParseBulk(text string, minOrder int) []QuestionInput {
	var (
		questions []QuestionInput
		cur       *QuestionInput
	)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := bulkQuestionLine.FindStringSubmatch(line); m != nil {
			order := minOrder + len(questions)
			questions = append(questions, QuestionInput{Order: &order, Description: m[1]})
			cur = &questions[len(questions)-1]
			continue
		}
		if cur == nil {
			continue
		}

		if m := bulkAnswerLine.FindStringSubmatch(line); m != nil {
			order := len(cur.Answers) + 1
			cur.Answers = append(cur.Answers, AnswerInput{
				Order:       &order,
				Description: m[1],
				Correct:     strings.HasPrefix(line, "*"),
			})
			continue
		}

		if n := len(cur.Answers); n > 0 {
			cur.Answers[n-1].Description += " " + line
		} else {
			cur.Description += "\n" + line
		}
	}

	for i := range questions {
		questions[i].Description = strings.TrimSpace(questions[i].Description)
		for j := range questions[i].Answers {
			questions[i].Answers[j].Description = strings.TrimSpace(questions[i].Answers[j].Description)
		}
	}
	return questions
}

// Similarity returns the Sørensen–Dice coefficient of the character bigrams
// of a and b, compared case-insensitively. Identical strings score 1.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	matches := 0
	for i := 0; i < len(rb)-1; i++ {
		k := string(rb[i : i+2])
		if bigrams[k] > 0 {
			bigrams[k]--
			matches++
		}
	}
	return float64(2*matches) / float64(len(ra)+len(rb)-2)
}

// MostSimilar returns the highest Similarity between description and any
// existing question.
func MostSimilar(description string, existing []Question) float64 {
	best := 0.0
	for _, q := range existing {
		best = max(best, Similarity(description, q.Description))
	}
	return best
}
