package training

// Result is the outcome of a finished session.
type Result struct {
	TotalCorrect      int       `json:"totalCorrect"`
	PercentageCorrect int       `json:"percentageCorrect"`
	Passed            bool      `json:"passed"`
	Outcomes          []Outcome `json:"outcomes"`
}

// Outcome is the result of a single question, in session order.
type Outcome struct {
	QuestionID string `json:"questionId"`

	// Chosen is the recorded answer id, empty when unanswered.
	Chosen string `json:"chosen"`

	// CorrectAnswer is empty when the question has no correct answer.
	CorrectAnswer string `json:"correctAnswer"`

	Correct bool `json:"correct"`
}

// Score computes the result of a session against a pass threshold in
// percent. The percentage is rounded up using integer arithmetic.
// Unanswered questions and questions without a correct answer count as
// incorrect. An empty session scores zero
// and does not pass unless the threshold is zero.
func Score(s *Session, threshold int) Result {
	r := Result{Outcomes: make([]Outcome, 0, len(s.Questions))}

	for _, q := range s.Questions {
		chosen := s.Answers[q.ID]
		correctID, _ := q.CorrectAnswerID()
		ok := IsCorrect(q, chosen)
		if ok {
			r.TotalCorrect++
		}
		r.Outcomes = append(r.Outcomes, Outcome{
			QuestionID:    q.ID,
			Chosen:        chosen,
			CorrectAnswer: correctID,
			Correct:       ok,
		})
	}

	if n := len(s.Questions); n > 0 {
		r.PercentageCorrect = (r.TotalCorrect*100 + n - 1) / n
	}
	r.Passed = r.PercentageCorrect >= threshold
	return r
}
