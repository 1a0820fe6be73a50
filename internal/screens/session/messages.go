package session

// explainedMsg carries an AI explanation of a question's correct answer.
type explainedMsg struct {
	QuestionID string
	Text       string
	Err        error
}
