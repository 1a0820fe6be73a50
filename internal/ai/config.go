package ai

// Config controls the completion parameters of the Explainer and Suggester.
type Config struct {
	// MaxTokens is the token budget for a single completion.
	MaxTokens int

	// Temperature and TopP apply to explanations.
	Temperature float64
	TopP        float64

	// SuggestTemperature replaces Temperature for suggestions, which
	// benefit from a little more variety.
	SuggestTemperature float64

	// MaxExamples bounds the example questions included in a suggestion
	// prompt when no specific question is given.
	MaxExamples int

	// MaxAttempts is how many completions a suggestion may take before
	// validation failures are returned to the caller. Each retry carries
	// the previous validation errors in the prompt.
	MaxAttempts int

	// Validators run in order on every suggestion; the first failure stops
	// the pipeline.
	Validators []Validator
}

// DefaultConfig returns the parameters used by the hosted service.
func DefaultConfig() Config {
	return Config{
		MaxTokens:          512,
		Temperature:        0.1,
		TopP:               0.1,
		SuggestTemperature: 0.3,
		MaxExamples:        5,
		MaxAttempts:        2,
		Validators: []Validator{
			&StructuralValidator{},
			&AnswersValidator{},
		},
	}
}
