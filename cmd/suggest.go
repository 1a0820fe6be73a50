package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/ui/components"
	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/training"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <slug>",
	Short: "Generate new questions for an exam with an LLM",
	Long: `Generate questions in the style of the existing ones and review them one
by one. Accepted questions are appended to the exam.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntP("count", "n", 3, "Number of questions to generate")
	suggestCmd.Flags().StringP("subject", "s", "", "Subject the questions should be about")
	suggestCmd.Flags().String("like", "", "ID of the question to use as the only example")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	slug := args[0]
	count, _ := cmd.Flags().GetInt("count")
	subject, _ := cmd.Flags().GetString("subject")
	like, _ := cmd.Flags().GetString("like")

	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	repo := exam.NewRepository(st.Documents())
	e, err := repo.GetExam(ctx, slug)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("exam %q not found", slug)
	}
	if err != nil {
		return err
	}
	questions, err := repo.Questions(ctx, slug)
	if err != nil {
		return err
	}

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	suggester := ai.NewSuggester(provider, ai.DefaultConfig())
	examples := suggester.Examples(training.DefaultRand, questions, like)
	if like != "" && len(examples) == 0 {
		return fmt.Errorf("question %q not found in %q", like, slug)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	var accepted []exam.QuestionInput
	for i := range count {
		fmt.Fprintf(out, "Generating question %d of %d...\n", i+1, count)
		sug, err := suggester.Suggest(ctx, *e, examples, subject)
		if ai.IsValidation(err) {
			fmt.Fprintf(out, "  rejected: %v\n\n", err)
			continue
		}
		if err != nil {
			return err
		}

		printSuggestion(out, sug)
		if confirm(in, out, "Add this question?") {
			accepted = append(accepted, sug.Input())
		}
		fmt.Fprintln(out)
	}

	if len(accepted) == 0 {
		fmt.Fprintln(out, "No questions added.")
		return nil
	}
	added, err := repo.AddQuestions(ctx, slug, accepted)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %d questions to %q.\n", len(added), slug)
	return nil
}

func printSuggestion(w io.Writer, s *ai.Suggestion) {
	fmt.Fprintf(w, "\n%s\n", s.Description)
	for i, a := range s.Answers {
		mark := " "
		if a.Correct {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s) %s\n", mark, components.Label(i), a.Description)
	}
	if s.Explanation != "" {
		fmt.Fprintf(w, "  %s\n", s.Explanation)
	}
}
