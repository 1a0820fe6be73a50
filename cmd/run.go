package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/ai"
	"github.com/examtraining/examtraining/internal/app"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/llm"
	"github.com/examtraining/examtraining/internal/screens"
	"github.com/examtraining/examtraining/internal/training"
)

var trainCmd = &cobra.Command{
	Use:   "train <slug>",
	Short: "Train on an exam of the local database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args[0])
	},
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command, slug string) error {
	ctx := cmd.Context()
	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := app.Options{
		Env: screens.Env{
			Exams:    exam.NewRepository(st.Documents()),
			Sessions: training.NewSessionStore(st.KV(), nil),
		},
		Slug: slug,
	}

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "AI explanations will be unavailable.")
	} else {
		opts.Explainer = ai.NewExplainer(provider, ai.DefaultConfig())
	}

	return app.Run(opts)
}
