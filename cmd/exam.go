package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/mail"
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Manage the exams of the local database",
}

var examImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create an exam from a YAML definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := exam.LoadFile(args[0])
		if err != nil {
			return err
		}
		if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
			f.Owner = owner
		}

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		repo := exam.NewRepository(st.Documents())
		e, secrets, err := repo.Import(cmd.Context(), f, time.Now())
		if errors.Is(err, docstore.ErrExists) {
			return fmt.Errorf("an exam named %q already exists", *f.Title)
		}
		if err != nil {
			return err
		}

		publicURL, _ := cmd.Flags().GetString("public-url")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %q with %d questions.\n\n", e.Slug, len(f.Questions))
		fmt.Fprintf(out, "Access code: %s\n", secrets.AccessCode)
		fmt.Fprintf(out, "Edit code:   %s\n", secrets.EditCode)
		fmt.Fprintf(out, "Train:       %s\n", mail.ExamURL(publicURL, e.Slug, accessCodeIfPrivate(e, secrets)))
		fmt.Fprintf(out, "Edit:        %s\n", mail.EditURL(publicURL, e.Slug, secrets.EditCode))
		return nil
	},
}

func accessCodeIfPrivate(e exam.Exam, s exam.Secrets) string {
	if e.Private {
		return s.AccessCode
	}
	return ""
}

var examListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exams",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := exam.NewRepository(st.Documents())
		exams, err := repo.Exams(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(exams) == 0 {
			fmt.Fprintln(out, "No exams found.")
			return nil
		}

		fmt.Fprintf(out, "%-32s  %-32s  %9s  %4s  %s\n", "Slug", "Title", "Questions", "Pass", "Private")
		fmt.Fprintln(out, strings.Repeat("─", 92))
		for _, e := range exams {
			qs, err := repo.Questions(ctx, e.Slug)
			if err != nil {
				return err
			}
			private := ""
			if e.Private {
				private = "yes"
			}
			fmt.Fprintf(out, "%-32s  %-32s  %9d  %3d%%  %s\n",
				truncate(e.Slug, 32), truncate(e.Title, 32), len(qs), e.Threshold, private)
		}
		return nil
	},
}

var examBulkCmd = &cobra.Command{
	Use:   "bulk <slug> <file.txt>",
	Short: "Append questions written in the bulk text format",
	Long: `Append questions to an exam from a text file. Questions start with a
number ("1." or "1)"), answers with "-" and the correct answer with "*".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		text, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := exam.NewRepository(st.Documents())
		if _, err := repo.GetExam(ctx, slug); errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("exam %q not found", slug)
		} else if err != nil {
			return err
		}
		existing, err := repo.Questions(ctx, slug)
		if err != nil {
			return err
		}

		added, err := repo.AddQuestions(ctx, slug, exam.ParseBulk(string(text), 1))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %d questions to %q.\n", len(added), slug)
		for _, q := range added {
			if exam.MostSimilar(q.Description, existing) > exam.SimilarityThreshold {
				fmt.Fprintf(out, "Possible duplicate: %s\n", q.Description)
			}
		}
		return nil
	},
}

var examDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete an exam with its questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := exam.NewRepository(st.Documents())
		if _, err := repo.GetExam(ctx, args[0]); errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("exam %q not found", args[0])
		} else if err != nil {
			return err
		}
		if err := repo.DeleteExam(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", args[0])
		return nil
	},
}

func init() {
	examImportCmd.Flags().String("owner", "", "Owner e-mail address (overrides the file)")
	examImportCmd.Flags().String("public-url", mail.DefaultPublicURL, "Web client address used in printed links")

	examCmd.AddCommand(examImportCmd)
	examCmd.AddCommand(examListCmd)
	examCmd.AddCommand(examBulkCmd)
	examCmd.AddCommand(examDeleteCmd)
}
