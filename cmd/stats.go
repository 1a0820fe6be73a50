package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/exam"
	"github.com/examtraining/examtraining/internal/training"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training progress per exam",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := exam.NewRepository(st.Documents())
		sessions := training.NewSessionStore(st.KV(), nil)

		exams, err := repo.Exams(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(exams) == 0 {
			fmt.Fprintln(out, "No exams found.")
			return nil
		}

		fmt.Fprintf(out, "%-32s  %9s  %-16s  %s\n", "Exam", "Mastered", "Session", "Score")
		rule(out, 72)
		for _, e := range exams {
			qs, err := repo.Questions(ctx, e.Slug)
			if err != nil {
				return err
			}
			t, err := sessions.Tracker(ctx, e.Slug)
			if err != nil {
				return err
			}

			mastered := 0
			correct := t.AnsweredCorrectlyEver()
			for _, q := range qs {
				if correct.Has(q.ID) {
					mastered++
				}
			}

			session, score := "-", ""
			switch {
			case !t.HasSession():
			case t.IsFinished():
				session = "finished"
				if r, ok := t.Score(e.Threshold); ok {
					score = fmt.Sprintf("%d%%", r.PercentageCorrect)
					if r.Passed {
						score += " passed"
					}
				}
			default:
				pos, total := t.Position()
				session = fmt.Sprintf("question %d/%d", pos, total)
			}
			fmt.Fprintf(out, "%-32s  %4d/%-4d  %-16s  %s\n",
				truncate(e.Slug, 32), mastered, len(qs), session, score)
		}
		return nil
	},
}
