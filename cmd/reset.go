package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/examtraining/examtraining/internal/training"
)

// localPrefixes are the KV prefixes owned by the terminal trainer. Keys
// under "clients/" belong to the HTTP API and are left alone.
var localPrefixes = []string{"training/", "correct/", "preferences", "recent"}

var resetCmd = &cobra.Command{
	Use:   "reset [slug]",
	Short: "Forget local training progress",
	Long: `Without arguments, reset discards every local session, the record of
correctly answered questions, the preferences and the recent exams. With a
slug it only resets the progress of that exam.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			t, err := training.NewSessionStore(st.KV(), nil).Tracker(ctx, args[0])
			if err != nil {
				return err
			}
			if err := t.Reset(ctx); err != nil {
				return err
			}
			if err := t.ResetAnsweredCorrectly(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Progress of %q reset.\n", args[0])
			return nil
		}

		if !yes && !confirm(bufio.NewReader(cmd.InOrStdin()), out, "Forget all local training progress?") {
			fmt.Fprintln(out, "Nothing changed.")
			return nil
		}
		removed := 0
		for _, prefix := range localPrefixes {
			n, err := st.KV().Clear(ctx, prefix)
			if err != nil {
				return fmt.Errorf("clear %s: %w", prefix, err)
			}
			removed += n
		}
		fmt.Fprintf(out, "Removed %d entries.\n", removed)
		return nil
	},
}

// confirm asks a yes/no question and reads the reply from in.
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
