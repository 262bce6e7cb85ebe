package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/render"
	"github.com/repeticio/repeticio/internal/session"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Play one exercise without the TUI",
	Long: `Fetches an exercise (or resumes the saved one), prints it and submits
an answer. The answer comes from --answer or is read from stdin as the
number shown next to the choice. An empty answer leaves the exercise
pending for the next run.

--skip drops the saved exercise first. --rate up or --rate down sends a
thumbs up or down for the exercise once it is answered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		env, err := openClient(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		m := env.machine
		m.Subscribe(printer(out))

		rating, _ := cmd.Flags().GetString("rate")
		var positive bool
		switch rating {
		case "":
		case "up":
			positive = true
		case "down":
		default:
			return fmt.Errorf("--rate must be up or down, got %q", rating)
		}

		ctx := cmd.Context()
		if skip, _ := cmd.Flags().GetBool("skip"); skip && m.State().HasActive() {
			if err := m.Discard(); err != nil {
				return statusError(err)
			}
			fmt.Fprintln(out, "Skipped the saved exercise.")
		}
		if st := m.State(); st.HasActive() {
			printExercise(out, render.NewExerciseView(st.Active))
		} else if err := m.FetchNewExercise(ctx); err != nil {
			return statusError(err)
		}

		key, _ := cmd.Flags().GetString("answer")
		if key == "" {
			fmt.Fprint(out, "Answer: ")
			key, err = readAnswer(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}
		if key == "" {
			fmt.Fprintln(out, "No answer given; the exercise stays pending.")
			return nil
		}

		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			return fmt.Errorf("answer %q is not a choice number", key)
		}
		if err := m.SubmitAnswer(ctx, n-1); err != nil {
			return statusError(err)
		}

		if rating != "" {
			if err := m.RateLast(ctx, positive); err != nil {
				return statusError(err)
			}
		}
		return nil
	},
}

func init() {
	exerciseCmd.Flags().String("answer", "", "Choice number to submit (1 for the first answer)")
	exerciseCmd.Flags().Bool("skip", false, "Drop the saved exercise and fetch a new one")
	exerciseCmd.Flags().String("rate", "", "Rate the answered exercise: up or down")
}

// statusError prefixes err with its user-facing description.
func statusError(err error) error {
	return fmt.Errorf("%s: %w", render.Status(err), err)
}

// printer returns an observer that prints loaded exercises and results.
func printer(w io.Writer) session.Observer {
	return func(ev session.Event) {
		switch ev.Kind {
		case session.EventExerciseLoaded:
			printExercise(w, render.NewExerciseView(ev.State.Active))
		case session.EventResolved:
			if rv, ok := render.NewResultView(ev.State); ok {
				fmt.Fprintln(w, rv.Verdict())
				if rv.Message != "" {
					fmt.Fprintln(w, rv.Message)
				}
			}
		case session.EventRated:
			if rv, ok := render.NewResultView(ev.State); ok {
				fmt.Fprintln(w, rv.RatingLabel())
			}
		case session.EventExerciseDiscarded:
			if ev.Err != nil {
				fmt.Fprintln(w, render.Status(ev.Err))
			}
		}
	}
}

func printExercise(w io.Writer, v render.ExerciseView) {
	for _, s := range v.Initial {
		fmt.Fprintln(w, s)
	}
	for _, s := range v.Middle {
		fmt.Fprintln(w, s)
	}
	fmt.Fprintln(w)
	for _, c := range v.Answers {
		fmt.Fprintf(w, "  [%s] %s\n", render.KeyFor(c), c.Text)
	}
	fmt.Fprintln(w)
}

func readAnswer(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
