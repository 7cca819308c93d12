package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/ui/report"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

const quitCommand = "/quit"

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Take an interview in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viperForCmd(cmd)
		role, err := interview.ParseRole(v.GetString("role"))
		if err != nil {
			return fmt.Errorf("%w (choose one of %s)", err, joinRoles())
		}
		exp, err := interview.ParseExperience(v.GetString("experience"))
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		engine, err := buildEngine(cmd.Context(), v, st, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		return runInterview(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout(),
			v.GetInt64("user"), role, exp, v.GetInt("width"))
	},
}

func init() {
	f := interviewCmd.Flags()
	f.StringP("role", "r", string(interview.RoleProduct), "Role to interview for ("+joinRoles()+")")
	f.StringP("experience", "e", string(interview.ExperienceMiddle), "Declared experience (junior, middle, senior, lead)")
	f.Int64("user", 1, "User ID owning the interview")
	f.Int("width", report.DefaultWidth, "Output width in columns")
	addEngineFlags(interviewCmd)
}

func joinRoles() string {
	roles := interview.AllRoles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// interviewEngine is the part of the session engine the terminal flow drives.
type interviewEngine interface {
	StartSession(ctx context.Context, userID int64, role interview.Role, exp interview.Experience) (*session.Started, error)
	SubmitAnswer(ctx context.Context, req session.AnswerRequest) (*session.TurnResult, error)
	Abandon(ctx context.Context, id string) error
}

// runInterview drives one interview over a line-oriented terminal. An answer
// ends with an empty line; /quit or end of input abandons the interview.
func runInterview(ctx context.Context, engine interviewEngine, in io.Reader, out io.Writer,
	userID int64, role interview.Role, exp interview.Experience, width int) error {
	started, err := engine.StartSession(ctx, userID, role, exp)
	if err != nil {
		return fmt.Errorf("start interview: %w", err)
	}

	fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("%s interview", role.DisplayName())))
	fmt.Fprintln(out, theme.Hint.Render("Finish each answer with an empty line. Type /quit to stop."))

	scanner := bufio.NewScanner(in)
	turn, question := started.Turn, started.Question
	for {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.Question(turn, started.Total, question, width))

		text, ok := readAnswer(scanner)
		if !ok {
			if err := engine.Abandon(ctx, started.SessionID); err != nil {
				return fmt.Errorf("abandon interview: %w", err)
			}
			fmt.Fprintln(out, theme.Warning.Render("Interview abandoned."))
			return nil
		}

		res, err := engine.SubmitAnswer(ctx, session.AnswerRequest{
			SessionID: started.SessionID,
			Turn:      turn,
			Text:      text,
		})
		var genErr *questiongen.GenerationError
		switch {
		case errors.Is(err, interview.ErrAnswerTooShort):
			fmt.Fprintln(out, theme.Warning.Render("That answer is too short. Please add some detail."))
			continue
		case errors.As(err, &genErr):
			fmt.Fprintln(out, theme.Warning.Render("The next question could not be prepared. Please answer again."))
			continue
		case err != nil:
			return fmt.Errorf("submit answer: %w", err)
		}

		fmt.Fprintln(out, report.Analysis(res.Analysis))
		if res.Completed {
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.Profile(res.Profile, width))
			return nil
		}
		turn, question = res.NextTurn, res.NextQuestion
	}
}

// readAnswer collects lines until an empty line. It reports false on /quit
// or when input ends with nothing collected.
func readAnswer(scanner *bufio.Scanner) (string, bool) {
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == quitCommand {
			return "", false
		}
		if strings.TrimSpace(line) == "" {
			if len(lines) == 0 {
				continue
			}
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
