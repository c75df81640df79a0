package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/question"
	"github.com/ppiankov/lagna/internal/session"
	"github.com/ppiankov/lagna/internal/validate"
)

var (
	queryFile      string
	answersFile    string
	bankFile       string
	rectifyJSON    string
	metricsFile    string
	rectifyTimeout time.Duration
)

// rectifyCmd represents the rectify command
var rectifyCmd = &cobra.Command{
	Use:   "rectify",
	Short: "Narrow an uncertain birth time from answered questions",
	Long: `Rectify builds a chart for every candidate instant in the declared birth
time window and narrows the window by scoring answers to life-event and
trait questions against each candidate.

Without --answers the questionnaire runs interactively: each question is
the one expected to narrow the window the most. Type q to stop early.

Query file (YAML):
  date: "1985-10-24"
  time: "14:30"
  utc_offset: "+05:30"
  latitude: 18.5204
  longitude: 73.8567
  window: {start: "14:00", end: "15:00"}

Answers file (YAML):
  answers:
    - {question_id: marriage, answer: "yes", reported_date: "2012-05-04"}
    - {question_id: temperament, answer: air}

Example:
  lagna rectify --query birth.yaml
  lagna rectify --query birth.yaml --answers answers.yaml --json result.json`,
	Args: cobra.NoArgs,
	RunE: runRectify,
}

func init() {
	rootCmd.AddCommand(rectifyCmd)

	rectifyCmd.Flags().StringVar(&queryFile, "query", "", "birth query YAML file")
	rectifyCmd.Flags().StringVar(&answersFile, "answers", "", "answers YAML file (omit for an interactive questionnaire)")
	rectifyCmd.Flags().StringVar(&bankFile, "bank", "", "question bank YAML file (default: built-in bank)")
	rectifyCmd.Flags().StringVar(&rectifyJSON, "json", "", "write the final state and brief as JSON to this path")
	rectifyCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this path")
	rectifyCmd.Flags().DurationVar(&rectifyTimeout, "timeout", 30*time.Minute, "overall timeout")
	_ = rectifyCmd.MarkFlagRequired("query")
}

// answerFile is the YAML layout of --answers. Tag and weight default to the
// bank entry of the question id.
type answerFile struct {
	Answers []model.EvidenceItem `yaml:"answers"`
}

// rectifyReport is the JSON written by --json
type rectifyReport struct {
	State model.ConfidenceState  `json:"state"`
	Brief model.ExplanationBrief `json:"brief"`
}

func runRectify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var q model.BirthQuery
	if err := readYAML(queryFile, &q); err != nil {
		return err
	}
	if err := validate.Query(q); err != nil {
		return err
	}
	opts, err := cfg.Chart.Merge(q)
	if err != nil {
		return err
	}
	bank, err := loadBank(bankFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rectifyTimeout)
	defer cancel()

	a := newApp(cfg)
	m := a.sessions(bank, opts)

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Building candidate charts (%s)...\n", opts)
	}
	state, err := m.Create(ctx, q)
	if err != nil {
		return fmt.Errorf("rectify failed: %w", err)
	}
	id := state.SessionID
	defer func() { _ = m.Close(id) }()

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Built %d candidate charts\n\n", len(state.Candidates))
	}

	if answersFile != "" {
		var f answerFile
		if err := readYAML(answersFile, &f); err != nil {
			return err
		}
		if err := applyAnswers(ctx, m, id, bank, f.Answers); err != nil {
			return err
		}
	} else if err := runQuestionnaire(ctx, m, id, os.Stdin, os.Stdout); err != nil {
		return err
	}

	state, err = m.State(id)
	if err != nil {
		return err
	}
	loc, _ := q.Location()
	printResult(os.Stdout, state, loc, cfg.Rectification.CredibleMass)

	if err := writeJSON(rectifyJSON, rectifyReport{State: state, Brief: state.Brief()}); err != nil {
		return err
	}
	return a.writeMetrics(metricsFile)
}

// resolveAnswer fills tag and weight of an answer from the bank entry with
// the same question id
func resolveAnswer(bank []question.Question, item model.EvidenceItem) (model.EvidenceItem, error) {
	for _, q := range bank {
		if q.ID != item.QuestionID {
			continue
		}
		if item.Tag == "" {
			item.Tag = q.Tag
		}
		if item.Weight == 0 {
			item.Weight = q.Weight
		}
		return item, nil
	}
	if item.Tag == "" {
		return item, fmt.Errorf("answer %q: not in the question bank and no tag given", item.QuestionID)
	}
	return item, nil
}

func applyAnswers(ctx context.Context, m *session.Manager, id string, bank []question.Question, answers []model.EvidenceItem) error {
	for i, a := range answers {
		item, err := resolveAnswer(bank, a)
		if err != nil {
			return err
		}
		state, err := m.ApplyWait(ctx, id, item)
		if err != nil {
			return fmt.Errorf("answer %d (%s): %w", i+1, item.QuestionID, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %-20s confidence %5.1f (%s)\n", item.QuestionID, state.Confidence, state.Status)
		}
	}
	return nil
}

// errQuit is returned by ask when the respondent stops the questionnaire
var errQuit = errors.New("questionnaire stopped")

func runQuestionnaire(ctx context.Context, m *session.Manager, id string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		choice, err := m.Next(ctx, id)
		if errors.Is(err, question.ErrNoMoreQuestions) {
			fmt.Fprintln(out, "\nNo remaining question would narrow the window further.")
			return nil
		}
		if err != nil {
			return err
		}

		if choice.Clarifies != "" {
			fmt.Fprintf(out, "\n↺ That answer pulled against earlier ones; checking %s from another angle.\n", choice.Clarifies)
		}
		item, err := ask(scanner, out, choice.Question)
		if errors.Is(err, errQuit) {
			_, err := m.Finish(id)
			return err
		}
		if err != nil {
			return err
		}

		state, err := m.ApplyWait(ctx, id, item)
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			fmt.Fprintf(out, "  ✗ %v\n", vErr)
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "  confidence %.1f (%s)\n", state.Confidence, state.Reliability)
		if state.Status == model.StatusConverged {
			fmt.Fprintln(out, "\n✓ Converged.")
			return nil
		}
	}
}

// ask prompts for one question and turns the reply into evidence
func ask(scanner *bufio.Scanner, out io.Writer, q question.Question) (model.EvidenceItem, error) {
	fmt.Fprintf(out, "\n%s\n", q.Text)

	if q.Kind == question.KindEvent {
		for {
			reply, err := prompt(scanner, out, "  [yes/no/q]: ")
			if err != nil {
				return model.EvidenceItem{}, err
			}
			switch strings.ToLower(reply) {
			case "y", "yes":
				date, err := prompt(scanner, out, "  Date (YYYY-MM-DD, blank if unknown): ")
				if err != nil {
					return model.EvidenceItem{}, err
				}
				return q.Item(model.AnswerYes, date), nil
			case "n", "no":
				return q.Item(model.AnswerNo, ""), nil
			}
		}
	}

	for i, opt := range q.Options {
		label := opt
		if l, ok := q.Labels[opt]; ok {
			label = l
		}
		fmt.Fprintf(out, "  %d) %s\n", i+1, label)
	}
	for {
		reply, err := prompt(scanner, out, fmt.Sprintf("  [1-%d/q]: ", len(q.Options)))
		if err != nil {
			return model.EvidenceItem{}, err
		}
		if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(q.Options) {
			return q.Item(q.Options[n-1], ""), nil
		}
		for _, opt := range q.Options {
			if strings.EqualFold(reply, opt) {
				return q.Item(opt, ""), nil
			}
		}
	}
}

func prompt(scanner *bufio.Scanner, out io.Writer, text string) (string, error) {
	fmt.Fprint(out, text)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return "", errQuit
	}
	reply := strings.TrimSpace(scanner.Text())
	if strings.EqualFold(reply, "q") {
		return "", errQuit
	}
	return reply, nil
}

func printResult(w io.Writer, s model.ConfidenceState, loc *time.Location, mass float64) {
	if loc == nil {
		loc = time.UTC
	}
	clock := func(t time.Time) string { return t.In(loc).Format("15:04") }

	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Rectification Result")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Best estimate:  %s (%s UTC)\n",
		s.BestEstimate.In(loc).Format("2006-01-02 15:04 -07:00"), s.BestEstimate.UTC().Format("15:04"))
	fmt.Fprintf(w, "  Confidence:     %.1f (%s)\n", s.Confidence, s.Reliability)
	fmt.Fprintf(w, "  Credible %2.0f%%:   %s - %s\n", mass*100, clock(s.Credible.Start), clock(s.Credible.End))
	fmt.Fprintf(w, "  Window:         %s - %s (reported %s)\n", clock(s.Window.Start), clock(s.Window.End), clock(s.Reported))
	fmt.Fprintf(w, "  Evidence:       %d answers\n", len(s.Applied))
	if s.BoundaryClamped {
		fmt.Fprintln(w, "\n  ⚠️  The evidence favours a time outside the declared window;")
		fmt.Fprintln(w, "     the estimate is clamped to the nearer edge. Consider widening it.")
	}

	if tags := s.Brief().EvidenceTags; len(tags) > 0 {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = string(t)
		}
		fmt.Fprintf(w, "\n  Informative evidence: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)
}
