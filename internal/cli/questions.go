package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lagna/internal/score"
)

// questionsCmd represents the questions command
var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the rectification question bank",
	Long: `List every question the rectify questionnaire may ask, with the evidence
tag it produces, the chart factor it discriminates and its weight.

Example:
  lagna questions
  lagna questions --bank my-bank.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := loadBank(bankFile)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tTAG\tFACTOR\tWEIGHT\tOPTIONS\t")
		for _, q := range bank {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\t\n",
				q.ID, q.Kind, q.Tag, q.Factor, q.Weight, strings.Join(q.Options, "|"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if verbose {
			fmt.Println()
			for _, q := range bank {
				fmt.Printf("%s: %s\n  scored by %s\n", q.ID, q.Text, score.RuleSummary(q.Tag))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.Flags().StringVar(&bankFile, "bank", "", "question bank YAML file (default: built-in bank)")
}
