package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lagna/internal/chart"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/validate"
)

var compareJSON string

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <a.json> <b.json>",
	Short: "Compare two chart snapshots of the same divisional kind",
	Long: `Compare reports how the ascendant and every body moved between two
snapshots written by 'lagna chart --json'. Snapshots are decoded strictly:
unknown or missing fields are rejected.

Example:
  lagna compare early.json late.json
  lagna compare early.json late.json --json diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&compareJSON, "json", "", "write the diff as JSON to this path")
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := readSnapshot(args[0])
	if err != nil {
		return err
	}
	b, err := readSnapshot(args[1])
	if err != nil {
		return err
	}

	diff, err := chart.Diff(a, b)
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	printDiff(os.Stdout, diff)
	return writeJSON(compareJSON, diff)
}

func readSnapshot(path string) (model.ChartSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ChartSnapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	snap, err := validate.DecodeSnapshot(data)
	if err != nil {
		return model.ChartSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func printDiff(w io.Writer, d model.ChartDiff) {
	fmt.Fprintf(w, "%s: %s -> %s (%s)\n", d.Kind,
		d.From.Format("2006-01-02 15:04:05Z"), d.To.Format("2006-01-02 15:04:05Z"), d.To.Sub(d.From))
	changed := ""
	if d.AscendantSignChanged {
		changed = " (sign changed)"
	}
	fmt.Fprintf(w, "  Ascendant moved %+.4f°%s\n\n", d.AscendantDelta, changed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BODY\tDELTA\tSIGN\tHOUSE\t")
	for _, b := range d.Bodies {
		sign := b.NewSign.String()
		if b.SignChanged {
			sign = fmt.Sprintf("%s -> %s", b.OldSign, b.NewSign)
		}
		house := fmt.Sprintf("%d", b.NewHouse)
		if b.HouseChanged {
			house = fmt.Sprintf("%d -> %d", b.OldHouse, b.NewHouse)
		}
		fmt.Fprintf(tw, "%s\t%+.4f°\t%s\t%s\t\n", b.Body, b.DegreeDelta, sign, house)
	}
	_ = tw.Flush()
}
