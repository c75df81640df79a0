package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lagna/internal/divisional"
	"github.com/ppiankov/lagna/internal/model"
)

var (
	birthDate     string
	birthTime     string
	birthOffset   string
	birthLat      float64
	birthLon      float64
	ayanamsaName  string
	houseSystem   string
	nodeMode      string
	division      string
	fallbackWhole bool
	outJSON       string
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Compute a sidereal chart for a birth instant and place",
	Long: `Chart computes the sidereal positions of the Sun, Moon, planets and lunar
nodes, the ascendant, midheaven and house cusps for one birth instant.

Example:
  lagna chart --date 1985-10-24 --time 14:30 --offset +05:30 --lat 18.5204 --lon 73.8567
  lagna chart --date 1985-10-24 --time 14:30 --offset +05:30 --lat 18.52 --lon 73.86 --division D9
  lagna chart ... --houses placidus --fallback-whole-sign --json chart.json`,
	Args: cobra.NoArgs,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&birthDate, "date", "", "birth date (YYYY-MM-DD)")
	chartCmd.Flags().StringVar(&birthTime, "time", "", "local birth time (HH:MM)")
	chartCmd.Flags().StringVar(&birthOffset, "offset", "Z", "UTC offset of the local time (+05:30, -04:00, Z)")
	chartCmd.Flags().Float64Var(&birthLat, "lat", 0, "latitude in degrees, north positive")
	chartCmd.Flags().Float64Var(&birthLon, "lon", 0, "longitude in degrees, east positive")
	_ = chartCmd.MarkFlagRequired("date")
	_ = chartCmd.MarkFlagRequired("time")

	chartCmd.Flags().StringVar(&ayanamsaName, "ayanamsa", "", "ayanamsa (lahiri, raman, krishnamurti, custom:<degrees>)")
	chartCmd.Flags().StringVar(&houseSystem, "houses", "", "house system (whole_sign, equal, porphyry, placidus)")
	chartCmd.Flags().StringVar(&nodeMode, "nodes", "", "lunar node mode (mean, true)")
	chartCmd.Flags().StringVar(&division, "division", "", "divisional chart (D1, D2, D3, D4, D7, D9, D10, D12, D30, D60)")
	chartCmd.Flags().BoolVar(&fallbackWhole, "fallback-whole-sign", false, "rebuild in whole sign if the house system is undefined at the latitude")
	chartCmd.Flags().StringVar(&outJSON, "json", "", "write the snapshot as JSON to this path")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	q := model.BirthQuery{
		Date:        birthDate,
		Time:        birthTime,
		UTCOffset:   birthOffset,
		Latitude:    birthLat,
		Longitude:   birthLon,
		Ayanamsa:    ayanamsaName,
		HouseSystem: houseSystem,
		NodeMode:    nodeMode,
	}
	opts := cfg.Chart
	if division != "" {
		kind, err := divisional.ParseKind(division)
		if err != nil {
			return err
		}
		opts.Division = kind
	}
	if fallbackWhole {
		opts.FallbackWholeSign = true
	}

	snap, err := newApp(cfg).builder.BuildQuery(q, opts)
	if err != nil {
		return fmt.Errorf("chart failed: %w", err)
	}

	loc, _ := q.Location()
	printChart(os.Stdout, snap, loc)
	return writeJSON(outJSON, snap)
}

func printChart(w io.Writer, c model.ChartSnapshot, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	fmt.Fprintf(w, "%s chart for %s (%s UTC)\n", c.Kind,
		c.Instant.In(loc).Format("2006-01-02 15:04:05 -07:00"), c.Instant.UTC().Format("15:04:05"))
	fmt.Fprintf(w, "  Location:  %.4f, %.4f\n", c.Latitude, c.Longitude)
	fmt.Fprintf(w, "  Ayanamsa:  %s %s\n", c.Ayanamsa.Name, formatDegrees(c.Ayanamsa.Value))
	fmt.Fprintf(w, "  Houses:    %s", c.Houses.System)
	if c.HouseFallbackFrom != "" {
		fmt.Fprintf(w, " (fell back from %s)", c.HouseFallbackFrom)
	}
	fmt.Fprintf(w, "\n  Nodes:     %s\n", c.NodeMode)
	fmt.Fprintf(w, "  Ascendant: %s\n", formatLongitude(c.Houses.Ascendant))
	fmt.Fprintf(w, "  Midheaven: %s\n\n", formatLongitude(c.Houses.Midheaven))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BODY\tPOSITION\tHOUSE\tSPEED\t")
	for _, p := range c.Positions {
		retro := ""
		if p.Retrograde {
			retro = " R"
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%d\t%+.4f\t\n", p.Body, formatLongitude(p.Longitude), retro, p.House, p.Speed)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	for i, cusp := range c.Houses.Cusps {
		fmt.Fprintf(w, "  House %2d: %s\n", i+1, formatLongitude(cusp))
	}
}

// formatLongitude renders a longitude as degrees and minutes within its sign
func formatLongitude(lon float64) string {
	return fmt.Sprintf("%s %s", formatDegrees(model.DegreeInSign(lon)), model.SignOf(lon))
}

func formatDegrees(d float64) string {
	deg := int(d)
	mins := int((d - float64(deg)) * 60)
	return fmt.Sprintf("%2d°%02d'", deg, mins)
}
