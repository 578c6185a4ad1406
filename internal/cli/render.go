package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/lifetable"
	"github.com/roach88/lifegap/internal/store"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ageLabel renders [lower, upper) as "lower-upper", or "lower+" when open.
func ageLabel(lower float64, upper *float64) string {
	if upper == nil {
		return formatNumber(lower) + "+"
	}
	return formatNumber(lower) + "-" + formatNumber(*upper)
}

func renderTable(w io.Writer, t *lifetable.Table, radix float64) error {
	fmt.Fprintf(w, "Life table: %d age groups, radix %s\n", t.Len(), formatNumber(radix))
	fmt.Fprintf(w, "e0: %.4f\n\n", t.LifeExpectancy())

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "age\tmx\tax\tqx\tlx\tdx\tLx\tTx\tex")
	for i := 0; i < t.Len(); i++ {
		fmt.Fprintf(tw, "%s\t%.6f\t%.4f\t%.6f\t%.1f\t%.1f\t%.1f\t%.1f\t%.4f\n",
			ageLabel(t.AgeLower[i], t.AgeUpper[i]),
			t.Mx[i], t.Ax[i], t.Qx[i], t.Lx[i], t.Dx[i], t.LLx[i], t.Tx[i], t.Ex[i])
	}
	return tw.Flush()
}

func runTitle(run store.Run) string {
	var sb strings.Builder
	if run.CountyA == "" && run.CountyB == "" {
		sb.WriteString("baseline vs comparison")
	} else {
		fmt.Fprintf(&sb, "%s vs %s", run.CountyA, run.CountyB)
	}
	if run.Race != "" || run.Sex != "" {
		fmt.Fprintf(&sb, " (%s, %s)", run.Race, run.Sex)
	}
	fmt.Fprintf(&sb, ", %d steps", run.Steps)
	return sb.String()
}

func renderRun(w io.Writer, run store.Run) error {
	fmt.Fprintln(w, runTitle(run))
	fmt.Fprintln(w)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "age\tbaseline_mx\tcomparison_mx\tcontribution")
	for _, g := range run.Groups {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.4f\n",
			ageLabel(g.AgeLower, g.AgeUpper), g.BaselineMx, g.ComparisonMx, g.Contribution)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "e0 baseline:          %.4f\n", run.BaselineE0)
	fmt.Fprintf(w, "e0 comparison:        %.4f\n", run.ComparisonE0)
	fmt.Fprintf(w, "difference:           %.4f\n", run.ComparisonE0-run.BaselineE0)
	fmt.Fprintf(w, "sum of contributions: %.4f\n", run.TotalDifference)
	return nil
}

func renderRunList(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored runs.")
		return nil
	}
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "seq\tuuid\tcounty_a\tcounty_b\trace\tsex\tsteps\tdifference")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%.4f\n",
			r.Seq, r.UUID, r.CountyA, r.CountyB, r.Race, r.Sex, r.Steps, r.TotalDifference)
	}
	return tw.Flush()
}

// runRows converts a run into annotated contribution rows.
func runRows(run store.Run) []map[string]any {
	rows := make([]map[string]any, len(run.Groups))
	for i, g := range run.Groups {
		rows[i] = cohort.Row{
			AgeLower:                 g.AgeLower,
			AgeUpper:                 g.AgeUpper,
			Contribution:             g.Contribution,
			CountyA:                  run.CountyA,
			CountyB:                  run.CountyB,
			Race:                     run.Race,
			Sex:                      run.Sex,
			LifeExpectancyDifference: run.TotalDifference,
		}.Map()
	}
	return rows
}

// runListColumns are the CSV columns of runs list.
var runListColumns = []string{"seq", "id", "uuid", "county_a", "county_b", "race", "sex", "steps", "baseline_e0", "comparison_e0", "total_difference"}

func runSummary(r store.Run) map[string]any {
	return map[string]any{
		"seq":              strconv.FormatInt(r.Seq, 10),
		"id":               r.ID,
		"uuid":             r.UUID,
		"county_a":         r.CountyA,
		"county_b":         r.CountyB,
		"race":             r.Race,
		"sex":              r.Sex,
		"steps":            strconv.Itoa(r.Steps),
		"baseline_e0":      r.BaselineE0,
		"comparison_e0":    r.ComparisonE0,
		"total_difference": r.TotalDifference,
	}
}

// runView is the JSON payload for a single decomposition run.
type runView struct {
	store.Run
	Residual float64 `json:"residual"`
	Saved    bool    `json:"saved"`
}

func newRunView(run store.Run, saved bool) runView {
	return runView{Run: run, Residual: run.Residual(), Saved: saved}
}
