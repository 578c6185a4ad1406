package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/store"
)

// DecomposeOptions holds flags for the decompose command.
type DecomposeOptions struct {
	*RootOptions
	Baseline   []float64
	Comparison []float64
	Lower      []float64
	Upper      []float64
	Ax         []float64
	Steps      int
	Workers    int
}

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecomposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Decompose a life expectancy gap between two rate schedules",
		Long: `Decompose e0(comparison) - e0(baseline) into one additive contribution
per age group with Horiuchi's stepwise replacement algorithm.

Example:
  lifegap decompose --lower 0,1,5 --upper 1,5,inf \
    --baseline 0.005,0.0008,0.02 --comparison 0.006,0.001,0.018`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(opts, cmd)
		},
	}

	cmd.Flags().Float64SliceVar(&opts.Baseline, "baseline", nil, "baseline mortality rates")
	cmd.Flags().Float64SliceVar(&opts.Comparison, "comparison", nil, "comparison mortality rates")
	cmd.Flags().Float64SliceVar(&opts.Lower, "lower", nil, "age group lower bounds")
	cmd.Flags().Float64SliceVar(&opts.Upper, "upper", nil, "age group upper bounds (inf for open)")
	cmd.Flags().Float64SliceVar(&opts.Ax, "ax", nil, "optional ax held fixed along the path")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "integration steps (default from config, 50)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent gradient evaluations (default from config, 1)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("comparison")
	_ = cmd.MarkFlagRequired("lower")
	_ = cmd.MarkFlagRequired("upper")

	return cmd
}

func runDecompose(opts *DecomposeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg := opts.settings()

	aligned := &cohort.Aligned{
		AgeLower:     opts.Lower,
		AgeUpper:     upperBounds(opts.Upper),
		BaselineMx:   opts.Baseline,
		ComparisonMx: opts.Comparison,
	}
	if len(opts.Ax) > 0 {
		aligned.Ax = opts.Ax
	}
	req := cohort.Request{
		Steps:   intSetting(cmd, "steps", opts.Steps, cfg.Steps),
		Workers: intSetting(cmd, "workers", opts.Workers, cfg.Workers),
	}

	run, err := decomposeAligned(opts.RootOptions, formatter, req, aligned)
	if err != nil {
		return fail(formatter, err)
	}
	return outputRun(formatter, run, false)
}

// decomposeAligned runs the decomposition for req and assembles the run.
func decomposeAligned(opts *RootOptions, formatter *OutputFormatter, req cohort.Request, aligned *cohort.Aligned) (store.Run, error) {
	formatter.VerboseLog("Decomposing %d age groups with %d steps", len(aligned.AgeLower), req.Steps)
	res, err := aligned.Decompose(req.Steps, req.Workers)
	if err != nil {
		return store.Run{}, err
	}
	run, err := store.NewRun(req, aligned, res)
	if err != nil {
		return store.Run{}, err
	}
	opts.logger().Debug("decomposition finished",
		zap.String("run_id", run.ID),
		zap.Int("steps", run.Steps),
		zap.Float64("total", run.TotalDifference),
		zap.Float64("residual", run.Residual()))
	return run, nil
}

func outputRun(formatter *OutputFormatter, run store.Run, saved bool) error {
	switch formatter.Format {
	case "json":
		return formatter.Success(newRunView(run, saved))
	case "csv":
		return formatter.Rows(cohort.RowColumns, runRows(run))
	default:
		if err := renderRun(formatter.Writer, run); err != nil {
			return err
		}
		if saved {
			fmt.Fprintf(formatter.Writer, "\nSaved run %s\n", run.UUID)
		}
		return nil
	}
}
