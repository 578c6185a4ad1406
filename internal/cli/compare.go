package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/loader"
	"github.com/roach88/lifegap/internal/store"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	CountyA string
	CountyB string
	Race    string
	Sex     string
	Columns map[string]string
	Steps   int
	Workers int
	Save    bool
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <records-file>",
		Short: "Decompose the life expectancy gap between two counties",
		Long: `Align the age groups two counties share for one race and sex, then
decompose e0(county B) - e0(county A) into age-group contributions.

County A is the baseline. When an ax column is mapped, county A's values are
used and county B's fill in; a group with neither disables ax entirely.

Example:
  lifegap compare rates.csv --county-a 6001 --county-b 6019 --race White --sex Female
  lifegap compare rates.yaml --county-a 6001 --county-b 6019 --race White --sex Female --save`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CountyA, "county-a", "", "baseline county (required)")
	cmd.Flags().StringVar(&opts.CountyB, "county-b", "", "comparison county (required)")
	cmd.Flags().StringVar(&opts.Race, "race", "", "race stratum (required)")
	cmd.Flags().StringVar(&opts.Sex, "sex", "", "sex stratum (required)")
	cmd.Flags().StringToStringVar(&opts.Columns, "column", nil, "record column overrides, e.g. mx=rate,county=fips")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "integration steps (default from config, 50)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent gradient evaluations (default from config, 1)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store the run in the database given by --db")
	_ = cmd.MarkFlagRequired("county-a")
	_ = cmd.MarkFlagRequired("county-b")
	_ = cmd.MarkFlagRequired("race")
	_ = cmd.MarkFlagRequired("sex")

	return cmd
}

func runCompare(opts *CompareOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg := opts.settings()

	cols, err := columnMapping(opts.Columns)
	if err != nil {
		return fail(formatter, err)
	}
	records, err := loader.LoadRecords(path)
	if err != nil {
		return fail(formatter, &loadError{err})
	}
	formatter.VerboseLog("Loaded %d records from %s", len(records), path)

	req := cohort.Request{
		CountyA: opts.CountyA,
		CountyB: opts.CountyB,
		Race:    opts.Race,
		Sex:     opts.Sex,
		Steps:   intSetting(cmd, "steps", opts.Steps, cfg.Steps),
		Workers: intSetting(cmd, "workers", opts.Workers, cfg.Workers),
	}
	aligned, err := cohort.Align(records, cols, req)
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Aligned %d shared age groups", len(aligned.AgeLower))

	run, err := decomposeAligned(opts.RootOptions, formatter, req, aligned)
	if err != nil {
		return fail(formatter, err)
	}

	if opts.Save {
		st, err := store.Open(opts.databasePath())
		if err != nil {
			return failWith(formatter, ErrCodeStore, err)
		}
		defer closeStore(opts.RootOptions, st)

		if err := saveRun(cmd.Context(), opts.RootOptions, st, run); err != nil {
			return failWith(formatter, ErrCodeStore, err)
		}
	}
	return outputRun(formatter, run, opts.Save)
}

func saveRun(ctx context.Context, opts *RootOptions, st *store.Store, run store.Run) error {
	inserted, err := st.WriteRun(ctx, run)
	if err != nil {
		return err
	}
	opts.logger().Info("run stored",
		zap.String("run_id", run.ID),
		zap.String("uuid", run.UUID),
		zap.Bool("inserted", inserted))
	return nil
}

func closeStore(opts *RootOptions, st *store.Store) {
	if err := st.Close(); err != nil {
		opts.logger().Error("error closing run store", zap.Error(err))
	}
}
