package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/ir"
	"github.com/roach88/lifegap/internal/lifetable"
	"github.com/roach88/lifegap/internal/loader"
)

// TableOptions holds flags for the table command.
type TableOptions struct {
	*RootOptions
	County  string
	Race    string
	Sex     string
	Columns map[string]string
	Lower   []float64
	Upper   []float64
	Mx      []float64
	Ax      []float64
	Radix   float64
}

// TableResult is the JSON payload of the table command.
type TableResult struct {
	TableID        string           `json:"table_id"`
	Radix          float64          `json:"radix"`
	LifeExpectancy float64          `json:"life_expectancy"`
	Rows           []map[string]any `json:"rows"`
}

// NewTableCommand creates the table command.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TableOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "table [records-file]",
		Short: "Build an abridged period life table",
		Long: `Build an abridged period life table from age-specific mortality rates.

Rates come either from a record file (CSV, YAML or JSON) filtered to one
county, race and sex, or directly from --lower, --upper and --mx. Use inf
as the last --upper value for an open final interval.

Example:
  lifegap table rates.csv --county 6001 --race White --sex Female
  lifegap table --lower 0,1,5 --upper 1,5,inf --mx 0.005,0.0008,0.02`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runTable(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.County, "county", "", "county to select from the record file")
	cmd.Flags().StringVar(&opts.Race, "race", "", "race to select from the record file")
	cmd.Flags().StringVar(&opts.Sex, "sex", "", "sex to select from the record file")
	cmd.Flags().StringToStringVar(&opts.Columns, "column", nil, "record column overrides, e.g. mx=rate,county=fips")
	cmd.Flags().Float64SliceVar(&opts.Lower, "lower", nil, "age group lower bounds")
	cmd.Flags().Float64SliceVar(&opts.Upper, "upper", nil, "age group upper bounds (inf for open)")
	cmd.Flags().Float64SliceVar(&opts.Mx, "mx", nil, "mortality rates")
	cmd.Flags().Float64SliceVar(&opts.Ax, "ax", nil, "optional average years lived by those dying")
	cmd.Flags().Float64Var(&opts.Radix, "radix", lifetable.DefaultRadix, "starting cohort size")

	return cmd
}

func runTable(opts *TableOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger()

	in, err := tableInput(opts, path)
	if err != nil {
		return fail(formatter, err)
	}
	in.Radix = floatSetting(cmd, "radix", opts.Radix, opts.settings().Radix)

	formatter.VerboseLog("Building life table with %d age groups", len(in.Mx))
	table, err := lifetable.Build(in)
	if err != nil {
		return fail(formatter, err)
	}

	radix := in.Radix
	if radix == 0 {
		radix = lifetable.DefaultRadix
	}
	id, err := ir.TableID(table.AgeLower, table.AgeUpper, table.Mx, table.Ax, radix)
	if err != nil {
		return fail(formatter, err)
	}
	log.Debug("life table built", zap.String("table_id", id), zap.Int("groups", table.Len()))

	switch formatter.Format {
	case "json":
		return formatter.Success(TableResult{
			TableID:        id,
			Radix:          radix,
			LifeExpectancy: table.LifeExpectancy(),
			Rows:           table.Rows(),
		})
	case "csv":
		return formatter.Rows(lifetable.Columns, table.Rows())
	default:
		return renderTable(formatter.Writer, table, radix)
	}
}

func tableInput(opts *TableOptions, path string) (lifetable.Input, error) {
	if path == "" {
		if len(opts.Mx) == 0 {
			return lifetable.Input{}, usagef("either a records file or --lower, --upper and --mx is required")
		}
		return lifetable.Input{
			AgeLower: opts.Lower,
			AgeUpper: upperBounds(opts.Upper),
			Mx:       opts.Mx,
			Ax:       opts.Ax,
		}, nil
	}

	if len(opts.Mx) > 0 || len(opts.Lower) > 0 || len(opts.Upper) > 0 {
		return lifetable.Input{}, usagef("--lower, --upper and --mx cannot be combined with a records file")
	}
	if opts.County == "" || opts.Race == "" || opts.Sex == "" {
		return lifetable.Input{}, usagef("--county, --race and --sex are required with a records file")
	}
	cols, err := columnMapping(opts.Columns)
	if err != nil {
		return lifetable.Input{}, err
	}
	records, err := loader.LoadRecords(path)
	if err != nil {
		return lifetable.Input{}, &loadError{err}
	}
	in, err := cohort.Schedule(records, cols, opts.County, opts.Race, opts.Sex)
	if err != nil {
		return lifetable.Input{}, err
	}
	if len(opts.Ax) > 0 {
		in.Ax = opts.Ax
	}
	return in, nil
}
