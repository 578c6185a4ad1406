package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lifegap/internal/store"
)

// RunsOptions holds flags for the runs subcommands.
type RunsOptions struct {
	*RootOptions
	County string
	Race   string
	Sex    string
	Limit  int
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect decompositions stored with --save",
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored runs in the order they were saved",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.County, "county", "", "only runs involving this county")
	list.Flags().StringVar(&opts.Race, "race", "", "only runs for this race")
	list.Flags().StringVar(&opts.Sex, "sex", "", "only runs for this sex")
	list.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs (0 for all)")

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show a stored run by content hash or UUID",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(opts, args[0], cmd)
		},
	}

	del := &cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete a stored run and its contributions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsDelete(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func openRunStore(opts *RunsOptions, formatter *OutputFormatter) (*store.Store, error) {
	path := opts.databasePath()
	formatter.VerboseLog("Opening run store %s", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, failWith(formatter, ErrCodeStore, err)
	}
	return st, nil
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	st, err := openRunStore(opts, formatter)
	if err != nil {
		return err
	}
	defer closeStore(opts.RootOptions, st)

	runs, err := st.ListRuns(cmd.Context(), store.RunFilter{
		County: opts.County,
		Race:   opts.Race,
		Sex:    opts.Sex,
		Limit:  opts.Limit,
	})
	if err != nil {
		return failWith(formatter, ErrCodeStore, err)
	}

	switch formatter.Format {
	case "json":
		return formatter.Success(runs)
	case "csv":
		rows := make([]map[string]any, len(runs))
		for i, r := range runs {
			rows[i] = runSummary(r)
		}
		return formatter.Rows(runListColumns, rows)
	default:
		return renderRunList(formatter.Writer, runs)
	}
}

func runRunsShow(opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	st, err := openRunStore(opts, formatter)
	if err != nil {
		return err
	}
	defer closeStore(opts.RootOptions, st)

	run, err := st.ReadRun(cmd.Context(), id)
	if err != nil {
		return fail(formatter, err)
	}
	if formatter.Format == "text" {
		fmt.Fprintf(formatter.Writer, "Run %s (%s)\n", run.UUID, run.ID)
		return renderRun(formatter.Writer, run)
	}
	return outputRun(formatter, run, true)
}

func runRunsDelete(opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	st, err := openRunStore(opts, formatter)
	if err != nil {
		return err
	}
	defer closeStore(opts.RootOptions, st)

	if err := st.DeleteRun(cmd.Context(), id); err != nil {
		return fail(formatter, err)
	}
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "Deleted run %s\n", id)
	return nil
}
