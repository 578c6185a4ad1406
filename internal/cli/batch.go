package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/loader"
	"github.com/roach88/lifegap/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Workers int
	Save    bool
}

// BatchItem is the outcome of one pair in the batch JSON payload.
type BatchItem struct {
	Request cohort.Request `json:"request"`
	Run     *runView       `json:"run,omitempty"`
	Error   *CLIError      `json:"error,omitempty"`
}

// BatchResult is the JSON payload of the batch command.
type BatchResult struct {
	Job       string      `json:"job"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <job-file>",
		Short: "Decompose many county pairs described by a job file",
		Long: `Run every county pair listed in a job file (.cue, .yaml or .json).

The job is validated against the job schema before any work starts. Pairs
run concurrently up to the job's workers setting; a failing pair is
reported without stopping the others, and the command then exits 1.

Example job (YAML):
  records: rates.csv
  steps: 50
  pairs:
    - {county_a: "6001", county_b: "6019", race: White, sex: Female}`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "pairs decomposed concurrently (default from job file)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store every successful run in the database given by --db")

	return cmd
}

func runBatch(opts *BatchOptions, jobPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger().With(zap.String("job", jobPath))

	job, err := loader.LoadJob(jobPath)
	if err != nil {
		var jobErr *loader.JobError
		if errors.As(err, &jobErr) {
			return fail(formatter, err)
		}
		return fail(formatter, &loadError{err})
	}
	records, err := loader.LoadRecords(job.Records)
	if err != nil {
		return fail(formatter, &loadError{err})
	}
	formatter.VerboseLog("Loaded %d records from %s", len(records), job.Records)

	var st *store.Store
	if opts.Save {
		st, err = store.Open(opts.databasePath())
		if err != nil {
			return failWith(formatter, ErrCodeStore, err)
		}
		defer closeStore(opts.RootOptions, st)
	}

	workers := intSetting(cmd, "workers", opts.Workers, job.Workers)
	reqs := job.Requests()
	log.Info("batch started", zap.Int("pairs", len(reqs)), zap.Int("workers", workers))

	results, err := cohort.Batch(cmd.Context(), records, job.Columns, reqs, workers)
	if err != nil {
		return fail(formatter, err)
	}

	out := BatchResult{Job: jobPath, Results: make([]BatchItem, len(results))}
	runs := make([]store.Run, 0, len(results))
	for i, pr := range results {
		item := BatchItem{Request: pr.Request}
		run, err := batchRun(pr)
		if err != nil {
			code, _ := classify(err)
			item.Error = &CLIError{Code: code, Message: err.Error()}
			out.Failed++
			log.Warn("pair failed",
				zap.String("county_a", pr.Request.CountyA),
				zap.String("county_b", pr.Request.CountyB),
				zap.Error(err))
			out.Results[i] = item
			continue
		}
		if st != nil {
			if err := saveRun(cmd.Context(), opts.RootOptions, st, run); err != nil {
				return failWith(formatter, ErrCodeStore, err)
			}
		}
		view := newRunView(run, st != nil)
		item.Run = &view
		out.Succeeded++
		out.Results[i] = item
		runs = append(runs, run)
	}
	log.Info("batch finished", zap.Int("succeeded", out.Succeeded), zap.Int("failed", out.Failed))

	if err := outputBatch(formatter, out, runs); err != nil {
		return err
	}
	if out.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d pairs failed", out.Failed, len(results)))
	}
	return nil
}

func batchRun(pr cohort.PairResult) (store.Run, error) {
	if pr.Err != nil {
		return store.Run{}, pr.Err
	}
	return store.NewRun(pr.Request, pr.Aligned, pr.Result)
}

func outputBatch(formatter *OutputFormatter, out BatchResult, runs []store.Run) error {
	switch formatter.Format {
	case "json":
		return formatter.Success(out)
	case "csv":
		var rows []map[string]any
		for _, run := range runs {
			rows = append(rows, runRows(run)...)
		}
		return formatter.Rows(cohort.RowColumns, rows)
	}

	w := formatter.Writer
	for i, item := range out.Results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if item.Error != nil {
			r := item.Request
			fmt.Fprintf(w, "%s vs %s (%s, %s): Error [%s]: %s\n",
				r.CountyA, r.CountyB, r.Race, r.Sex, item.Error.Code, item.Error.Message)
			continue
		}
		if err := renderRun(w, item.Run.Run); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "\n%d pair(s): %d succeeded, %d failed\n", len(out.Results), out.Succeeded, out.Failed)
	return nil
}
