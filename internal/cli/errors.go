package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/config"
	"github.com/roach88/lifegap/internal/lifetable"
	"github.com/roach88/lifegap/internal/loader"
	"github.com/roach88/lifegap/internal/store"
)

// Command error codes (E001-E009). Domain failures keep the E2xx code of
// the error that caused them.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeUsage      = "E002" // Invalid or conflicting flags
	ErrCodeConfig     = "E003" // Invalid configuration
	ErrCodeLoadFailed = "E004" // Record or job file could not be read
	ErrCodeNotFound   = "E005" // File or stored run not found
	ErrCodeJobSchema  = "E006" // Job file failed schema validation
	ErrCodeStore      = "E007" // Run store error
)

// classify maps err to a response code and exit code.
func classify(err error) (code string, exit int) {
	var (
		ve       *lifetable.ValidationError
		empty    *cohort.EmptyCohortError
		overlap  *cohort.NoOverlapError
		field    *cohort.FieldError
		jobErr   *loader.JobError
		cfgErrs  config.ValidationErrors
		usageErr *usageError
		loadErr  *loadError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Code, ExitFailure
	case errors.As(err, &empty):
		return cohort.ErrCodeEmptyCohort, ExitFailure
	case errors.As(err, &overlap):
		return cohort.ErrCodeNoOverlap, ExitFailure
	case errors.As(err, &field):
		return cohort.ErrCodeField, ExitFailure
	case errors.As(err, &jobErr):
		return ErrCodeJobSchema, ExitCommandError
	case errors.As(err, &cfgErrs):
		return ErrCodeConfig, ExitCommandError
	case errors.As(err, &usageErr):
		return ErrCodeUsage, ExitCommandError
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	case errors.As(err, &loadErr):
		return ErrCodeLoadFailed, ExitCommandError
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// usageError marks invalid flag combinations or values.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// loadError marks a record or job file that could not be read or parsed.
type loadError struct {
	err error
}

func (e *loadError) Error() string { return e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

// fail reports err through the formatter and returns the matching ExitError.
func fail(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	_ = formatter.Error(code, err.Error(), errorDetails(err))
	return &ExitError{Code: exit, Message: code, Err: err, Reported: true}
}

// failWith is fail with an explicit code, used when the cause is known to
// be a command error rather than a domain failure.
func failWith(formatter *OutputFormatter, code string, err error) error {
	_ = formatter.Error(code, err.Error(), errorDetails(err))
	return &ExitError{Code: ExitCommandError, Message: code, Err: err, Reported: true}
}

func errorDetails(err error) any {
	var ve *lifetable.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var field *cohort.FieldError
	if errors.As(err, &field) {
		return map[string]any{"column": field.Column, "row": field.Row, "reason": field.Reason}
	}
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
