package loader

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/decomp"
)

//go:embed job.cue
var jobSchema string

// Job describes a batch of county pair decompositions over one record file.
type Job struct {
	// Records is the record file path. Relative paths resolve against the
	// directory of the job file.
	Records string               `json:"records"`
	Columns cohort.ColumnMapping `json:"columns"`
	Steps   int                  `json:"steps"`
	Workers int                  `json:"workers"`
	Pairs   []cohort.Request     `json:"pairs"`
}

// Requests returns the pairs with job-level defaults applied.
func (j *Job) Requests() []cohort.Request {
	reqs := make([]cohort.Request, len(j.Pairs))
	for i, p := range j.Pairs {
		if p.Steps == 0 {
			p.Steps = j.Steps
		}
		reqs[i] = p
	}
	return reqs
}

// JobError reports a job file that failed schema validation.
type JobError struct {
	Message string
	Pos     token.Pos
}

func (e *JobError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadJob reads a .cue, .yaml, .yml or .json job file and validates it
// against the job schema.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	job, err := ParseJob(data, path)
	if err != nil {
		return nil, err
	}

	if job.Records != "" && !filepath.IsAbs(job.Records) {
		job.Records = filepath.Join(filepath.Dir(path), job.Records)
	}
	return job, nil
}

// ParseJob validates and decodes job source. The file name selects the
// syntax (CUE for .cue, YAML otherwise) and labels error positions.
func ParseJob(data []byte, filename string) (*Job, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(jobSchema, cue.Filename("job.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("job schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Job"))

	var v cue.Value
	if strings.EqualFold(filepath.Ext(filename), ".cue") {
		v = ctx.CompileBytes(data, cue.Filename(filename))
	} else {
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse job file: %w", err)
		}
		var doc map[string]any
		if len(root.Content) > 0 {
			quoteZeroPadded(&root)
			if err := root.Decode(&doc); err != nil {
				return nil, fmt.Errorf("failed to parse job file: %w", err)
			}
		}
		if doc == nil {
			return nil, &JobError{Message: filename + ": job file is empty"}
		}
		v = ctx.Encode(doc)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	// Labels may be numbers; round-trip through JSON so they keep their
	// literal digits.
	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var file jobFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	job := file.job()
	job.applyDefaults()
	return job, nil
}

type jobFile struct {
	Records string               `json:"records"`
	Columns cohort.ColumnMapping `json:"columns"`
	Steps   int                  `json:"steps"`
	Workers int                  `json:"workers"`
	Pairs   []pairFile           `json:"pairs"`
}

type pairFile struct {
	CountyA label `json:"county_a"`
	CountyB label `json:"county_b"`
	Race    label `json:"race"`
	Sex     label `json:"sex"`
	Steps   int   `json:"steps"`
}

func (f jobFile) job() *Job {
	job := &Job{
		Records: f.Records,
		Columns: f.Columns,
		Steps:   f.Steps,
		Workers: f.Workers,
		Pairs:   make([]cohort.Request, len(f.Pairs)),
	}
	for i, p := range f.Pairs {
		job.Pairs[i] = cohort.Request{
			CountyA: string(p.CountyA),
			CountyB: string(p.CountyB),
			Race:    string(p.Race),
			Sex:     string(p.Sex),
			Steps:   p.Steps,
		}
	}
	return job
}

// label is a county, race or sex value written either as a string or as a
// bare number.
type label string

func (l *label) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = label(s)
		return nil
	}
	*l = label(b)
	return nil
}

// quoteZeroPadded retags integers written with a leading zero as strings so
// county codes like 06001 are not read as octal.
func quoteZeroPadded(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!int" && zeroPadded(n.Value) {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		quoteZeroPadded(c)
	}
}

func (j *Job) applyDefaults() {
	j.Columns = j.Columns.WithDefaults()
	if j.Steps == 0 {
		j.Steps = decomp.DefaultSteps
	}
	if j.Workers == 0 {
		j.Workers = 1
	}
}

// formatCUEError keeps the first error and its source position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	je := &JobError{Message: fmt.Sprintf(format, args...)}
	if path := first.Path(); len(path) > 0 {
		je.Message = strings.Join(path, ".") + ": " + je.Message
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		je.Pos = positions[0]
	}
	return je
}
