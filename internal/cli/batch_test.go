package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchText_PartialFailure(t *testing.T) {
	out, _, err := execute(t, "batch", filepath.Join("testdata", "job.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.False(t, Reported(err))

	assert.True(t, strings.HasPrefix(out, readGolden(t, "compare_text")), out)
	assert.Contains(t, out, "A vs B (Black, Male), 50 steps")
	assert.Contains(t, out, "A vs C (White, Female): Error [E211]")
	assert.Contains(t, out, "3 pair(s): 2 succeeded, 1 failed")
}

func TestBatchJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "batch", filepath.Join("testdata", "job.yaml"), "--workers", "3")
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	res := resp.Data
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Results, 3)

	blackMale := res.Results[1]
	require.NotNil(t, blackMale.Run)
	assert.Equal(t, "Black", blackMale.Request.Race)
	want := []float64{0.04652842966081037, 0.017619577681170284, 5.385863501300954}
	for i, g := range blackMale.Run.Groups {
		assert.InDelta(t, want[i], g.Contribution, 1e-9)
	}
	assert.InDelta(t, 49.868571440964516-44.41855195821556, blackMale.Run.ComparisonE0-blackMale.Run.BaselineE0, 1e-9)

	failed := res.Results[2]
	assert.Nil(t, failed.Run)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "E211", failed.Error.Code)
	assert.Contains(t, failed.Error.Message, `"C"`)
}

func TestBatchCSV(t *testing.T) {
	out, _, err := execute(t, "--format", "csv", "batch", filepath.Join("testdata", "job_ok.cue"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "age_lower,age_upper,contribution,county_a,county_b,race,sex,life_expectancy_difference", lines[0])
	assert.Contains(t, lines[1], ",A,B,White,Female,")
	assert.Contains(t, lines[6], ",A,B,Black,Male,")
}

func TestBatchSchemaError(t *testing.T) {
	_, errOut, err := execute(t, "batch", filepath.Join("testdata", "job_bad.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, "Error ["+ErrCodeJobSchema+"]")
}

func TestBatchMissingJob(t *testing.T) {
	_, errOut, err := execute(t, "batch", filepath.Join("testdata", "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, "Error ["+ErrCodeNotFound+"]")
}

func TestBatchMissingRecords(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.yaml")
	writeFile(t, job, "records: nowhere.csv\npairs:\n  - {county_a: A, county_b: B, race: W, sex: F}\n")

	_, errOut, err := execute(t, "batch", job)
	require.Error(t, err)
	assert.Contains(t, errOut, "Error ["+ErrCodeNotFound+"]")
}
