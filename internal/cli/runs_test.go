package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifegap/internal/store"
)

func listRuns(t *testing.T, db string, extra ...string) []store.Run {
	t.Helper()
	args := append([]string{"--format", "json", "--db", db, "runs", "list"}, extra...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data
}

func TestCompareSaveAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, _, err := execute(t, append([]string{"--db", db}, compareArgs("--save")...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, readGolden(t, "compare_text")))
	assert.Contains(t, out, "Saved run ")

	// Saving the same content again is a no-op.
	_, _, err = execute(t, append([]string{"--db", db}, compareArgs("--save")...)...)
	require.NoError(t, err)

	runs := listRuns(t, db)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, int64(1), run.Seq)
	assert.Contains(t, out, "Saved run "+run.UUID)

	shown, _, err := execute(t, "--db", db, "runs", "show", run.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Run "+run.UUID+" ("+run.ID+")\n"+readGolden(t, "compare_text"), shown)

	byID, _, err := execute(t, "--format", "json", "--db", db, "runs", "show", run.ID)
	require.NoError(t, err)
	var resp struct {
		Data runView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(byID), &resp))
	assert.True(t, resp.Data.Saved)
	assert.Len(t, resp.Data.Groups, 3)
	assert.Equal(t, run.UUID, resp.Data.UUID)
}

func TestBatchSaveAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "--db", db, "batch", filepath.Join("testdata", "job_ok.cue"), "--save")
	require.NoError(t, err)

	runs := listRuns(t, db)
	require.Len(t, runs, 2)
	assert.Equal(t, "White", runs[0].Race)
	assert.Equal(t, "Black", runs[1].Race)
	assert.Less(t, runs[0].Seq, runs[1].Seq)

	filtered := listRuns(t, db, "--race", "Black")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Male", filtered[0].Sex)

	assert.Len(t, listRuns(t, db, "--limit", "1"), 1)

	text, _, err := execute(t, "--db", db, "runs", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "seq  uuid"), text)
	assert.Contains(t, text, runs[1].UUID)

	csvOut, _, err := execute(t, "--format", "csv", "--db", db, "runs", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1,"+runs[0].ID+","+runs[0].UUID+",A,B,White,Female,50,"), lines[1])
}

func TestRunsDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, append([]string{"--db", db}, compareArgs("--save")...)...)
	require.NoError(t, err)
	runs := listRuns(t, db)
	require.Len(t, runs, 1)

	out, _, err := execute(t, "--db", db, "runs", "delete", runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted run "+runs[0].ID+"\n", out)

	empty, _, err := execute(t, "--db", db, "runs", "list")
	require.NoError(t, err)
	assert.Equal(t, "No stored runs.\n", empty)

	_, errOut, err := execute(t, "--db", db, "runs", "delete", runs[0].ID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, "Error ["+ErrCodeNotFound+"]")
}

func TestRunsShowNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, errOut, err := execute(t, "--db", db, "runs", "show", "deadbeef")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, "Error ["+ErrCodeNotFound+"]")
}
