package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decomposeArgs(extra ...string) []string {
	args := append([]string{"decompose"}, threeGroupFlags...)
	args = append(args, "--baseline", "0.005,0.0008,0.02", "--comparison", "0.006,0.001,0.018")
	return append(args, extra...)
}

func TestDecomposeText(t *testing.T) {
	out, _, err := execute(t, decomposeArgs("--steps", "20")...)
	require.NoError(t, err)
	assertGolden(t, "decompose_text", out)
}

func TestDecomposeStepsFromConfig(t *testing.T) {
	t.Setenv("LIFEGAP_STEPS", "20")

	out, _, err := execute(t, decomposeArgs()...)
	require.NoError(t, err)
	assertGolden(t, "decompose_text", out)
}

func TestDecomposeJSON(t *testing.T) {
	out, _, err := execute(t, append([]string{"--format", "json"}, decomposeArgs("--workers", "3")...)...)
	require.NoError(t, err)

	var resp struct {
		Status string  `json:"status"`
		Data   runView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	run := resp.Data
	assert.Equal(t, 50, run.Steps)
	assert.False(t, run.Saved)
	assert.False(t, run.AxSupplied)
	require.Len(t, run.Groups, 3)
	assert.InDelta(t, -0.05667080590554718, run.Groups[0].Contribution, 1e-9)
	assert.InDelta(t, -0.043347411240425515, run.Groups[1].Contribution, 1e-9)
	assert.InDelta(t, 5.505051496124765, run.Groups[2].Contribution, 1e-9)
	assert.InDelta(t, 5.405037779669463, run.ComparisonE0-run.BaselineE0, 1e-9)
	assert.InDelta(t, 0, run.Residual, 1e-4)
}

func TestDecomposeErrors(t *testing.T) {
	_, errOut, err := execute(t, decomposeArgs("--steps=-1")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut, "Error [E208]")

	_, errOut, err = execute(t, "decompose", "--lower", "0,1", "--upper", "1,inf",
		"--baseline", "0.1,0.2", "--comparison", "0.1")
	require.Error(t, err)
	assert.Contains(t, errOut, "Error [E201]")

	_, _, err = execute(t, "decompose", "--lower", "0,1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
