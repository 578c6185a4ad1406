package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() RunInput {
	one, five := 1.0, 5.0
	return RunInput{
		CountyA:      "A",
		CountyB:      "B",
		Race:         "White",
		Sex:          "Female",
		Steps:        50,
		AgeLower:     []float64{0, 1, 5},
		AgeUpper:     []*float64{&one, &five, nil},
		BaselineMx:   []float64{0.005, 0.0008, 0.02},
		ComparisonMx: []float64{0.006, 0.001, 0.018},
	}
}

func TestHashWithDomain(t *testing.T) {
	data := []byte(`{"a":1}`)
	h := sha256.Sum256(append([]byte("lifegap/run/v1\x00"), data...))
	assert.Equal(t, hex.EncodeToString(h[:]), hashWithDomain(DomainRun, data))
	assert.NotEqual(t, hashWithDomain(DomainRun, data), hashWithDomain(DomainTable, data))
}

func TestRunID_Deterministic(t *testing.T) {
	id1, err := RunID(sampleRun())
	require.NoError(t, err)
	id2, err := RunID(sampleRun())
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
	assert.Equal(t, RunUUID(id1), RunUUID(id2))
}

func TestRunID_SensitiveToContent(t *testing.T) {
	base := MustRunID(sampleRun())

	mutations := map[string]func(*RunInput){
		"steps":   func(in *RunInput) { in.Steps = 10 },
		"county":  func(in *RunInput) { in.CountyB = "C" },
		"rate":    func(in *RunInput) { in.ComparisonMx = []float64{0.006, 0.001, 0.0181} },
		"bound":   func(in *RunInput) { in.AgeUpper = []*float64{in.AgeUpper[0], in.AgeUpper[1], in.AgeUpper[1]} },
		"with ax": func(in *RunInput) { in.Ax = []float64{0.5, 2, 50} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := sampleRun()
			mutate(&in)
			assert.NotEqual(t, base, MustRunID(in))
		})
	}
}

func TestRunID_RejectsNonFinite(t *testing.T) {
	in := sampleRun()
	in.BaselineMx = []float64{math.NaN(), 0, 0}
	_, err := RunID(in)
	assert.Error(t, err)
	assert.Panics(t, func() { MustRunID(in) })
}

func TestTableID(t *testing.T) {
	one := 1.0
	id1, err := TableID([]float64{0, 1}, []*float64{&one, nil}, []float64{0.01, 0.1}, nil, 100000)
	require.NoError(t, err)
	id2, err := TableID([]float64{0, 1}, []*float64{&one, nil}, []float64{0.01, 0.1}, []float64{0.5, 10}, 100000)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
