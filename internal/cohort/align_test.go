package cohort_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/decomp"
	"github.com/roach88/lifegap/internal/lifetable"
	"github.com/roach88/lifegap/internal/testutil"
)

func whiteFemale() cohort.Request {
	return cohort.Request{CountyA: "A", CountyB: "B", Race: "White", Sex: "Female"}
}

func TestDecomposeBetweenCounties_RoundTrip(t *testing.T) {
	rows, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), whiteFemale())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	total := rows[0].LifeExpectancyDifference
	sum := 0.0
	for _, row := range rows {
		sum += row.Contribution
		assert.Equal(t, "A", row.CountyA)
		assert.Equal(t, "B", row.CountyB)
		assert.Equal(t, "White", row.Race)
		assert.Equal(t, "Female", row.Sex)
		assert.Equal(t, total, row.LifeExpectancyDifference)
	}
	assert.InDelta(t, total, sum, 1e-12)

	a, b := testutil.ThreeGroup(), testutil.ThreeGroupComparison()
	ta, err := lifetable.Build(a.Input())
	require.NoError(t, err)
	tb, err := lifetable.Build(b.Input())
	require.NoError(t, err)
	assert.InDelta(t, tb.LifeExpectancy()-ta.LifeExpectancy(), total, 1e-3)

	assert.Equal(t, []float64{0, 1, 5}, []float64{rows[0].AgeLower, rows[1].AgeLower, rows[2].AgeLower})
	assert.Nil(t, rows[2].AgeUpper)
}

func TestDecomposeBetweenCounties_MatchesEngine(t *testing.T) {
	rows, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), whiteFemale())
	require.NoError(t, err)

	a, b := testutil.ThreeGroup(), testutil.ThreeGroupComparison()
	res, err := decomp.Horiuchi(a.Mx, b.Mx, a.AgeLower, a.AgeUpper)
	require.NoError(t, err)

	for i, row := range rows {
		assert.Equal(t, res.Contribution[i], row.Contribution)
	}
}

func TestDecomposeBetweenCounties_EmptyCohort(t *testing.T) {
	req := whiteFemale()
	req.Race = "Asian"

	_, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), req)
	require.Error(t, err)
	assert.True(t, cohort.IsEmptyCohort(err))

	var ec *cohort.EmptyCohortError
	require.ErrorAs(t, err, &ec)
	assert.Empty(t, ec.County)
}

func TestDecomposeBetweenCounties_MissingCounty(t *testing.T) {
	req := whiteFemale()
	req.CountyB = "Z"

	_, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), req)
	var ec *cohort.EmptyCohortError
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "Z", ec.County)
}

func TestDecomposeBetweenCounties_SameCounty(t *testing.T) {
	req := whiteFemale()
	req.CountyB = req.CountyA

	rows, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), req)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, 0.0, row.Contribution)
		assert.Equal(t, 0.0, row.LifeExpectancyDifference)
	}
}

func TestDecomposeBetweenCounties_NoOverlap(t *testing.T) {
	records := []cohort.Record{
		{"county": "A", "race": "White", "sex": "Female", "age_lower": 0, "age_upper": 1, "mx": 0.005},
		{"county": "A", "race": "White", "sex": "Female", "age_lower": 1, "age_upper": nil, "mx": 0.02},
		{"county": "B", "race": "White", "sex": "Female", "age_lower": 0, "age_upper": 5, "mx": 0.006},
		{"county": "B", "race": "White", "sex": "Female", "age_lower": 5, "age_upper": nil, "mx": 0.018},
	}

	_, err := cohort.DecomposeBetweenCounties(records, cohort.DefaultColumns(), whiteFemale())
	require.Error(t, err)
	assert.True(t, cohort.IsNoOverlap(err))
	assert.False(t, cohort.IsEmptyCohort(err))
}

func TestAlign_IntersectsAndSorts(t *testing.T) {
	records := []cohort.Record{
		{"county": "B", "race": "W", "sex": "M", "age_lower": 5, "age_upper": "", "mx": 0.018},
		{"county": "A", "race": "W", "sex": "M", "age_lower": "5", "age_upper": "NA", "mx": "0.02"},
		{"county": "A", "race": "W", "sex": "M", "age_lower": 1, "age_upper": 5, "mx": 0.0008},
		{"county": "A", "race": "W", "sex": "M", "age_lower": 0, "age_upper": 1, "mx": 0.005},
		{"county": "B", "race": "W", "sex": "M", "age_lower": 0.0, "age_upper": 1.0, "mx": 0.006},
		{"county": "B", "race": "W", "sex": "M", "age_lower": 1, "age_upper": 4, "mx": 0.001},
	}
	req := cohort.Request{CountyA: "A", CountyB: "B", Race: "W", Sex: "M"}

	aligned, err := cohort.Align(records, cohort.DefaultColumns(), req)
	require.NoError(t, err)

	// [1,5) and [1,4) differ, so only [0,1) and [5,+) survive.
	assert.Equal(t, []float64{0, 5}, aligned.AgeLower)
	require.NotNil(t, aligned.AgeUpper[0])
	assert.Equal(t, 1.0, *aligned.AgeUpper[0])
	assert.Nil(t, aligned.AgeUpper[1])
	assert.Equal(t, []float64{0.005, 0.02}, aligned.BaselineMx)
	assert.Equal(t, []float64{0.006, 0.018}, aligned.ComparisonMx)
	assert.Nil(t, aligned.Ax)
}

func TestAlign_NumericLabels(t *testing.T) {
	records := []cohort.Record{
		{"fips": 1001, "race": "all", "sex": 2, "lo": 0, "hi": 1, "rate": 0.005},
		{"fips": 1001, "race": "all", "sex": 2, "lo": 1, "hi": nil, "rate": 0.02},
		{"fips": "1003", "race": "all", "sex": "2", "lo": 0, "hi": 1, "rate": 0.006},
		{"fips": "1003", "race": "all", "sex": "2", "lo": 1, "hi": nil, "rate": 0.018},
	}
	cols := cohort.ColumnMapping{County: "fips", AgeLower: "lo", AgeUpper: "hi", Mx: "rate"}
	req := cohort.Request{CountyA: "1001", CountyB: "1003", Race: "all", Sex: "2"}

	aligned, err := cohort.Align(records, cols, req)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.005, 0.02}, aligned.BaselineMx)
}

func TestAlign_AxPreferenceAndFallback(t *testing.T) {
	base := func(county string, ax0, ax1, ax2 any) []cohort.Record {
		return []cohort.Record{
			{"county": county, "race": "W", "sex": "F", "age_lower": 0, "age_upper": 1, "mx": 0.005, "ax": ax0},
			{"county": county, "race": "W", "sex": "F", "age_lower": 1, "age_upper": 5, "mx": 0.001, "ax": ax1},
			{"county": county, "race": "W", "sex": "F", "age_lower": 5, "age_upper": nil, "mx": 0.02, "ax": ax2},
		}
	}
	cols := cohort.DefaultColumns()
	cols.Ax = "ax"
	req := cohort.Request{CountyA: "A", CountyB: "B", Race: "W", Sex: "F"}

	t.Run("prefers county A", func(t *testing.T) {
		records := append(base("A", 0.1, 1.9, 40.0), base("B", 0.2, 1.8, 45.0)...)
		aligned, err := cohort.Align(records, cols, req)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 1.9, 40}, aligned.Ax)
	})

	t.Run("falls back to county B", func(t *testing.T) {
		records := append(base("A", 0.1, nil, ""), base("B", 0.2, 1.8, "45")...)
		aligned, err := cohort.Align(records, cols, req)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 1.8, 45}, aligned.Ax)
	})

	t.Run("one gap disables ax", func(t *testing.T) {
		records := append(base("A", 0.1, nil, 40.0), base("B", 0.2, nil, 45.0)...)
		aligned, err := cohort.Align(records, cols, req)
		require.NoError(t, err)
		assert.Nil(t, aligned.Ax)
	})
}

func TestAlign_BadValues(t *testing.T) {
	records := testutil.CountyRecords()
	records[1]["mx"] = "n/a-ish"

	_, err := cohort.Align(records, cohort.DefaultColumns(), whiteFemale())
	var fe *cohort.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "mx", fe.Column)
	assert.Equal(t, 1, fe.Row)
}

func TestDecomposeBetweenCounties_NegativeSteps(t *testing.T) {
	req := whiteFemale()
	req.Steps = -1

	_, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), req)
	require.Error(t, err)
	assert.True(t, lifetable.IsValidationError(err))
}

func TestRow_Map(t *testing.T) {
	rows, err := cohort.DecomposeBetweenCounties(testutil.CountyRecords(), cohort.DefaultColumns(), whiteFemale())
	require.NoError(t, err)

	maps := cohort.RowMaps(rows)
	require.Len(t, maps, 3)
	for _, m := range maps {
		for _, col := range cohort.RowColumns {
			assert.Contains(t, m, col)
		}
	}
	assert.Nil(t, maps[2]["age_upper"])
	assert.Equal(t, "A", maps[0]["county_a"])
}

func TestSchedule(t *testing.T) {
	records := testutil.CountyRecords()

	in, err := cohort.Schedule(records, cohort.DefaultColumns(), "B", "White", "Female")
	require.NoError(t, err)

	want := testutil.ThreeGroupComparison()
	assert.Equal(t, want.AgeLower, in.AgeLower)
	assert.Equal(t, want.AgeUpper, in.AgeUpper)
	assert.Equal(t, want.Mx, in.Mx)
	assert.Nil(t, in.Ax)

	_, err = cohort.Schedule(records, cohort.DefaultColumns(), "C", "White", "Female")
	assert.True(t, cohort.IsEmptyCohort(err))

	_, err = cohort.Schedule(records, cohort.DefaultColumns(), "A", "Asian", "Female")
	var ec *cohort.EmptyCohortError
	require.ErrorAs(t, err, &ec)
	assert.Empty(t, ec.County)
}
