package cohort

import "github.com/roach88/lifegap/internal/decomp"

// Row is one age group's contribution annotated with the comparison it
// belongs to.
type Row struct {
	AgeLower                 float64  `json:"age_lower"`
	AgeUpper                 *float64 `json:"age_upper"`
	Contribution             float64  `json:"contribution"`
	CountyA                  string   `json:"county_a"`
	CountyB                  string   `json:"county_b"`
	Race                     string   `json:"race"`
	Sex                      string   `json:"sex"`
	LifeExpectancyDifference float64  `json:"life_expectancy_difference"`
}

// RowColumns lists the keys of Row.Map in display order.
var RowColumns = []string{"age_lower", "age_upper", "contribution", "county_a", "county_b", "race", "sex", "life_expectancy_difference"}

// Annotate labels every group of res with req and the total difference.
func Annotate(res *decomp.Result, req Request) []Row {
	total := res.Total()
	rows := make([]Row, res.Len())
	for i := range rows {
		rows[i] = Row{
			AgeLower:                 res.AgeLower[i],
			AgeUpper:                 res.AgeUpper[i],
			Contribution:             res.Contribution[i],
			CountyA:                  req.CountyA,
			CountyB:                  req.CountyB,
			Race:                     req.Race,
			Sex:                      req.Sex,
			LifeExpectancyDifference: total,
		}
	}
	return rows
}

// Map returns the row as a plain mapping keyed by RowColumns.
func (r Row) Map() map[string]any {
	var upper any
	if r.AgeUpper != nil {
		upper = *r.AgeUpper
	}
	return map[string]any{
		"age_lower":                  r.AgeLower,
		"age_upper":                  upper,
		"contribution":               r.Contribution,
		"county_a":                   r.CountyA,
		"county_b":                   r.CountyB,
		"race":                       r.Race,
		"sex":                        r.Sex,
		"life_expectancy_difference": r.LifeExpectancyDifference,
	}
}

// RowMaps converts rows with Row.Map.
func RowMaps(rows []Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.Map()
	}
	return out
}
