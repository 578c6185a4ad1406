package cohort

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one row of tabular input, keyed by column name.
type Record map[string]any

// ColumnMapping names the record columns used for alignment.
// Ax is optional; leave it empty to always derive ax.
type ColumnMapping struct {
	County   string `json:"county" yaml:"county"`
	Race     string `json:"race" yaml:"race"`
	Sex      string `json:"sex" yaml:"sex"`
	AgeLower string `json:"age_lower" yaml:"age_lower"`
	AgeUpper string `json:"age_upper" yaml:"age_upper"`
	Mx       string `json:"mx" yaml:"mx"`
	Ax       string `json:"ax,omitempty" yaml:"ax,omitempty"`
}

// DefaultColumns returns the mapping for records whose columns are named
// county, race, sex, age_lower, age_upper and mx.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		County:   "county",
		Race:     "race",
		Sex:      "sex",
		AgeLower: "age_lower",
		AgeUpper: "age_upper",
		Mx:       "mx",
	}
}

// WithDefaults fills empty required column names from DefaultColumns.
func (c ColumnMapping) WithDefaults() ColumnMapping {
	d := DefaultColumns()
	if c.County == "" {
		c.County = d.County
	}
	if c.Race == "" {
		c.Race = d.Race
	}
	if c.Sex == "" {
		c.Sex = d.Sex
	}
	if c.AgeLower == "" {
		c.AgeLower = d.AgeLower
	}
	if c.AgeUpper == "" {
		c.AgeUpper = d.AgeUpper
	}
	if c.Mx == "" {
		c.Mx = d.Mx
	}
	return c
}

// matches compares a record value with a requested label by string form, so
// numeric county codes decoded from YAML or JSON match string requests.
func matches(v any, want string) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s == want
	}
	return fmt.Sprint(v) == want
}

// missingMarkers are the spellings of an absent value in text input.
var missingMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"none": true,
	"null": true,
}

// openMarkers are the extra spellings of an open upper bound.
var openMarkers = map[string]bool{
	"inf":  true,
	"+inf": true,
	"+":    true,
}

func marker(s string, sets ...map[string]bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, set := range sets {
		if set[s] {
			return true
		}
	}
	return false
}

// parseFloat converts a decoded value to float64.
func parseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseUpper converts an age_upper value; nil means open.
func parseUpper(v any) (*float64, bool) {
	if v == nil {
		return nil, true
	}
	if s, ok := v.(string); ok && marker(s, missingMarkers, openMarkers) {
		return nil, true
	}
	f, ok := parseFloat(v)
	if !ok {
		return nil, false
	}
	if math.IsInf(f, 1) {
		return nil, true
	}
	return &f, true
}

// optionalFloat reads a column that may be absent. present is false for
// missing, nil or blank values.
func optionalFloat(r Record, col string) (value float64, present, ok bool) {
	v, found := r[col]
	if !found || v == nil {
		return 0, false, true
	}
	if s, isStr := v.(string); isStr && marker(s, missingMarkers) {
		return 0, false, true
	}
	f, ok := parseFloat(v)
	return f, true, ok
}
