package cli

import (
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/lifegap/internal/cohort"
)

// upperBounds converts parsed --upper values to bounds. "inf" parses as +Inf
// and marks the open final interval.
func upperBounds(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		v := v
		if math.IsInf(v, 1) {
			continue
		}
		out[i] = &v
	}
	return out
}

// columnMapping applies --column overrides such as mx=rate to the defaults.
func columnMapping(overrides map[string]string) (cohort.ColumnMapping, error) {
	cols := cohort.DefaultColumns()
	fields := map[string]*string{
		"county":    &cols.County,
		"race":      &cols.Race,
		"sex":       &cols.Sex,
		"age_lower": &cols.AgeLower,
		"age_upper": &cols.AgeUpper,
		"mx":        &cols.Mx,
		"ax":        &cols.Ax,
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dst, ok := fields[k]
		if !ok {
			return cohort.ColumnMapping{}, usagef("unknown column %q in --column", k)
		}
		*dst = overrides[k]
	}
	return cols, nil
}

// intSetting returns the flag value when it was set, otherwise fallback.
func intSetting(cmd *cobra.Command, name string, value, fallback int) int {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func floatSetting(cmd *cobra.Command, name string, value, fallback float64) float64 {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
