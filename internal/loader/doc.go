// Package loader reads mortality records and batch job files from disk.
//
// Record files may be CSV, YAML or JSON and decode into []cohort.Record
// without interpreting survey semantics; the Cohort Aligner does the
// parsing of ages and rates. Job files (CUE, YAML or JSON) are unified with
// an embedded CUE schema before they are decoded, so typos and invalid step
// counts are rejected with a position-bearing error.
package loader
