// Package cohort aligns the records of two populations and decomposes the
// life-expectancy gap between them.
//
// Records are generic column mappings as produced by the loader package.
// Alignment filters to one race/sex stratum, splits the two counties, and
// keeps only the age groups whose (age_lower, age_upper) key exists in both,
// sorted by age. County A is the baseline and county B the comparison, so a
// positive difference means county B lives longer.
//
// An optional ax column is used only if every aligned age group has a value
// (county A preferred, county B as fallback); otherwise ax is derived for the
// whole decomposition.
package cohort
