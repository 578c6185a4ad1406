// Package ir provides the canonical serialization and content-addressed
// identity used for stored decomposition runs.
//
// ir imports nothing internal. Other packages convert their values to plain
// maps, slices and scalars before calling MarshalCanonical.
//
// Canonical form:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - floats in shortest round-trip form; NaN and Inf are rejected
//   - null is allowed (open age bounds)
package ir
