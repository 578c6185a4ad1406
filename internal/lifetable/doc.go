// Package lifetable builds abridged period life tables from age-specific
// mortality rates.
//
// A table is a pure function of its Input: the age partition, the mortality
// rates (mx), optional average years lived by decedents (ax) and the radix.
// Build validates the whole input before computing anything and returns a
// *ValidationError on the first problem it finds.
//
// Column conventions follow standard actuarial notation:
//
//	n   interval width (nil for the open final interval)
//	ax  average years lived in the interval by those who die in it
//	qx  probability of dying in the interval, in [0, 1]
//	px  1 - qx
//	lx  survivors at interval start (lx[0] = radix)
//	dx  lx * qx
//	Lx  person-years lived in the interval
//	Tx  person-years lived from interval start onward
//	ex  Tx / lx
//
// Only the last interval may be open-ended; its qx is always 1.
package lifetable
