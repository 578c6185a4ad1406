package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainRun   = "lifegap/run/v1"
	DomainTable = "lifegap/table/v1"
)

// runNamespace seeds the name-based UUIDs derived from run content.
var runNamespace = uuid.MustParse("5b0f3c3e-8a51-4e5e-9d7b-2f6f1c0d4a17")

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RunInput is the content that identifies a decomposition run: the request
// labels, the aligned partition and rates, and the integration settings.
type RunInput struct {
	CountyA      string
	CountyB      string
	Race         string
	Sex          string
	Steps        int
	AgeLower     []float64
	AgeUpper     []*float64
	BaselineMx   []float64
	ComparisonMx []float64
	Ax           []float64 // nil when derived
}

func (in RunInput) canonicalMap() map[string]any {
	m := map[string]any{
		"county_a":      in.CountyA,
		"county_b":      in.CountyB,
		"race":          in.Race,
		"sex":           in.Sex,
		"steps":         in.Steps,
		"age_lower":     in.AgeLower,
		"age_upper":     in.AgeUpper,
		"baseline_mx":   in.BaselineMx,
		"comparison_mx": in.ComparisonMx,
	}
	if in.Ax != nil {
		m["ax"] = in.Ax
	}
	return m
}

// RunID computes the content-addressed ID of a run. Identical inputs always
// produce the same ID, so storing a run twice is a no-op.
func RunID(in RunInput) (string, error) {
	canonical, err := MarshalCanonical(in.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// RunUUID derives a short, human-friendly UUID from a run ID.
func RunUUID(runID string) uuid.UUID {
	return uuid.NewSHA1(runNamespace, []byte(runID))
}

// TableID computes the content-addressed ID of a life table input.
func TableID(ageLower []float64, ageUpper []*float64, mx, ax []float64, radix float64) (string, error) {
	m := map[string]any{
		"age_lower": ageLower,
		"age_upper": ageUpper,
		"mx":        mx,
		"radix":     radix,
	}
	if ax != nil {
		m["ax"] = ax
	}
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("TableID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTable, canonical), nil
}

// MustRunID is like RunID but panics on error.
// Use only in tests or when inputs are known to be finite.
func MustRunID(in RunInput) string {
	id, err := RunID(in)
	if err != nil {
		panic(err)
	}
	return id
}
