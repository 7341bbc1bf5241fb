package model

import (
	"fmt"
	"math"
)

// Fingerprint identifies one provenance lookup.
type Fingerprint struct {
	Venue      string
	SubAccount string
	Owner      string
	Price      float64
	Quantity   float64
}

// Valid reports whether the fingerprint can be used as a map key. NaN never
// equals itself, so it and the infinities are rejected.
func (f Fingerprint) Valid() bool {
	return finite(f.Price) && finite(f.Quantity)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s/%s/%s/%g/%g", f.Venue, f.SubAccount, f.Owner, f.Price, f.Quantity)
}

// ProvenanceState is the tag of a ProvenanceResult.
type ProvenanceState uint8

const (
	// ProvenanceUnknown means no finished lookup exists yet.
	ProvenanceUnknown ProvenanceState = iota
	// ProvenancePresent means a settling transaction was found.
	ProvenancePresent
	// ProvenanceEmpty means the lookup finished without a match.
	ProvenanceEmpty
)

func (s ProvenanceState) String() string {
	switch s {
	case ProvenancePresent:
		return "present"
	case ProvenanceEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ProvenanceResult is the outcome of a provenance lookup. Signature is set
// only when State is ProvenancePresent.
type ProvenanceResult struct {
	State     ProvenanceState `json:"state"`
	Signature string          `json:"signature,omitempty"`
}

// Resolved reports whether the result is final.
func (r ProvenanceResult) Resolved() bool {
	return r.State != ProvenanceUnknown
}

func UnknownProvenance() ProvenanceResult {
	return ProvenanceResult{State: ProvenanceUnknown}
}

func PresentProvenance(signature string) ProvenanceResult {
	return ProvenanceResult{State: ProvenancePresent, Signature: signature}
}

func EmptyProvenance() ProvenanceResult {
	return ProvenanceResult{State: ProvenanceEmpty}
}
