package models

import (
	"encoding/json"
	"time"
)

// PriceStats summarizes the price distribution over rows with a positive
// numeric price.
type PriceStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
}

// ForeignKeyStat reports how well one foreign-key column is populated and
// whether any value points at a missing lookup row.
type ForeignKeyStat struct {
	Column      string  `json:"column"`
	LookupTable string  `json:"lookup_table"`
	Populated   int     `json:"populated"`
	PopulatedPc float64 `json:"populated_pct"`
	Orphaned    int     `json:"orphaned"`
}

// VerificationReport is the post-run summary produced by the verifier.
// It is a pure value; producing it has no side effects on data.
type VerificationReport struct {
	Pipeline     string           `json:"pipeline"`
	GeneratedAt  time.Time        `json:"generated_at"`
	SourceRows   int              `json:"source_rows"`
	TargetRows   int              `json:"target_rows"`
	LookupCounts map[string]int   `json:"lookup_counts"`
	ForeignKeys  []ForeignKeyStat `json:"foreign_keys"`
	Prices       PriceStats       `json:"prices"`
}

// OrphanCount sums referential-integrity violations across all checked
// foreign keys. Expected to be zero when every insert went through the
// resolver.
func (r *VerificationReport) OrphanCount() int {
	total := 0
	for _, fk := range r.ForeignKeys {
		total += fk.Orphaned
	}
	return total
}

func (r *VerificationReport) ToJSON() json.RawMessage {
	data, _ := json.MarshalIndent(r, "", "  ")
	return data
}
