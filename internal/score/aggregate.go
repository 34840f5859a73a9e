// Package score combines demographic and condition coefficients into risk scores.
package score

import (
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/ratetable"
)

// Coefficients resolves coefficients for buckets and condition categories.
// *ratetable.Table implements it.
type Coefficients interface {
	Demographic(b model.Bucket) ratetable.Result
	Condition(category string, seg model.Segment) ratetable.Result
}

// Breakdown is a raw score with its components and the lookups that missed.
type Breakdown struct {
	Demographic float64
	Condition   float64
	Raw         float64
	Misses      []model.LookupMiss
}

// Aggregate sums the bucket's demographic coefficient and one coefficient per
// distinct condition category. Misses contribute 0 and are listed.
func Aggregate(b model.Bucket, categories []string, t Coefficients) Breakdown {
	var out Breakdown

	if res := t.Demographic(b); res.OK() {
		out.Demographic = res.Value
	} else {
		out.Misses = append(out.Misses, miss(model.MissDemographic, res))
	}

	seen := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		res := t.Condition(cat, b.Segment)
		if !res.OK() {
			out.Misses = append(out.Misses, miss(model.MissCondition, res))
			continue
		}
		out.Condition += res.Value
	}

	out.Raw = out.Demographic + out.Condition
	return out
}

// Adjust normalizes a raw score and applies the coding-pattern adjustment:
// (raw / normalizationFactor) * (1 - codingPatternAdjustment).
func Adjust(raw, normalizationFactor, codingPatternAdjustment float64) float64 {
	return (raw / normalizationFactor) * (1 - codingPatternAdjustment)
}

func miss(kind model.MissKind, res ratetable.Result) model.LookupMiss {
	return model.LookupMiss{Kind: kind, Row: res.Row, Column: res.Column, Status: res.Status.String()}
}
