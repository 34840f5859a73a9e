package score

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/demographic"
	"github.com/gyeh/hccscore/internal/diagnosis"
	"github.com/gyeh/hccscore/internal/model"
)

// Params are the per-model-year constants of a run.
type Params struct {
	Year                    int
	NormalizationFactor     float64
	CodingPatternAdjustment float64
	Weight                  float64
}

// Scorer scores patients for one model year. Its table and code map are
// shared read-only, so one Scorer may be used from many goroutines.
type Scorer struct {
	Params
	Table Coefficients
	Codes diagnosis.Lookup
	AsOf  time.Time
	Log   zerolog.Logger
}

// Score runs classify → map → aggregate → adjust for one patient. A patient
// that cannot be classified gets an unavailable record with a reason code.
func (s *Scorer) Score(p *model.PatientRecord) model.ScoreRecord {
	rec := model.ScoreRecord{
		MemberID:   p.MemberID,
		Year:       s.Year,
		Categories: diagnosis.MapCodes(p.DiagnosisCodes, s.Codes),
	}

	bucket, age, err := demographic.ClassifyPatient(p, s.AsOf)
	if err != nil {
		rec.Status = model.StatusUnavailable
		var ce *model.CategoryError
		if errors.As(err, &ce) {
			rec.Reason = ce.Reason
		} else {
			rec.Reason = err.Error()
		}
		s.Log.Warn().
			Str("member_id", p.MemberID).
			Int("year", s.Year).
			Str("reason", rec.Reason).
			Err(err).
			Msg("score unavailable")
		return rec
	}

	bd := Aggregate(bucket, rec.Categories, s.Table)
	rec.Age = &age
	rec.Bucket = bucket.Label()
	rec.DemographicCoefficient = bd.Demographic
	rec.ConditionCoefficient = bd.Condition
	rec.RawScore = bd.Raw
	rec.AdjustedScore = Adjust(bd.Raw, s.NormalizationFactor, s.CodingPatternAdjustment)
	rec.WeightedScore = rec.AdjustedScore * s.Weight
	rec.Misses = bd.Misses
	rec.Status = model.StatusOK
	if p.FieldError(model.FieldDiagnosisCodes) != nil {
		rec.Reason = model.ReasonDiagnosisUnparseable
	}

	for _, m := range bd.Misses {
		s.Log.Debug().
			Str("member_id", p.MemberID).
			Int("year", s.Year).
			Str("kind", string(m.Kind)).
			Str("row", m.Row).
			Str("column", m.Column).
			Str("status", m.Status).
			Msg("coefficient lookup miss")
	}
	return rec
}
