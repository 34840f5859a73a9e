package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MemberRow mirrors the member table as read from CSV or Parquet.
// All values are raw strings; they are parsed into a PatientRecord by normalize.
type MemberRow struct {
	MemberID          string  `parquet:"member_id"`
	DOB               *string `parquet:"dob,optional"`
	Gender            *string `parquet:"gender,optional"`
	DualStatus        *string `parquet:"medicaid_dual_status,optional"`
	EntitlementReason *string `parquet:"orec,optional"`
	Institutional     *string `parquet:"lti,optional"`
	DiagnosisCodes    *string `parquet:"diag_code,optional"`
}

// MemberColumns lists the member table columns in canonical order.
func MemberColumns() []string {
	return []string{
		"member_id",
		FieldDOB,
		FieldGender,
		FieldDualStatus,
		FieldEntitlementReason,
		FieldInstitutional,
		FieldDiagnosisCodes,
	}
}

// listSep joins multi-valued columns in flat output formats.
const listSep = ";"

// ScoreRow is the flat, persisted form of a ScoreRecord.
type ScoreRow struct {
	RunID uuid.UUID `parquet:"-"`

	MemberID               string   `parquet:"member_id"`
	Year                   int32    `parquet:"model_year"`
	Age                    *int32   `parquet:"age,optional"`
	Bucket                 *string  `parquet:"bucket,optional"`
	HCCCodes               string   `parquet:"hcc_codes"`
	DemographicCoefficient *float64 `parquet:"demographic_coefficient,optional"`
	ConditionCoefficient   *float64 `parquet:"condition_coefficient,optional"`
	RawScore               *float64 `parquet:"raw_score,optional"`
	AdjustedScore          *float64 `parquet:"adjusted_score,optional"`
	WeightedScore          *float64 `parquet:"weighted_score,optional"`
	Status                 string   `parquet:"status"`
	Reason                 *string  `parquet:"reason,optional"`
	LookupMisses           string   `parquet:"lookup_misses"`
}

// ScoreColumns returns the column names in the order used by CopyValues and flat files.
func ScoreColumns() []string {
	return []string{
		"member_id",
		"model_year",
		"age",
		"bucket",
		"hcc_codes",
		"demographic_coefficient",
		"condition_coefficient",
		"raw_score",
		"adjusted_score",
		"weighted_score",
		"status",
		"reason",
		"lookup_misses",
	}
}

// ScoreCopyColumns are the risk.patient_scores columns filled by CopyValues.
func ScoreCopyColumns() []string {
	return append([]string{"run_id"}, ScoreColumns()...)
}

// CopyValues returns the row values in ScoreCopyColumns order for pgx CopyFrom.
func (r *ScoreRow) CopyValues() []any {
	return []any{
		r.RunID,
		r.MemberID,
		r.Year,
		r.Age,
		r.Bucket,
		splitList(r.HCCCodes),
		r.DemographicCoefficient,
		r.ConditionCoefficient,
		r.RawScore,
		r.AdjustedScore,
		r.WeightedScore,
		r.Status,
		r.Reason,
		splitList(r.LookupMisses),
	}
}

// NewScoreRow flattens a ScoreRecord. Score columns are null for unavailable records.
func NewScoreRow(rec *ScoreRecord) *ScoreRow {
	row := &ScoreRow{
		MemberID: rec.MemberID,
		Year:     int32(rec.Year),
		HCCCodes: strings.Join(rec.Categories, listSep),
		Status:   string(rec.Status),
	}
	if rec.Age != nil {
		a := int32(*rec.Age)
		row.Age = &a
	}
	if rec.Bucket != "" {
		b := rec.Bucket
		row.Bucket = &b
	}
	if rec.Reason != "" {
		r := rec.Reason
		row.Reason = &r
	}
	if rec.Available() {
		row.DemographicCoefficient = float64Ptr(rec.DemographicCoefficient)
		row.ConditionCoefficient = float64Ptr(rec.ConditionCoefficient)
		row.RawScore = float64Ptr(rec.RawScore)
		row.AdjustedScore = float64Ptr(rec.AdjustedScore)
		row.WeightedScore = float64Ptr(rec.WeightedScore)
	}
	misses := make([]string, len(rec.Misses))
	for i, m := range rec.Misses {
		misses[i] = m.String()
	}
	row.LookupMisses = strings.Join(misses, listSep)
	return row
}

// Record rebuilds the ScoreRecord fields needed for blending. Lookup misses stay flattened.
func (r *ScoreRow) Record() ScoreRecord {
	rec := ScoreRecord{
		MemberID:   r.MemberID,
		Year:       int(r.Year),
		Categories: splitList(r.HCCCodes),
		Status:     ScoreStatus(r.Status),
	}
	if r.Age != nil {
		a := int(*r.Age)
		rec.Age = &a
	}
	if r.Bucket != nil {
		rec.Bucket = *r.Bucket
	}
	if r.Reason != nil {
		rec.Reason = *r.Reason
	}
	rec.DemographicCoefficient = deref(r.DemographicCoefficient)
	rec.ConditionCoefficient = deref(r.ConditionCoefficient)
	rec.RawScore = deref(r.RawScore)
	rec.AdjustedScore = deref(r.AdjustedScore)
	rec.WeightedScore = deref(r.WeightedScore)
	return rec
}

// BlendRow is one member's blended score in flat form.
type BlendRow struct {
	RunID uuid.UUID `parquet:"-"`

	MemberID         string  `parquet:"member_id"`
	YearScores       string  `parquet:"year_scores"` // "2020=0.81;2024=1.02"
	TotalScore       float64 `parquet:"total_score"`
	UnavailableYears string  `parquet:"unavailable_years"`
}

// BlendCopyColumns are the risk.blended_scores columns filled by CopyValues.
func BlendCopyColumns() []string {
	return []string{"run_id", "member_id", "year_scores", "total_score", "unavailable_years"}
}

// CopyValues returns the row values in BlendCopyColumns order for pgx CopyFrom.
func (r *BlendRow) CopyValues() []any {
	years := splitList(r.UnavailableYears)
	ints := make([]int32, 0, len(years))
	for _, y := range years {
		if v, err := strconv.Atoi(y); err == nil {
			ints = append(ints, int32(v))
		}
	}
	return []any{r.RunID, r.MemberID, splitList(r.YearScores), r.TotalScore, ints}
}

// NewBlendRow flattens a BlendRecord; years are rendered in the given order.
func NewBlendRow(rec *BlendRecord, years []int) *BlendRow {
	var scores []string
	for _, y := range years {
		if v, ok := rec.Adjusted[y]; ok {
			scores = append(scores, strconv.Itoa(y)+"="+strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	unavailable := make([]string, len(rec.UnavailableYears))
	for i, y := range rec.UnavailableYears {
		unavailable[i] = strconv.Itoa(y)
	}
	return &BlendRow{
		MemberID:         rec.MemberID,
		YearScores:       strings.Join(scores, listSep),
		TotalScore:       rec.TotalScore,
		UnavailableYears: strings.Join(unavailable, listSep),
	}
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, listSep)
}

func float64Ptr(v float64) *float64 { return &v }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
