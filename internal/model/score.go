package model

// ScoreStatus tells whether a per-year score could be computed.
type ScoreStatus string

const (
	StatusOK          ScoreStatus = "ok"
	StatusUnavailable ScoreStatus = "unavailable"
)

// MissKind separates demographic lookups from condition-category lookups.
type MissKind string

const (
	MissDemographic MissKind = "demographic"
	MissCondition   MissKind = "condition"
)

// LookupMiss records a coefficient that could not be resolved. It contributes 0 to the
// raw score but is kept distinct from a genuine zero coefficient.
type LookupMiss struct {
	Kind   MissKind
	Row    string
	Column string
	Status string
}

func (m LookupMiss) String() string {
	return string(m.Kind) + ":" + m.Row + "@" + m.Column + "=" + m.Status
}

// ScoreRecord is one member's score for one model year.
// Scores are meaningful only when Status is StatusOK. Reason explains an
// unavailable score, or a degraded one such as an unreadable diagnosis list.
type ScoreRecord struct {
	MemberID               string
	Year                   int
	Age                    *int
	Bucket                 string
	Categories             []string
	DemographicCoefficient float64
	ConditionCoefficient   float64
	RawScore               float64
	AdjustedScore          float64
	WeightedScore          float64
	Status                 ScoreStatus
	Reason                 string
	Misses                 []LookupMiss
}

// Available reports whether the record carries a computed score.
func (r *ScoreRecord) Available() bool { return r.Status == StatusOK }

// BlendRecord is a member's score combined across model years.
type BlendRecord struct {
	MemberID string
	// Adjusted holds the adjusted score for each year the member was scored in.
	Adjusted   map[int]float64
	TotalScore float64
	// UnavailableYears lists years where the member was present but could not be scored.
	UnavailableYears []int
}
