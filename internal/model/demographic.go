package model

import (
	"math"
	"strings"
)

// Gender is the gender component of a demographic bucket.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderFemale
	GenderMale
)

// ParseGender maps a raw member-table gender code. Anything other than F or M is Unknown.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "F":
		return GenderFemale
	case "M":
		return GenderMale
	}
	return GenderUnknown
}

// GenderByHeader recognizes a gender section header row in a rate table.
func GenderByHeader(label string) (Gender, bool) {
	switch label {
	case "Female":
		return GenderFemale, true
	case "Male":
		return GenderMale, true
	}
	return GenderUnknown, false
}

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "Female"
	case GenderMale:
		return "Male"
	}
	return "Unknown"
}

// Residence separates community-dwelling members from long-term institutional ones.
type Residence int

const (
	ResidenceCommunity Residence = iota
	ResidenceInstitutional
)

func (r Residence) String() string {
	if r == ResidenceInstitutional {
		return "Institutional"
	}
	return "Community"
}

// DualTier is the Medicaid dual-eligibility tier. Institutional buckets carry DualNotApplicable.
type DualTier int

const (
	DualNotApplicable DualTier = iota
	DualNonDual
	DualFBDual
	DualPBDual
	DualUnknown
)

// DualTierFor partitions a Medicaid dual status code.
func DualTierFor(status int) DualTier {
	switch status {
	case 1, 3, 5, 6:
		return DualPBDual
	case 2, 4, 8:
		return DualFBDual
	case 9:
		return DualNonDual
	}
	return DualUnknown
}

func (d DualTier) String() string {
	switch d {
	case DualNonDual:
		return "NonDual"
	case DualFBDual:
		return "FBDual"
	case DualPBDual:
		return "PBDual"
	case DualUnknown:
		return "Unknown"
	}
	return ""
}

// Entitlement is the tier derived from the original reason for entitlement (OREC).
type Entitlement int

const (
	EntitlementNotApplicable Entitlement = iota
	EntitlementAged
	EntitlementDisabled
	EntitlementOther
)

// EntitlementFor maps an OREC code: 0 is Aged, 1 is Disabled, everything else Other.
func EntitlementFor(orec int) Entitlement {
	switch orec {
	case 0:
		return EntitlementAged
	case 1:
		return EntitlementDisabled
	}
	return EntitlementOther
}

func (e Entitlement) String() string {
	switch e {
	case EntitlementAged:
		return "Aged"
	case EntitlementDisabled:
		return "Disabled"
	case EntitlementOther:
		return "Other"
	}
	return ""
}

// AgeBand indexes one of the fixed, contiguous age ranges.
type AgeBand int

type ageRange struct {
	Min   int
	Max   int // inclusive
	Label string
}

// ageBands partitions [0, ∞) in ascending order.
var ageBands = []ageRange{
	{0, 34, "0-34 Years"},
	{35, 44, "35-44 Years"},
	{45, 54, "45-54 Years"},
	{55, 59, "55-59 Years"},
	{60, 64, "60-64 Years"},
	{65, 69, "65-69 Years"},
	{70, 74, "70-74 Years"},
	{75, 79, "75-79 Years"},
	{80, 84, "80-84 Years"},
	{85, 89, "85-89 Years"},
	{90, 94, "90-94 Years"},
	{95, math.MaxInt, "95 Years or Over"},
}

// AllAgeBands lists the age bands in ascending order.
func AllAgeBands() []AgeBand {
	out := make([]AgeBand, len(ageBands))
	for i := range ageBands {
		out[i] = AgeBand(i)
	}
	return out
}

// AgeBandFor returns the first band containing age, or ok=false for negative ages.
func AgeBandFor(age int) (AgeBand, bool) {
	for i, r := range ageBands {
		if r.Min <= age && age <= r.Max {
			return AgeBand(i), true
		}
	}
	return 0, false
}

// AgeBandByLabel returns the band for a rate-table row label, or ok=false.
func AgeBandByLabel(label string) (AgeBand, bool) {
	for i, r := range ageBands {
		if r.Label == label {
			return AgeBand(i), true
		}
	}
	return 0, false
}

// Bounds returns the inclusive age range of the band.
func (b AgeBand) Bounds() (min, max int) {
	r := ageBands[b]
	return r.Min, r.Max
}

func (b AgeBand) String() string {
	if b < 0 || int(b) >= len(ageBands) {
		return "invalid"
	}
	return ageBands[b].Label
}

// Segment is the part of a bucket that selects a rate-table column.
type Segment struct {
	Residence   Residence
	Dual        DualTier
	Entitlement Entitlement
}

// Label renders the segment as "Community, NonDual, Aged" or "Institutional".
func (s Segment) Label() string {
	if s.Residence == ResidenceInstitutional {
		return s.Residence.String()
	}
	return strings.Join([]string{s.Residence.String(), s.Dual.String(), s.Entitlement.String()}, ", ")
}

// Bucket is a fully resolved demographic classification.
type Bucket struct {
	Segment
	Age    AgeBand
	Gender Gender
}

// Label is the canonical lookup key, e.g. "Community, NonDual, Aged, 70-74 Years, Female".
func (b Bucket) Label() string {
	return strings.Join([]string{b.Segment.Label(), b.Age.String(), b.Gender.String()}, ", ")
}

func (b Bucket) String() string { return b.Label() }
