package demographic

import (
	"errors"
	"testing"
	"time"

	"github.com/gyeh/hccscore/internal/model"
)

var asOf = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func dobForAge(age int) time.Time {
	return time.Date(asOf.Year()-age, time.January, 15, 0, 0, 0, 0, time.UTC)
}

func TestClassify_CommunityScenario(t *testing.T) {
	b, err := Classify(dobForAge(72), model.ParseGender("F"), 9, 0, false, asOf)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := "Community, NonDual, Aged, 70-74 Years, Female"
	if b.Label() != want {
		t.Errorf("label = %q, want %q", b.Label(), want)
	}
}

func TestClassify_Institutional(t *testing.T) {
	b, err := Classify(dobForAge(86), model.GenderMale, 2, 1, true, asOf)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if b.Label() != "Institutional, 85-89 Years, Male" {
		t.Errorf("label = %q", b.Label())
	}
	if b.Dual != model.DualNotApplicable || b.Entitlement != model.EntitlementNotApplicable {
		t.Errorf("institutional bucket should omit tiers: %+v", b)
	}
}

func TestClassify_DualAndEntitlementTiers(t *testing.T) {
	tests := []struct {
		dual, orec int
		want       string
	}{
		{1, 0, "Community, PBDual, Aged"},
		{3, 1, "Community, PBDual, Disabled"},
		{5, 0, "Community, PBDual, Aged"},
		{6, 0, "Community, PBDual, Aged"},
		{2, 0, "Community, FBDual, Aged"},
		{4, 1, "Community, FBDual, Disabled"},
		{8, 0, "Community, FBDual, Aged"},
		{9, 1, "Community, NonDual, Disabled"},
		{0, 0, "Community, Unknown, Aged"},
		{7, 0, "Community, Unknown, Aged"},
		{-1, 2, "Community, Unknown, Other"},
		{9, 3, "Community, NonDual, Other"},
	}
	for _, tt := range tests {
		b, err := Classify(dobForAge(67), model.GenderFemale, tt.dual, tt.orec, false, asOf)
		if err != nil {
			t.Fatalf("Classify(%d, %d): %v", tt.dual, tt.orec, err)
		}
		if got := b.Segment.Label(); got != tt.want {
			t.Errorf("Classify(dual=%d, orec=%d) segment = %q, want %q", tt.dual, tt.orec, got, tt.want)
		}
		if seg := Segment(tt.dual, tt.orec, false); seg != b.Segment {
			t.Errorf("Segment(%d, %d) = %+v, want %+v", tt.dual, tt.orec, seg, b.Segment)
		}
	}
}

func TestClassify_UnknownGenderStillClassifies(t *testing.T) {
	b, err := Classify(dobForAge(40), model.ParseGender("X"), 9, 0, false, asOf)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if b.Label() != "Community, NonDual, Aged, 35-44 Years, Unknown" {
		t.Errorf("label = %q", b.Label())
	}
}

func TestClassify_NegativeAge(t *testing.T) {
	future := asOf.AddDate(1, 0, 0)
	_, err := Classify(future, model.GenderFemale, 9, 0, false, asOf)
	var ce *model.CategoryError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CategoryError, got %v", err)
	}
	if ce.Reason != model.ReasonNegativeAge {
		t.Errorf("reason = %q", ce.Reason)
	}
}

func TestClassify_AgeBoundaries(t *testing.T) {
	tests := map[int]string{
		0: "0-34 Years", 34: "0-34 Years", 35: "35-44 Years", 44: "35-44 Years",
		45: "45-54 Years", 55: "55-59 Years", 59: "55-59 Years", 60: "60-64 Years",
		65: "65-69 Years", 69: "65-69 Years", 70: "70-74 Years", 74: "70-74 Years",
		75: "75-79 Years", 80: "80-84 Years", 85: "85-89 Years", 90: "90-94 Years",
		94: "90-94 Years", 95: "95 Years or Over", 120: "95 Years or Over",
	}
	for age, want := range tests {
		b, err := Classify(dobForAge(age), model.GenderMale, 9, 0, false, asOf)
		if err != nil {
			t.Fatalf("age %d: %v", age, err)
		}
		if b.Age.String() != want {
			t.Errorf("age %d band = %q, want %q", age, b.Age, want)
		}
	}
}

func TestAgeBandsPartition(t *testing.T) {
	for age := 0; age <= 150; age++ {
		matches := 0
		for _, band := range model.AllAgeBands() {
			lo, hi := band.Bounds()
			if lo <= age && age <= hi {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("age %d matched %d bands, want exactly 1", age, matches)
		}
	}
	bands := model.AllAgeBands()
	for i := 1; i < len(bands); i++ {
		_, prevHi := bands[i-1].Bounds()
		lo, _ := bands[i].Bounds()
		if lo != prevHi+1 {
			t.Errorf("gap or overlap between %s and %s", bands[i-1], bands[i])
		}
	}
	if _, ok := model.AgeBandFor(-1); ok {
		t.Error("negative age should match no band")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	dob := dobForAge(77)
	first, _ := Classify(dob, model.GenderFemale, 4, 1, false, asOf)
	for i := 0; i < 100; i++ {
		b, _ := Classify(dob, model.GenderFemale, 4, 1, false, asOf)
		if b != first {
			t.Fatalf("iteration %d: %v != %v", i, b, first)
		}
	}
}

func TestClassifyPatient_MissingDOB(t *testing.T) {
	p := &model.PatientRecord{MemberID: "M1", DualStatus: 9}
	_, _, err := ClassifyPatient(p, asOf)
	var ce *model.CategoryError
	if !errors.As(err, &ce) || ce.Reason != model.ReasonDOBMissing {
		t.Fatalf("expected dob_missing CategoryError, got %v", err)
	}

	p.FieldErrors = []*model.ParseError{{Field: model.FieldDOB, Value: "bad"}}
	_, _, err = ClassifyPatient(p, asOf)
	if !errors.As(err, &ce) || ce.Reason != model.ReasonDOBUnparseable {
		t.Fatalf("expected dob_unparseable CategoryError, got %v", err)
	}
}

func TestClassifyPatient_ReturnsAge(t *testing.T) {
	dob := time.Date(1952, time.June, 2, 0, 0, 0, 0, time.UTC)
	p := &model.PatientRecord{MemberID: "M1", DOB: &dob, Gender: model.GenderFemale, DualStatus: 9}
	b, age, err := ClassifyPatient(p, asOf)
	if err != nil {
		t.Fatalf("ClassifyPatient: %v", err)
	}
	if age != 71 {
		t.Errorf("age = %d, want 71", age)
	}
	if b.Age.String() != "70-74 Years" {
		t.Errorf("band = %s", b.Age)
	}
}
