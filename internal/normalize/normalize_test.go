package normalize

import (
	"testing"

	"github.com/gyeh/hccscore/internal/model"
)

func strPtr(s string) *string { return &s }

func TestToPatientRecord(t *testing.T) {
	row := &model.MemberRow{
		MemberID:          " M001 ",
		DOB:               strPtr("15-03-1952"),
		Gender:            strPtr("F"),
		DualStatus:        strPtr("9.0"),
		EntitlementReason: strPtr("0"),
		Institutional:     strPtr("N"),
		DiagnosisCodes:    strPtr(`['E1165', 'I509']`),
	}
	p := ToPatientRecord(row)
	if p.MemberID != "M001" {
		t.Errorf("MemberID = %q", p.MemberID)
	}
	if p.DOB == nil || p.DOB.Year() != 1952 {
		t.Errorf("DOB = %v", p.DOB)
	}
	if p.Gender != model.GenderFemale {
		t.Errorf("Gender = %v", p.Gender)
	}
	if p.DualStatus != 9 || p.EntitlementReason != 0 {
		t.Errorf("codes = %d/%d, want 9/0", p.DualStatus, p.EntitlementReason)
	}
	if p.Institutional {
		t.Error("expected community member")
	}
	if len(p.DiagnosisCodes) != 2 {
		t.Errorf("DiagnosisCodes = %v", p.DiagnosisCodes)
	}
	if len(p.FieldErrors) != 0 {
		t.Errorf("unexpected field errors: %v", p.FieldErrors)
	}
}

func TestToPatientRecord_FieldErrors(t *testing.T) {
	row := &model.MemberRow{
		MemberID:          "M002",
		DOB:               strPtr("yesterday"),
		DualStatus:        strPtr("two"),
		EntitlementReason: strPtr("1.5"),
		Institutional:     strPtr("y"),
		DiagnosisCodes:    strPtr("E1165, I509"),
	}
	p := ToPatientRecord(row)
	if p.DOB != nil {
		t.Errorf("DOB should be undetermined, got %v", p.DOB)
	}
	if p.DualStatus != -1 || p.EntitlementReason != -1 {
		t.Errorf("codes = %d/%d, want -1/-1", p.DualStatus, p.EntitlementReason)
	}
	if !p.Institutional {
		t.Error("lowercase y should be institutional")
	}
	if p.DiagnosisCodes != nil {
		t.Errorf("malformed code list should yield no codes, got %v", p.DiagnosisCodes)
	}
	for _, f := range []string{model.FieldDOB, model.FieldDualStatus, model.FieldEntitlementReason, model.FieldDiagnosisCodes} {
		if p.FieldError(f) == nil {
			t.Errorf("expected parse error for %s", f)
		}
	}
	if p.Gender != model.GenderUnknown {
		t.Errorf("missing gender should be Unknown, got %v", p.Gender)
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"Y", "y", "Yes", "TRUE", "1"} {
		if !ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = false", s)
		}
	}
	for _, s := range []string{"N", "", "0", "no", "maybe"} {
		if ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = true", s)
		}
	}
}

func TestParseCode(t *testing.T) {
	for in, want := range map[string]int{"9": 9, " 2 ": 2, "9.0": 9, "-1": -1, "11": 11} {
		got, err := ParseCode(in)
		if err != nil || got != want {
			t.Errorf("ParseCode(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "9.5", "abc", "NaN", "Inf", "1e300", "-1e300", "4294967296"} {
		if got, err := ParseCode(in); err == nil {
			t.Errorf("ParseCode(%q) = %d, want error", in, got)
		}
	}
}
