package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
)

// ToPatientRecord converts a raw MemberRow into a PatientRecord. Field-level
// parse failures are recorded on the record and never returned as errors.
func ToPatientRecord(row *model.MemberRow) *model.PatientRecord {
	p := &model.PatientRecord{
		MemberID:          strings.TrimSpace(row.MemberID),
		Gender:            model.ParseGender(derefStr(row.Gender)),
		Institutional:     ParseFlag(derefStr(row.Institutional)),
		DualStatus:        -1,
		EntitlementReason: -1,
	}

	if raw := derefStr(row.DOB); raw != "" {
		dob, err := ParseDOB(raw)
		if err != nil {
			p.FieldErrors = append(p.FieldErrors, &model.ParseError{Field: model.FieldDOB, Value: raw, Err: err})
		}
		p.DOB = dob
	}

	if raw := derefStr(row.DualStatus); raw != "" {
		v, err := ParseCode(raw)
		if err != nil {
			p.FieldErrors = append(p.FieldErrors, &model.ParseError{Field: model.FieldDualStatus, Value: raw, Err: err})
		} else {
			p.DualStatus = v
		}
	}

	if raw := derefStr(row.EntitlementReason); raw != "" {
		v, err := ParseCode(raw)
		if err != nil {
			p.FieldErrors = append(p.FieldErrors, &model.ParseError{Field: model.FieldEntitlementReason, Value: raw, Err: err})
		} else {
			p.EntitlementReason = v
		}
	}

	if raw := derefStr(row.DiagnosisCodes); raw != "" {
		codes, err := ParseCodeList(raw)
		if err != nil {
			p.FieldErrors = append(p.FieldErrors, &model.ParseError{Field: model.FieldDiagnosisCodes, Value: raw, Err: err})
		}
		p.DiagnosisCodes = codes
	}

	return p
}

// ParseCode parses an integer enum code. Spreadsheet exports often render
// integers as "9.0", which is accepted; "9.5" is not.
func ParseCode(s string) (int, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer code")
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("code out of range")
	}
	return int(f), nil
}

// ParseFlag reports whether a Y/N style flag is set.
func ParseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "1":
		return true
	}
	return false
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
