package model

import "time"

// PatientRecord is a member row after field-level parsing. It is not mutated after loading.
type PatientRecord struct {
	MemberID string
	// DOB is nil when the member table had no value or the value did not parse.
	DOB               *time.Time
	Gender            Gender
	Institutional     bool
	DualStatus        int // -1 when missing or unparseable
	EntitlementReason int // -1 when missing or unparseable
	DiagnosisCodes    []string
	// FieldErrors holds one ParseError per field that failed to parse.
	FieldErrors []*ParseError
}

// FieldError returns the parse error recorded for field, if any.
func (p *PatientRecord) FieldError(field string) *ParseError {
	for _, e := range p.FieldErrors {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// Member table field names, used for ParseError.Field.
const (
	FieldDOB               = "dob"
	FieldGender            = "gender"
	FieldDualStatus        = "medicaid_dual_status"
	FieldEntitlementReason = "orec"
	FieldInstitutional     = "lti"
	FieldDiagnosisCodes    = "diag_code"
)
