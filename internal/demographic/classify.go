// Package demographic maps member attributes to a demographic bucket.
package demographic

import (
	"strconv"
	"time"

	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
)

// Classify resolves the demographic bucket for a member as of asOf.
// Institutional members get an Institutional bucket without dual or
// entitlement tiers. A dob after asOf fails with a *model.CategoryError.
func Classify(dob time.Time, gender model.Gender, dualStatus, entitlementReason int, institutional bool, asOf time.Time) (model.Bucket, error) {
	age := normalize.Age(dob, asOf)
	band, ok := model.AgeBandFor(age)
	if !ok {
		return model.Bucket{}, &model.CategoryError{Reason: model.ReasonNegativeAge, Detail: "age " + strconv.Itoa(age)}
	}

	return model.Bucket{
		Segment: Segment(dualStatus, entitlementReason, institutional),
		Age:     band,
		Gender:  gender,
	}, nil
}

// ClassifyPatient classifies a loaded record. It also returns the computed age.
// A missing or unparseable date of birth is a *model.CategoryError rather than
// a default bucket.
func ClassifyPatient(p *model.PatientRecord, asOf time.Time) (model.Bucket, int, error) {
	if p.DOB == nil {
		reason := model.ReasonDOBMissing
		if p.FieldError(model.FieldDOB) != nil {
			reason = model.ReasonDOBUnparseable
		}
		return model.Bucket{}, 0, &model.CategoryError{Reason: reason}
	}
	b, err := Classify(*p.DOB, p.Gender, p.DualStatus, p.EntitlementReason, p.Institutional, asOf)
	if err != nil {
		return model.Bucket{}, 0, err
	}
	return b, normalize.Age(*p.DOB, asOf), nil
}

// Segment derives the column-selecting part of a bucket: residence, dual tier
// and entitlement tier.
func Segment(dualStatus, entitlementReason int, institutional bool) model.Segment {
	if institutional {
		return model.Segment{Residence: model.ResidenceInstitutional}
	}
	return model.Segment{
		Residence:   model.ResidenceCommunity,
		Dual:        model.DualTierFor(dualStatus),
		Entitlement: model.EntitlementFor(entitlementReason),
	}
}
