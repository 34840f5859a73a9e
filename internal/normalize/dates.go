package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Date-of-birth formats accepted in member tables. Day-first formats come
// first; ISO forms cover spreadsheet date cells exported to CSV.
var dobFormats = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
}

// ParseDOB parses a member date of birth.
// Returns nil, nil for an empty value and nil, error for an unparseable one.
func ParseDOB(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dobFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date format")
}

// Age returns completed years between dob and asOf. It is negative when
// dob is after asOf.
func Age(dob, asOf time.Time) int {
	age := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() || (asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		age--
	}
	return age
}
