package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// NormalizeLabel collapses internal whitespace and trims a table label,
// preserving case. Rate-table labels are matched exactly after this.
func NormalizeLabel(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// HeaderKey reduces a column header to lowercase alphanumerics so that
// "Medicaid Dual Status", "medicaid_dual_status" and "MedicaidDualStatus" match.
func HeaderKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(s, ""))
}
