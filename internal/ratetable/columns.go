package ratetable

import (
	"strings"

	"github.com/gyeh/hccscore/internal/model"
)

// Column is one of the seven coefficient columns of a rate table.
type Column int

const (
	CommunityNonDualAged Column = iota
	CommunityNonDualDisabled
	CommunityFBDualAged
	CommunityFBDualDisabled
	CommunityPBDualAged
	CommunityPBDualDisabled
	Institutional
	numColumns
)

// columnNames are in rate-table file order.
var columnNames = [numColumns]string{
	"Community, NonDual, Aged",
	"Community, NonDual, Disabled",
	"Community, FBDual, Aged",
	"Community, FBDual, Disabled",
	"Community, PBDual, Aged",
	"Community, PBDual, Disabled",
	"Institutional",
}

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "invalid"
	}
	return columnNames[c]
}

// AllColumns lists the coefficient columns in file order.
func AllColumns() []Column {
	out := make([]Column, numColumns)
	for i := range out {
		out[i] = Column(i)
	}
	return out
}

// ColumnByName resolves a column header, ignoring case and extra whitespace.
func ColumnByName(name string) (Column, bool) {
	name = strings.Join(strings.Fields(name), " ")
	for i, n := range columnNames {
		if strings.EqualFold(n, name) {
			return Column(i), true
		}
	}
	return 0, false
}

// ColumnFor selects the coefficient column for a segment. Community segments
// with an Unknown dual tier or Other entitlement tier have no column.
func ColumnFor(seg model.Segment) (Column, bool) {
	if seg.Residence == model.ResidenceInstitutional {
		return Institutional, true
	}
	var aged, disabled Column
	switch seg.Dual {
	case model.DualNonDual:
		aged, disabled = CommunityNonDualAged, CommunityNonDualDisabled
	case model.DualFBDual:
		aged, disabled = CommunityFBDualAged, CommunityFBDualDisabled
	case model.DualPBDual:
		aged, disabled = CommunityPBDualAged, CommunityPBDualDisabled
	default:
		return 0, false
	}
	switch seg.Entitlement {
	case model.EntitlementAged:
		return aged, true
	case model.EntitlementDisabled:
		return disabled, true
	}
	return 0, false
}
