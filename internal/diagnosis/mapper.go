package diagnosis

import "sort"

// Lookup resolves a diagnosis code to a condition category.
type Lookup interface {
	Category(code string) (string, bool)
}

// MapCodes returns the distinct condition categories for a patient's codes,
// sorted. Codes outside the mapping are dropped.
func MapCodes(codes []string, m Lookup) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	var out []string
	for _, code := range codes {
		cat, ok := m.Category(code)
		if !ok {
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
