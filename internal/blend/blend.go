// Package blend combines adjusted risk scores across model years.
package blend

import (
	"sort"

	"github.com/gyeh/hccscore/internal/model"
)

// Blend computes Σ weight[year] * score[year][member] over the union of
// members in all years. A member missing from a year contributes 0 for it.
// Weights are applied as given; they are not normalized.
func Blend(scoresByYear map[int]map[string]float64, weightsByYear map[int]float64) map[string]float64 {
	total := make(map[string]float64)
	for _, year := range sortedYears(scoresByYear) {
		w := weightsByYear[year]
		for member, s := range scoresByYear[year] {
			total[member] += w * s
		}
	}
	return total
}

// Records blends per-year score records into one BlendRecord per member,
// sorted by member id. Unavailable records contribute 0 and are listed in
// UnavailableYears.
func Records(byYear map[int][]model.ScoreRecord, weightsByYear map[int]float64) []model.BlendRecord {
	scores := make(map[int]map[string]float64, len(byYear))
	recs := make(map[string]*model.BlendRecord)

	for year, list := range byYear {
		m := make(map[string]float64, len(list))
		for i := range list {
			r := &list[i]
			br, ok := recs[r.MemberID]
			if !ok {
				br = &model.BlendRecord{MemberID: r.MemberID, Adjusted: make(map[int]float64)}
				recs[r.MemberID] = br
			}
			if !r.Available() {
				br.UnavailableYears = append(br.UnavailableYears, year)
				continue
			}
			m[r.MemberID] = r.AdjustedScore
			br.Adjusted[year] = r.AdjustedScore
		}
		scores[year] = m
	}

	totals := Blend(scores, weightsByYear)

	out := make([]model.BlendRecord, 0, len(recs))
	for id, br := range recs {
		br.TotalScore = totals[id]
		sort.Ints(br.UnavailableYears)
		out = append(out, *br)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// Years returns the model years present, ascending.
func Years(byYear map[int][]model.ScoreRecord) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// sortedYears fixes summation order so totals are reproducible bit for bit.
func sortedYears(m map[int]map[string]float64) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
