package aggregate

import (
	"sort"

	"mastercoin/internal/core"
)

// AllMonths selects the whole dataset.
const AllMonths = "ALL"

// PillarTrends returns per-month pillar sums in chronological order. The
// month label of a point is taken from the first record of that month.
func PillarTrends(all []core.Transaction) []core.PillarTrendPoint {
	var keys []core.ChronoKey
	points := make(map[core.ChronoKey]*core.PillarTrendPoint)

	for _, t := range all {
		p, ok := points[t.Chrono]
		if !ok {
			p = &core.PillarTrendPoint{
				Month:   t.Month,
				Chrono:  t.Chrono,
				Pillars: make(map[core.Pillar]float64, len(core.PillarProtocol)),
			}
			if p.Month == "" {
				p.Month = "Unknown"
			}
			for _, pl := range core.Pillars() {
				p.Pillars[pl] = 0
			}
			points[t.Chrono] = p
			keys = append(keys, t.Chrono)
		}
		if t.Pillar == core.PillarNone || !t.Kind.Budgeted() {
			continue
		}
		p.Pillars[t.Pillar] += t.Amount
		p.Total += t.Amount
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]core.PillarTrendPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, *points[k])
	}
	return out
}

// SelectMonth returns the records of one month label, or every record for
// AllMonths and the empty string.
func SelectMonth(all []core.Transaction, month string) []core.Transaction {
	if month == "" || month == AllMonths {
		return append([]core.Transaction(nil), all...)
	}
	var out []core.Transaction
	for _, t := range all {
		if t.Month == month {
			out = append(out, t)
		}
	}
	return out
}

// Months returns the distinct month labels, ordered by chrono key and then
// by label.
func Months(all []core.Transaction) []string {
	chrono := make(map[string]core.ChronoKey)
	var labels []string
	for _, t := range all {
		if _, ok := chrono[t.Month]; ok {
			continue
		}
		chrono[t.Month] = t.Chrono
		labels = append(labels, t.Month)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := chrono[labels[i]], chrono[labels[j]]
		if a != b {
			return a < b
		}
		return labels[i] < labels[j]
	})
	return labels
}
