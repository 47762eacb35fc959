// Package aggregate computes the financial summary of a month selection.
//
// All functions are pure: they read the full dataset and the selection and
// return fresh values. Liability balances are cumulative, so a selection is
// always evaluated against the whole history.
package aggregate

import (
	"mastercoin/internal/core"
)

// Aggregate computes totals, lender ledger, pillar rollups, funds and
// performance ratios for selection, using all for debt history.
func Aggregate(all, selection []core.Transaction) core.Result {
	var income, savings, operating, clearance float64
	focus := make(map[core.ChronoKey]bool)
	var latest core.ChronoKey

	for _, t := range selection {
		if !focus[t.Chrono] {
			focus[t.Chrono] = true
			if latest == "" || latest.Before(t.Chrono) {
				latest = t.Chrono
			}
		}
		switch t.Kind {
		case core.KindIncome:
			income += t.Amount
		case core.KindSavings:
			savings += t.Amount
		case core.KindExpense:
			if !t.IsMirrorEntry {
				operating += t.Amount
			}
		case core.KindLiabilityRepay:
			clearance += t.Amount
		}
	}

	m := indexMovements(all)
	breakdown, balances := m.breakdown(focus)
	var outstanding float64
	if len(focus) > 0 {
		outstanding = m.outstandingThrough(latest)
	} else {
		outstanding = m.total(balances)
	}

	outflow := operating + clearance + savings
	return core.Result{
		Income:             income,
		Savings:            savings,
		Expenses:           operating,
		Liability:          outstanding,
		LiabilityBreakdown: breakdown,
		DebtClearance:      clearance,
		NetPosition:        income - outflow,
		Pillars:            rollupPillars(selection),
		Funds:              funds(selection),
		Performance:        performance(income, outflow, operating, savings),
	}
}

func rollupPillars(selection []core.Transaction) map[core.Pillar]core.PillarStats {
	pillars := core.EmptyPillars()
	for _, t := range selection {
		if t.Pillar == core.PillarNone || !t.Kind.Budgeted() {
			continue
		}
		stats := pillars[t.Pillar]
		stats.Total += t.Amount
		stats.Items = append(stats.Items, core.PillarItem{
			Item:        t.Item,
			Amount:      t.Amount,
			Description: t.Description,
			Lender:      t.Lender,
		})
		pillars[t.Pillar] = stats
	}
	return pillars
}

func funds(selection []core.Transaction) core.Funds {
	var f core.Funds
	for _, t := range selection {
		switch t.Item {
		case "ESF":
			f.ESF += t.Amount
		case "MSF":
			f.MSF += t.Amount
		case "OFC", "Passive_Saving":
			f.OFC += t.Amount
		case "Daily Tea":
			f.DailyTea += t.Amount
		}
	}
	return f
}

func performance(income, outflow, operating, savings float64) core.Performance {
	denom := income
	if !core.Truthy(denom) {
		denom = 1
	}
	ratio := func(f float64) int {
		return core.RoundHalfUp(core.Clamp(f*100, 0, 100))
	}
	return core.Performance{
		Overall:          ratio(1 - outflow/denom),
		Discipline:       ratio(1 - operating/denom),
		SavingsExecution: ratio(savings / denom),
	}
}
