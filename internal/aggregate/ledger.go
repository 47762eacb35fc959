package aggregate

import (
	"sort"

	"mastercoin/internal/core"
)

// clearedThreshold absorbs float noise: balances at or below it are paid off.
const clearedThreshold = 0.01

// movements indexes liability flows by chrono key and lender so the residual
// scans never rescan the record list.
type movements struct {
	lenders []string
	keys    []core.ChronoKey
	loans   map[core.ChronoKey]map[string]float64
	repays  map[core.ChronoKey]map[string]float64
}

func indexMovements(all []core.Transaction) movements {
	m := movements{
		loans:  make(map[core.ChronoKey]map[string]float64),
		repays: make(map[core.ChronoKey]map[string]float64),
	}
	seenLender := make(map[string]bool)
	seenKey := make(map[core.ChronoKey]bool)

	for _, t := range all {
		if !seenKey[t.Chrono] {
			seenKey[t.Chrono] = true
			m.keys = append(m.keys, t.Chrono)
		}
		if t.Lender == "" || t.Lender == core.NoLender {
			continue
		}
		if !seenLender[t.Lender] {
			seenLender[t.Lender] = true
			m.lenders = append(m.lenders, t.Lender)
		}
		switch t.Kind {
		case core.KindLiabilityIn:
			add(m.loans, t.Chrono, t.Lender, t.Amount)
		case core.KindLiabilityRepay:
			add(m.repays, t.Chrono, t.Lender, t.Amount)
		}
	}
	sort.Slice(m.keys, func(i, j int) bool { return m.keys[i] < m.keys[j] })
	return m
}

func add(dst map[core.ChronoKey]map[string]float64, key core.ChronoKey, lender string, amount float64) {
	byLender, ok := dst[key]
	if !ok {
		byLender = make(map[string]float64)
		dst[key] = byLender
	}
	byLender[lender] += amount
}

// step advances one lender by one month and returns the raw residual.
func (m movements) step(balances map[string]float64, key core.ChronoKey, lender string) (opening, loan, repay, raw float64) {
	opening = balances[lender]
	loan = m.loans[key][lender]
	repay = m.repays[key][lender]
	raw = opening + loan - repay
	if raw <= clearedThreshold {
		balances[lender] = 0
	} else {
		balances[lender] = raw
	}
	return opening, loan, repay, raw
}

// breakdown runs the chronological scan over every key and builds ledger
// entries for the focus keys. It also returns the final balances.
func (m movements) breakdown(focus map[core.ChronoKey]bool) ([]core.LenderEntry, map[string]float64) {
	balances := make(map[string]float64, len(m.lenders))
	entries := []core.LenderEntry{}
	pos := make(map[string]int)

	for _, key := range m.keys {
		for _, lender := range m.lenders {
			opening, loan, repay, raw := m.step(balances, key, lender)
			if !focus[key] {
				continue
			}
			status := core.StatusActive
			if raw <= clearedThreshold {
				status = core.StatusCleared
			}

			if i, ok := pos[lender]; ok {
				e := &entries[i]
				e.NewLoan += loan
				e.Repayment += repay
				e.ResidualAmount = balances[lender]
				e.Status = status
				continue
			}
			if opening == 0 && loan == 0 && repay == 0 && balances[lender] == 0 {
				continue
			}
			pos[lender] = len(entries)
			entries = append(entries, core.LenderEntry{
				Name:           lender,
				OpeningBalance: opening,
				NewLoan:        loan,
				Repayment:      repay,
				ResidualAmount: balances[lender],
				Status:         status,
			})
		}
	}
	return entries, balances
}

// outstandingThrough re-runs the scan over keys up to and including last and
// returns the summed balances.
func (m movements) outstandingThrough(last core.ChronoKey) float64 {
	balances := make(map[string]float64, len(m.lenders))
	for _, key := range m.keys {
		if key > last {
			break
		}
		for _, lender := range m.lenders {
			m.step(balances, key, lender)
		}
	}
	return m.total(balances)
}

// total sums balances in lender first-appearance order.
func (m movements) total(balances map[string]float64) float64 {
	var sum float64
	for _, lender := range m.lenders {
		sum += balances[lender]
	}
	return sum
}
