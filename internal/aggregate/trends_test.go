package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mastercoin/internal/core"
)

func TestPillarTrends(t *testing.T) {
	all := []core.Transaction{
		tx("02 2025", core.KindExpense, core.PillarO, "Grocery", 300),
		tx("01 2025", core.KindIncome, core.PillarNone, "Salary", 5000),
		tx("01 2025", core.KindExpense, core.PillarO, "Grocery", 200),
		tx("01 2025", core.KindSavings, core.PillarD, "TIME", 1000),
		repay("02 2025", "Maya", 400),
		loan("02 2025", "Maya", 900),
	}
	points := PillarTrends(all)
	require.Len(t, points, 2)

	assert.Equal(t, core.ChronoKey("2025-01"), points[0].Chrono)
	assert.Equal(t, "01 2025", points[0].Month)
	assert.Equal(t, 1200.0, points[0].Total)
	assert.Equal(t, 1000.0, points[0].Pillars[core.PillarD])
	assert.Len(t, points[0].Pillars, 6)

	assert.Equal(t, 700.0, points[1].Total)
	assert.Equal(t, 400.0, points[1].Pillars[core.PillarD])
	assert.Equal(t, 0.0, points[1].Pillars[core.PillarNone])
}

func TestPillarTrendsSentinelSortsFirst(t *testing.T) {
	all := []core.Transaction{
		tx("01 2025", core.KindExpense, core.PillarO, "Grocery", 1),
		tx("Month Summary", core.KindExpense, core.PillarO, "Grocery", 2),
	}
	points := PillarTrends(all)
	require.Len(t, points, 2)
	assert.Equal(t, "Month Summary", points[0].Month)
	assert.True(t, points[0].Chrono.IsSentinel())
}

func TestSelectMonth(t *testing.T) {
	all := loanFixture()
	assert.Len(t, SelectMonth(all, AllMonths), len(all))
	assert.Len(t, SelectMonth(all, ""), len(all))
	assert.Len(t, SelectMonth(all, "01 2025"), 3)
	assert.Empty(t, SelectMonth(all, "03 2025"))

	sel := SelectMonth(all, AllMonths)
	sel[0].Amount = -1
	assert.Equal(t, 5000.0, all[0].Amount)
}

func TestMonthsInCalendarOrder(t *testing.T) {
	all := []core.Transaction{
		tx("01 2025", core.KindExpense, core.PillarO, "Grocery", 1),
		tx("12 2024", core.KindExpense, core.PillarO, "Grocery", 1),
		tx("01 2025", core.KindExpense, core.PillarO, "Grocery", 1),
		tx("Month Summary", core.KindExpense, core.PillarO, "Grocery", 1),
	}
	assert.Equal(t, []string{"Month Summary", "12 2024", "01 2025"}, Months(all))
	assert.Empty(t, Months(nil))
}
