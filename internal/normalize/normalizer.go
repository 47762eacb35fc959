// Package normalize turns raw monthly sheets into canonical transactions.
//
// Each row is classified against the protocol table and routed through one
// of three branches: income, liability or generic budget line. A single row
// may emit zero, one or two transactions.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"mastercoin/internal/core"
	"mastercoin/internal/log"
	"mastercoin/internal/sheets"
)

var monthSheetPattern = regexp.MustCompile(`^\d{2}\s\d{4}$`)

// IsMonthSheet reports whether a sheet carries monthly data: either named
// "MM YYYY" or containing the word "month".
func IsMonthSheet(name string) bool {
	return monthSheetPattern.MatchString(name) || strings.Contains(strings.ToLower(name), "month")
}

// Normalizer converts workbooks into transactions.
type Normalizer struct {
	logger *log.Logger
}

// New creates a Normalizer. A nil logger discards output.
func New(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Normalizer{logger: logger.WithComponent(log.ComponentNormalize)}
}

// Workbook normalizes every admitted sheet, in workbook order.
func (n *Normalizer) Workbook(wb sheets.Workbook) []core.Transaction {
	out := make([]core.Transaction, 0, wb.RowCount())
	admitted := 0
	for _, sh := range wb.Sheets {
		if !IsMonthSheet(sh.Name) {
			n.logger.Debug("Skipping non-month sheet", log.FieldSheet, sh.Name)
			continue
		}
		admitted++
		out = append(out, n.Sheet(sh.Name, sh.Rows)...)
	}
	n.logger.Info("Normalized workbook",
		log.FieldSheetCount, admitted,
		log.FieldRecordCount, len(out),
	)
	return out
}

// Sheet normalizes the rows of a single month sheet. Admission by name is
// the caller's concern.
func (n *Normalizer) Sheet(name string, rows []sheets.Row) []core.Transaction {
	chrono := core.ChronoFromSheet(name)
	if chrono.IsSentinel() {
		n.logger.Debug("Sheet name is not a calendar month", log.FieldSheet, name)
	}
	var out []core.Transaction
	for _, r := range rows {
		out = append(out, normalizeRow(name, chrono, r)...)
	}
	return out
}

func normalizeRow(month string, chrono core.ChronoKey, r sheets.Row) []core.Transaction {
	f := readFields(r)
	if skipRow(f) {
		return nil
	}

	entry := classify(f.Item, f.Label)
	base := core.Transaction{Month: month, Chrono: chrono}

	switch {
	case isIncome(f, entry):
		return incomeRecords(base, f)
	case isLiability(f, entry):
		return liabilityRecords(base, f)
	default:
		return budgetRecords(base, f, entry)
	}
}

func skipRow(f rowFields) bool {
	return f.Item == "" || f.Item == "Item Name" || f.Label == "Total" || f.Item == "Total"
}

func isIncome(f rowFields, e protocolEntry) bool {
	return f.Label == "Income" || f.Item == "Salary" || e.Realm == core.RealmIncome
}

func isLiability(f rowFields, e protocolEntry) bool {
	switch f.Item {
	case "Borrowed Fund", "Balance_Sheet", "Loan Repayment":
		return true
	}
	return f.Label == "Liability" || e.Realm == core.RealmLiabilities || strings.Contains(f.Item, "Repayment")
}

func incomeRecords(base core.Transaction, f rowFields) []core.Transaction {
	var out []core.Transaction
	inflow := firstPositive(f.Used, f.Earn, f.Budget)
	if inflow > 0 {
		t := base
		t.Kind = core.KindIncome
		t.Realm = core.RealmIncome
		t.Pillar = core.PillarNone
		t.Item = f.Item
		t.Amount = inflow
		t.Notes = f.Notes
		t.Classification = "Standard Inflow"
		t.Description = "Primary income source."
		out = append(out, t)
	}

	// Salary credited above what was declared used is the rounding-off saving.
	if f.Earn > f.Used && f.Used > 0 {
		t := base
		t.Kind = core.KindSavings
		t.Realm = core.RealmBudget
		t.Pillar = core.PillarB
		t.Item = "Passive_Saving"
		t.Amount = f.Earn - f.Used
		t.Notes = "OFC rounding difference"
		t.Classification = "Passive Saving"
		t.Description = "Rounding-off saving from salary."
		out = append(out, t)
	}
	return out
}

func liabilityRecords(base core.Transaction, f rowFields) []core.Transaction {
	lender := resolveLender(f)

	if f.Item == "Balance_Sheet" {
		paid := f.Used
		if !math.IsNaN(f.RepaymentStatus) {
			paid = f.RepaymentStatus
		}
		amount := f.Earn - paid
		if !(amount > 0) {
			return nil
		}
		t := base
		t.Kind = core.KindAdjustment
		t.Subtype = core.SubtypeReconciliation
		t.Realm = core.RealmLiabilities
		t.Pillar = core.PillarNone
		t.Item = "Balance_Sheet"
		t.Amount = amount
		t.Notes = strings.TrimSpace(fmt.Sprintf("Owed: %s, Paid: %s. %s", formatAmount(f.Earn), formatAmount(paid), f.Notes))
		t.Classification = "Reconciliation"
		t.Description = "Maintains the Iron Bank status."
		return []core.Transaction{t}
	}

	var out []core.Transaction
	if f.Earn > 0 && f.Item != "Loan Repayment" {
		t := base
		t.Kind = core.KindLiabilityIn
		t.Realm = core.RealmLiabilities
		t.Pillar = core.PillarNone
		t.Item = f.Item
		t.Amount = f.Earn
		t.Notes = f.Notes
		t.Lender = lender
		t.Classification = "Debt Inflow"
		t.Description = "Funds borrowed from external sources."
		out = append(out, t)
	}

	repayment := f.Used
	if !core.Truthy(repayment) && !math.IsNaN(f.RepaymentStatus) {
		repayment = f.RepaymentStatus
	}
	if repayment > 0 {
		t := base
		t.Kind = core.KindLiabilityRepay
		t.Realm = core.RealmBudget
		t.Pillar = core.PillarD
		t.Item = "Loan Repayment"
		t.Amount = repayment
		t.Notes = f.Notes
		t.Lender = lender
		t.Classification = "Debt Service"
		t.Description = "Execution of liability repayment."
		t.IsMirrorEntry = true
		out = append(out, t)
	}
	return out
}

func budgetRecords(base core.Transaction, f rowFields, e protocolEntry) []core.Transaction {
	amount := firstPositive(f.Used, f.Earn, f.Budget)
	if amount <= 0 {
		return nil
	}

	t := base
	t.Kind = core.KindExpense
	if savingsFunds[f.Item] {
		t.Kind = core.KindSavings
	}
	t.Realm = e.Realm
	t.Pillar = e.Pillar
	t.Category = f.Label
	t.Item = f.Item
	t.Amount = amount
	t.Notes = f.Notes
	t.Classification = e.Classification
	t.Description = e.Description
	return []core.Transaction{t}
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
