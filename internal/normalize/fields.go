package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"mastercoin/internal/core"
	"mastercoin/internal/sheets"
)

// Column fallback chains. Sheets drift between template generations, so each
// logical field is read from the first truthy of several physical columns.
var (
	labelColumns  = []string{"Section", "Basic Format"}
	itemColumns   = []string{"Item Name", "__EMPTY"}
	lenderColumns = []string{"Giver_Name"}
	notesColumns  = []string{"Notes", "__EMPTY_4"}
	earnColumns   = []string{"Earn_Amount", "Earn Amount", "Taken_Amount", "Taken Amount"}
	usedColumns   = []string{"Used_Amount", "Used Amount", "Paid Amount", "Repayment", "__EMPTY_2"}
	budgetColumns = []string{"Budget Amount", "__EMPTY_1"}
)

const repaymentStatusColumn = "Repayment_Status"

// rowFields are the logical fields of one sheet row.
type rowFields struct {
	Label  string
	Item   string
	Lender string
	Notes  string
	Earn   float64
	Used   float64
	Budget float64
	// RepaymentStatus is NaN when the column is absent or not numeric.
	RepaymentStatus float64
}

func readFields(r sheets.Row) rowFields {
	return rowFields{
		Label:           textField(r, labelColumns),
		Item:            textField(r, itemColumns),
		Lender:          textField(r, lenderColumns),
		Notes:           textField(r, notesColumns),
		Earn:            numberField(r, earnColumns),
		Used:            numberField(r, usedColumns),
		Budget:          numberField(r, budgetColumns),
		RepaymentStatus: cellNumber(r, repaymentStatusColumn),
	}
}

// textField returns the first truthy cell of cols rendered as trimmed text.
func textField(r sheets.Row, cols []string) string {
	for _, c := range cols {
		v, ok := r.Value(c)
		if !ok {
			continue
		}
		if s, ok := cellText(v); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// cellText renders a truthy cell; empty strings, zero and NaN are falsy.
func cellText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		if !x {
			return "", false
		}
		return "true", true
	default:
		f := core.NumberValue(x)
		if !core.Truthy(f) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
}

// numberField returns the first truthy number among cols, or 0.
func numberField(r sheets.Row, cols []string) float64 {
	vals := make([]float64, len(cols))
	for i, c := range cols {
		vals[i] = cellNumber(r, c)
	}
	return core.FirstTruthy(vals...)
}

// cellNumber coerces a cell to a number; absent columns are NaN.
func cellNumber(r sheets.Row, col string) float64 {
	v, ok := r.Value(col)
	if !ok {
		return math.NaN()
	}
	return core.NumberValue(v)
}

// firstPositive returns the first value above zero, or 0.
func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

var lenderMarkers = []struct {
	marker string
	split  *regexp.Regexp
}{
	// "form" is a recurring typo of "from" in the sheets.
	{" form ", regexp.MustCompile(`(?i) form `)},
	{" from ", regexp.MustCompile(`(?i) from `)},
	{" of ", regexp.MustCompile(`(?i) of `)},
}

// ExtractLender guesses the counterparty of a liability row from its notes,
// then from an item shaped like "<Name> Loan". It returns "" when nothing
// resolves.
func ExtractLender(notes, item string) string {
	lower := strings.ToLower(notes)
	for _, m := range lenderMarkers {
		if strings.Contains(lower, m.marker) {
			parts := m.split.Split(notes, -1)
			return strings.TrimSpace(parts[len(parts)-1])
		}
	}

	words := strings.Fields(item)
	if len(words) > 1 {
		second := strings.ToLower(words[1])
		if second == "loan" || second == "borrowing" {
			return words[0]
		}
	}
	return ""
}

// resolveLender prefers the explicit lender column and falls back to
// ExtractLender. The placeholder "N/A" never escapes.
func resolveLender(f rowFields) string {
	lender := f.Lender
	if lender == "" || lender == core.NoLender {
		if guess := ExtractLender(f.Notes, f.Item); guess != "" {
			lender = guess
		}
	}
	if lender == core.NoLender {
		return ""
	}
	return lender
}
