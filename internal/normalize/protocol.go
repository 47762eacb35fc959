package normalize

import (
	"strings"

	"mastercoin/internal/core"
)

type protocolEntry struct {
	Pillar         core.Pillar
	Realm          core.Realm
	Classification string
	Description    string
}

// protocol maps canonical item (or section label) names to their
// classification.
var protocol = map[string]protocolEntry{
	"Salary":         {core.PillarNone, core.RealmIncome, "Standard Inflow", "Primary income source."},
	"Borrowed Fund":  {core.PillarNone, core.RealmLiabilities, "Debt Inflow", "Funds taken from external sources."},
	"Balance_Sheet":  {core.PillarNone, core.RealmLiabilities, "Reconciliation", "Maintains the Iron Bank status."},
	"TIME":           {core.PillarD, core.RealmBudget, "Saving/Fixed", "Monthly rent or survival time-cost."},
	"ESF":            {core.PillarD, core.RealmBudget, "Education Fund", "Education Spending Fund for future fees."},
	"Daily Tea":      {core.PillarD, core.RealmBudget, "Discipline Anchor", "Micro-metric for daily financial consistency."},
	"MSF":            {core.PillarD, core.RealmBudget, "Medical Fund", "Medical Spending Fund for family health."},
	"Loan Repayment": {core.PillarD, core.RealmBudget, "Debt Service", "Execution of liability repayment."},
	"Cylinder":       {core.PillarO, core.RealmBudget, "Operational", "Monthly utility (Gas)."},
	"Grocery":        {core.PillarO, core.RealmBudget, "Operational", "Household food and supplies."},
	"Vegetable":      {core.PillarO, core.RealmBudget, "Operational", "Fresh produce spending."},
	"Daily Spending": {core.PillarO, core.RealmBudget, "Operational", "Variable household daily costs."},
	"Occasionally":   {core.PillarO, core.RealmBudget, "Operational", "Lifestyle optimization (Parties/Dining)."},
	"EMI":            {core.PillarB, core.RealmBudget, "Fixed Obligation", "Equated Monthly Installments."},
	"OFC":            {core.PillarB, core.RealmBudget, "Passive Saving", "The rounding-off saving from Realm 1."},
	"Passive_Saving": {core.PillarB, core.RealmBudget, "Passive Saving", "The rounding-off saving from Realm 1."},
	"Bills":          {core.PillarB, core.RealmBudget, "Fixed Obligation", "Recurring utility and service bills."},
	"Travelling":     {core.PillarI, core.RealmBudget, "Lifestyle", "Daily movement and travel charges."},
	"Recharge":       {core.PillarI, core.RealmBudget, "Lifestyle", "Mobile and digital connectivity."},
	"FFF":            {core.PillarI, core.RealmBudget, "Documentation", "Form Filling Fees for administrative needs."},
	"Unpredictable":  {core.PillarI, core.RealmBudget, "Volatile", "Buffer for unexpected spending."},
	"Purchase":       {core.PillarI, core.RealmBudget, "Asset", "Acquisition of personal items or assets."},
}

// Section headers take precedence over the table, first match wins.
var labelOverrides = []struct {
	phrases []string
	pillar  core.Pillar
}{
	{[]string{"essential"}, core.PillarD},
	{[]string{"need to understand"}, core.PillarO},
	{[]string{"remind me"}, core.PillarB},
	{[]string{"things which i do", "things which i did"}, core.PillarI},
}

// savingsFunds are budget items that count as savings rather than spending.
var savingsFunds = map[string]bool{
	"TIME":           true,
	"ESF":            true,
	"MSF":            true,
	"OFC":            true,
	"Passive_Saving": true,
}

// classify resolves the protocol entry for a row: table lookup by item, then
// by label, then the default; the label override is applied last.
func classify(item, label string) protocolEntry {
	entry, ok := protocol[item]
	if !ok {
		entry, ok = protocol[label]
	}
	if !ok {
		entry = protocolEntry{Pillar: core.PillarU, Realm: core.RealmBudget, Classification: "Other"}
	}

	lower := strings.ToLower(label)
	for _, o := range labelOverrides {
		for _, p := range o.phrases {
			if strings.Contains(lower, p) {
				entry.Pillar = o.pillar
				entry.Realm = core.RealmBudget
				return entry
			}
		}
	}
	return entry
}

// ProtocolItems returns the table as a map of item name to metadata.
func ProtocolItems() map[string]ProtocolItem {
	out := make(map[string]ProtocolItem, len(protocol))
	for k, e := range protocol {
		out[k] = ProtocolItem{Pillar: e.Pillar, Realm: e.Realm, Classification: e.Classification, Description: e.Description}
	}
	return out
}

// ProtocolItem is the exported view of a protocol table entry.
type ProtocolItem struct {
	Pillar         core.Pillar `json:"pillar" yaml:"pillar"`
	Realm          core.Realm  `json:"realm" yaml:"realm"`
	Classification string      `json:"classification" yaml:"classification"`
	Description    string      `json:"description" yaml:"description"`
}
