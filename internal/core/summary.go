package core

// LenderEntry is one lender's ledger line for an aggregation window.
type LenderEntry struct {
	Name           string       `json:"name" yaml:"name"`
	OpeningBalance float64      `json:"openingBalance" yaml:"openingBalance"`
	NewLoan        float64      `json:"newLoan" yaml:"newLoan"`
	Repayment      float64      `json:"repayment" yaml:"repayment"`
	ResidualAmount float64      `json:"residualAmount" yaml:"residualAmount"`
	Status         LenderStatus `json:"status" yaml:"status"`
}

// PillarItem is a line contributing to a pillar total.
type PillarItem struct {
	Item        string  `json:"item" yaml:"item"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Lender      string  `json:"lender,omitempty" yaml:"lender,omitempty"`
}

// PillarStats is the rollup of one pillar.
type PillarStats struct {
	Total float64      `json:"total" yaml:"total"`
	Items []PillarItem `json:"items" yaml:"items"`
}

// Funds are the named fund totals tracked by the protocol.
type Funds struct {
	ESF      float64 `json:"esf" yaml:"esf"`
	MSF      float64 `json:"msf" yaml:"msf"`
	OFC      float64 `json:"ofc" yaml:"ofc"`
	DailyTea float64 `json:"dailyTea" yaml:"dailyTea"`
}

// Performance ratios, each an integer percentage in [0,100].
type Performance struct {
	Overall          int `json:"overall" yaml:"overall"`
	Discipline       int `json:"discipline" yaml:"discipline"`
	SavingsExecution int `json:"savingsExecution" yaml:"savingsExecution"`
}

// Result is everything the display layer renders for one selection.
type Result struct {
	Income             float64                `json:"income" yaml:"income"`
	Savings            float64                `json:"savings" yaml:"savings"`
	Expenses           float64                `json:"expenses" yaml:"expenses"`
	Liability          float64                `json:"liability" yaml:"liability"`
	LiabilityBreakdown []LenderEntry          `json:"liabilityBreakdown" yaml:"liabilityBreakdown"`
	DebtClearance      float64                `json:"debtClearance" yaml:"debtClearance"`
	NetPosition        float64                `json:"netPosition" yaml:"netPosition"`
	Pillars            map[Pillar]PillarStats `json:"pillars" yaml:"pillars"`
	Funds              Funds                  `json:"funds" yaml:"funds"`
	Performance        Performance            `json:"performance" yaml:"performance"`
}

// PillarTrendPoint holds pillar sums for a single month.
type PillarTrendPoint struct {
	Month   string             `json:"month" yaml:"month"`
	Chrono  ChronoKey          `json:"chronoKey" yaml:"chronoKey"`
	Pillars map[Pillar]float64 `json:"pillars" yaml:"pillars"`
	Total   float64            `json:"total" yaml:"total"`
}

// PillarMetadata describes a pillar of the protocol.
type PillarMetadata struct {
	Order    int    `json:"order" yaml:"order"`
	Tag      Pillar `json:"tag" yaml:"tag"`
	Header   string `json:"header" yaml:"header"`
	Priority string `json:"priority" yaml:"priority"`
}

// PillarProtocol is the fixed pillar taxonomy.
var PillarProtocol = map[Pillar]PillarMetadata{
	PillarD:    {Order: 1, Tag: PillarD, Header: "Essential !!", Priority: "High"},
	PillarO:    {Order: 2, Tag: PillarO, Header: "Need to Understand !!", Priority: "Medium"},
	PillarB:    {Order: 3, Tag: PillarB, Header: "Remind Me !!", Priority: "Systemic"},
	PillarI:    {Order: 4, Tag: PillarI, Header: "Things Which I do !!", Priority: "Flexible"},
	PillarU:    {Order: 5, Tag: PillarU, Header: "Uncategorized", Priority: "N/A"},
	PillarNone: {Order: 0, Tag: PillarNone, Header: "N/A", Priority: "N/A"},
}

// EmptyPillars returns a rollup map with every pillar present and zeroed.
func EmptyPillars() map[Pillar]PillarStats {
	out := make(map[Pillar]PillarStats, len(PillarProtocol))
	for _, p := range Pillars() {
		out[p] = PillarStats{Items: []PillarItem{}}
	}
	return out
}
