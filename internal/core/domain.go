package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	KindIncome         Kind = "income"
	KindLiabilityIn    Kind = "liability_in"
	KindLiabilityRepay Kind = "liability_repay"
	KindExpense        Kind = "expense"
	KindSavings        Kind = "savings"
	KindAdjustment     Kind = "adjustment"
)

const (
	PillarD    Pillar = "D"
	PillarO    Pillar = "O"
	PillarB    Pillar = "B"
	PillarI    Pillar = "I"
	PillarU    Pillar = "U"
	PillarNone Pillar = "N/A"
)

const (
	RealmIncome      Realm = "Income"
	RealmLiabilities Realm = "Liabilities"
	RealmBudget      Realm = "Budget"
	RealmNone        Realm = "N/A"
)

// NoLender is the placeholder a sheet uses for a liability row without a
// named counterparty.
const NoLender = "N/A"

const (
	StatusActive  LenderStatus = "Active"
	StatusCleared LenderStatus = "Cleared"
)

// SubtypeReconciliation marks the Balance_Sheet adjustment record.
const SubtypeReconciliation = "reconciliation"

// SentinelChrono is assigned to sheets whose name is not "<month> <year>".
// It sorts before every valid month.
const SentinelChrono ChronoKey = "0000-00"

type (
	Kind         string
	Pillar       string
	Realm        string
	LenderStatus string

	// ChronoKey is a "YYYY-MM" string; lexical order is calendar order.
	ChronoKey string

	Transaction struct {
		Month          string    `json:"month" yaml:"month"`
		Chrono         ChronoKey `json:"chronoKey" yaml:"chronoKey"`
		Kind           Kind      `json:"kind" yaml:"kind"`
		Realm          Realm     `json:"realm" yaml:"realm"`
		Pillar         Pillar    `json:"pillar" yaml:"pillar"`
		Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
		Item           string    `json:"item" yaml:"item"`
		Amount         float64   `json:"amount" yaml:"amount"`
		Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty"`
		Lender         string    `json:"lender,omitempty" yaml:"lender,omitempty"`
		Classification string    `json:"classification,omitempty" yaml:"classification,omitempty"`
		Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
		Subtype        string    `json:"subtype,omitempty" yaml:"subtype,omitempty"`
		IsMirrorEntry  bool      `json:"isMirrorEntry" yaml:"isMirrorEntry"`
	}
)

var (
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrMirrorEntry   = errors.New("mirror flag must be set exactly on repayments")
	ErrIncomePillar  = errors.New("income must not carry a pillar")
)

// Kinds lists every transaction kind.
func Kinds() []Kind {
	return []Kind{KindIncome, KindLiabilityIn, KindLiabilityRepay, KindExpense, KindSavings, KindAdjustment}
}

// Pillars lists every pillar tag in protocol order, N/A last.
func Pillars() []Pillar {
	return []Pillar{PillarD, PillarO, PillarB, PillarI, PillarU, PillarNone}
}

func (k Kind) IsValid() bool {
	switch k {
	case KindIncome, KindLiabilityIn, KindLiabilityRepay, KindExpense, KindSavings, KindAdjustment:
		return true
	}
	return false
}

// Budgeted reports whether records of this kind feed pillar rollups.
func (k Kind) Budgeted() bool {
	return k == KindExpense || k == KindSavings || k == KindLiabilityRepay
}

// NewChronoKey builds the key for a year and a 1-12 month.
func NewChronoKey(year, month int) (ChronoKey, error) {
	if month < 1 || month > 12 {
		return SentinelChrono, ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return SentinelChrono, fmt.Errorf("invalid year %d", year)
	}
	return ChronoKey(fmt.Sprintf("%04d-%02d", year, month)), nil
}

// ChronoFromSheet derives the chronological key from a sheet name such as
// "01 2025". Names that do not split into exactly two numeric tokens get
// SentinelChrono, including admitted summary sheets like "Month Summary".
// All such sheets share that one key and are treated as a single period
// ahead of every calendar month.
func ChronoFromSheet(name string) ChronoKey {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return SentinelChrono
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return SentinelChrono
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return SentinelChrono
	}
	key, err := NewChronoKey(year, month)
	if err != nil {
		return SentinelChrono
	}
	return key
}

func (c ChronoKey) IsSentinel() bool {
	return c == SentinelChrono
}

// Before reports whether c sorts strictly before other.
func (c ChronoKey) Before(other ChronoKey) bool {
	return c < other
}

// DisplayMonth renders "01 2025" as "January 2025". Anything else is returned
// unchanged.
func DisplayMonth(name string) string {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return name
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return name
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return name
	}
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

// Validate checks the record-level invariants of a normalized transaction.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if t.IsMirrorEntry != (t.Kind == KindLiabilityRepay) {
		return ErrMirrorEntry
	}
	if t.Kind == KindIncome && t.Pillar != PillarNone {
		return ErrIncomePillar
	}
	return nil
}
