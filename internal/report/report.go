// Package report renders aggregation results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"mastercoin/internal/core"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be json or yaml", s)
	}
}

// Summary is the document printed for one month selection.
type Summary struct {
	Month   string      `json:"month" yaml:"month"`
	Display string      `json:"display" yaml:"display"`
	Result  core.Result `json:"result" yaml:"result"`
}

// NewSummary labels res with month.
func NewSummary(month string, res core.Result) Summary {
	return Summary{Month: month, Display: core.DisplayMonth(month), Result: res}
}

// Ledger is the lender breakdown printed by the ledger command.
type Ledger struct {
	Month       string             `json:"month" yaml:"month"`
	Outstanding float64            `json:"outstanding" yaml:"outstanding"`
	Lenders     []core.LenderEntry `json:"lenders" yaml:"lenders"`
}

// NewLedger extracts the liability view of res.
func NewLedger(month string, res core.Result) Ledger {
	lenders := res.LiabilityBreakdown
	if lenders == nil {
		lenders = []core.LenderEntry{}
	}
	return Ledger{Month: month, Outstanding: res.Liability, Lenders: lenders}
}

// Write encodes v to w in format.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
