package cmd

import (
	"github.com/spf13/cobra"

	"mastercoin/internal/aggregate"
	"mastercoin/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary of a month or of every month",
		Long: `Print income, savings, expenses, liability, pillar rollups, fund
totals and performance ratios for one month, or for the whole workbook when
--month is ALL.

Example:
  coin report --file mastercoin.xlsx --month "02 2025"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := ledger.Calculate(cmd.Context(), month)
			if err != nil {
				return err
			}
			return a.write(report.NewSummary(month, res))
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", aggregate.AllMonths, `month sheet name such as "01 2025", or ALL`)
	return cmd
}

func newLedgerCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the per-lender liability ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := ledger.Calculate(cmd.Context(), month)
			if err != nil {
				return err
			}
			return a.write(report.NewLedger(month, res))
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", aggregate.AllMonths, `month sheet name such as "01 2025", or ALL`)
	return cmd
}

func newMonthsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List the month sheets in calendar order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			months, err := ledger.Months()
			if err != nil {
				return err
			}
			return a.write(months)
		},
	}
}

func newTrendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Print per-month pillar totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			points, err := ledger.Trends()
			if err != nil {
				return err
			}
			return a.write(points)
		},
	}
}

func newSnapshotsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "Print the summary of every month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			snaps, err := ledger.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			return a.write(snaps)
		},
	}
}
