// Package cmd provides the commands of the coin CLI.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mastercoin/internal/backend"
	"mastercoin/internal/cli"
	"mastercoin/internal/config"
	"mastercoin/internal/log"
	"mastercoin/internal/report"
	"mastercoin/internal/services"
)

// options are the persistent flags shared by every command.
type options struct {
	source      string
	file        string
	dataDir     string
	sheetID     string
	credentials string
	format      string
	logLevel    string
	debug       bool
}

// app is the state built once per invocation by the root PersistentPreRunE.
type app struct {
	opts   options
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	logger *log.Logger
	format report.Format
}

// NewRootCmd builds the coin command tree writing documents to out and logs
// to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "coin",
		Short: "Summarize a Mastercoin budget workbook",
		Long: `coin reads a Mastercoin workbook (an xlsx file, a Google Sheet or a
directory of CSV sheets) and prints monthly summaries, lender ledgers and
pillar trends as JSON or YAML.

Example:
  coin report --file mastercoin.xlsx --month "01 2025"
  coin ledger --source sheets --sheet-id 1AbC... --format yaml
  coin months --source memory --data-dir ./data`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.source, "source", "", "workbook source: xlsx, sheets or memory (default $WORKBOOK_SOURCE or xlsx)")
	flags.StringVarP(&a.opts.file, "file", "f", "", "xlsx workbook path (default $WORKBOOK_PATH)")
	flags.StringVar(&a.opts.dataDir, "data-dir", "", "directory of CSV sheets for the memory source")
	flags.StringVar(&a.opts.sheetID, "sheet-id", "", "Google spreadsheet ID for the sheets source")
	flags.StringVar(&a.opts.credentials, "credentials", "", "service account JSON file for the sheets source")
	flags.StringVarP(&a.opts.format, "format", "o", "json", "output format: json or yaml")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")
	flags.BoolVar(&a.opts.debug, "debug", false, "shorthand for --log-level debug")

	root.AddCommand(
		newReportCmd(a),
		newLedgerCmd(a),
		newMonthsCmd(a),
		newTrendsCmd(a),
		newSnapshotsCmd(a),
		newReloadCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	a.cfg = config.Load()

	flags := cmd.Flags()
	if flags.Changed("file") {
		a.cfg.WorkbookPath = a.opts.file
		if !flags.Changed("source") {
			a.cfg.WorkbookSource = string(backend.XLSXSource)
		}
	}
	if a.opts.source != "" {
		a.cfg.WorkbookSource = a.opts.source
	}
	if a.opts.dataDir != "" {
		a.cfg.DataDirectory = a.opts.dataDir
	}
	if a.opts.sheetID != "" {
		a.cfg.GoogleSpreadsheetID = a.opts.sheetID
	}
	if a.opts.credentials != "" {
		a.cfg.GoogleServiceAccountFile = a.opts.credentials
	}
	if a.opts.logLevel != "" {
		a.cfg.LogLevel = a.opts.logLevel
	}
	if a.opts.debug {
		a.cfg.LogLevel = "debug"
	}

	a.logger = cli.SetupLoggerTo(a.errOut, a.cfg.LogLevel).WithComponent(log.ComponentCLI)

	format, err := report.ParseFormat(a.opts.format)
	if err != nil {
		return err
	}
	a.format = format
	return nil
}

// load reads the configured workbook into a fresh ledger.
func (a *app) load(ctx context.Context) (*services.Ledger, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	reader, err := backend.NewFactory(a.logger).CreateReader(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	ledger := services.NewLedger(services.WithLogger(a.logger))
	if _, err := ledger.Ingest(ctx, reader, bcfg.Type.String()); err != nil {
		return nil, fmt.Errorf("load %s workbook: %w", bcfg.Type, err)
	}
	return ledger, nil
}

func (a *app) write(v any) error {
	return report.Write(a.out, a.format, v)
}
