package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "mastercoin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.WorkbookReader = (*Client)(nil)

// Options configures a Sheets client. CredentialsJSON wins over
// CredentialsFile when both are set.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// ClientOptions are appended after the credentials, mainly for tests
	// (endpoint overrides, custom HTTP clients).
	ClientOptions []goption.ClientOption
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: file,
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: opts.SpreadsheetID}, nil
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var clientOpts []goption.ClientOption
	switch {
	case opts.CredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	case len(opts.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadWorkbook fetches every tab of the spreadsheet in a single batch call.
// Values are requested unformatted so numbers arrive as numbers.
func (c *Client) ReadWorkbook(ctx context.Context) (ports.Workbook, error) {
	if c.svc == nil {
		return ports.Workbook{}, errors.New("sheets service not initialized")
	}

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return ports.Workbook{}, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	titles := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	if len(titles) == 0 {
		return ports.Workbook{}, ports.ErrEmptyWorkbook
	}

	ranges := make([]string, len(titles))
	for i, t := range titles {
		ranges[i] = quoteSheet(t)
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return ports.Workbook{}, fmt.Errorf("read sheet values: %w", err)
	}

	wb, err := workbookFromValues(titles, resp.ValueRanges)
	if err != nil {
		return ports.Workbook{}, err
	}
	slog.InfoContext(ctx, "Read workbook from Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheets", len(wb.Sheets),
		"rows", wb.RowCount())
	return wb, nil
}

// workbookFromValues pairs titles with the batch response, which preserves
// request order.
func workbookFromValues(titles []string, ranges []*gsheet.ValueRange) (ports.Workbook, error) {
	if len(ranges) != len(titles) {
		return ports.Workbook{}, fmt.Errorf("batch returned %d ranges for %d sheets", len(ranges), len(titles))
	}
	wb := ports.Workbook{Sheets: make([]ports.Sheet, 0, len(titles))}
	for i, title := range titles {
		var values [][]any
		if ranges[i] != nil {
			values = ranges[i].Values
		}
		wb.Sheets = append(wb.Sheets, ports.Sheet{Name: title, Rows: ports.RowsFromValues(values)})
	}
	return wb, nil
}

// quoteSheet renders a sheet title as an A1 range covering the whole tab.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
