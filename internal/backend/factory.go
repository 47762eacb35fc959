package backend

import (
	"context"
	"fmt"

	"mastercoin/internal/log"
	"mastercoin/internal/sheets"
	gsheet "mastercoin/internal/sheets/google"
	"mastercoin/internal/sheets/memory"
	"mastercoin/internal/sheets/xlsx"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new reader factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateReader implements Factory.CreateReader
func (f *DefaultFactory) CreateReader(ctx context.Context, config Config) (sheets.WorkbookReader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case XLSXSource:
		return f.createXLSXReader(ctx, config), nil
	case SheetsSource:
		return f.createSheetsReader(ctx, config)
	case MemorySource:
		return f.createMemoryReader(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXLSXReader(ctx context.Context, config Config) sheets.WorkbookReader {
	f.logger.InfoContext(ctx, "Initialized xlsx source", "path", config.WorkbookPath)
	return xlsx.NewFile(config.WorkbookPath, f.logger)
}

func (f *DefaultFactory) createSheetsReader(ctx context.Context, config Config) (sheets.WorkbookReader, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets source", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}

func (f *DefaultFactory) createMemoryReader(ctx context.Context, config Config) (sheets.WorkbookReader, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory source: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory source", "data_directory", dataDir)
	return store, nil
}
