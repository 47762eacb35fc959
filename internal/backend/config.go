package backend

import (
	"fmt"

	"mastercoin/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.WorkbookSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid workbook source in config: %s", appConfig.WorkbookSource)
	}

	return Config{
		Type: sourceType,

		WorkbookPath: appConfig.WorkbookPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}

	switch c.Type {
	case XLSXSource:
		if c.WorkbookPath == "" {
			return fmt.Errorf("workbook path is required for xlsx source")
		}

	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets source")
		}

	case MemorySource:
		// DataDirectory defaults to "data" when empty
	}

	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{XLSXSource, SheetsSource, MemorySource}
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	types := GetSourceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
