// Package sheets reads invoice rows from a Google Sheets worksheet as an
// alternative to a local CSV file. The worksheet must carry the same header
// columns as a CSV input.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"fxreport/internal/logger"
	"fxreport/internal/tabular"
	"fxreport/pkg/models"
)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewService creates a Google Sheets reader for the spreadsheet behind the
// given URL. Credentials come from GOOGLE_APPLICATION_CREDENTIALS (a file
// path) or GOOGLE_CREDENTIALS (inline JSON).
func NewService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// ReadRows reads the invoice rows from the given worksheet. The first row
// is the header and is validated against the mandatory invoice columns;
// remaining rows convert to the same raw-row shape a CSV input produces.
func (s *Service) ReadRows(ctx context.Context, worksheet string) ([]models.RawRow, error) {
	const op = "ReadRows"

	s.log.Info().Str("worksheet", worksheet).Msg("Reading invoice rows")

	resp, err := s.sheetsService.Spreadsheets.Values.
		Get(s.spreadsheetID, worksheet).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read worksheet %s: %w", op, worksheet, err)
	}

	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%s: worksheet %s is empty", op, worksheet)
	}

	columns := make([]string, len(resp.Values[0]))
	for i := range resp.Values[0] {
		columns[i] = getString(resp.Values[0], i)
	}

	if err := tabular.ValidateHeader(columns); err != nil {
		return nil, fmt.Errorf("%s: worksheet %s: %w", op, worksheet, err)
	}

	rows := make([]models.RawRow, 0, len(resp.Values)-1)
	for _, record := range resp.Values[1:] {
		row := make(models.RawRow, len(columns))
		for i := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			row[columns[i]] = getString(record, i)
		}
		rows = append(rows, row)
	}

	s.log.Info().
		Int("rows", len(rows)).
		Str("worksheet", worksheet).
		Msg("Invoice rows read successfully")

	return rows, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	re := regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)

	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}

	return matches[1], nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
