// Package tabular reads delimited invoice spreadsheets into ordered raw
// rows for the conversion pipeline.
//
// Structural problems with the input (unreadable file, missing mandatory
// columns) are reported here, before the pipeline is ever invoked; cell
// level problems are left for the pipeline's defaulting rules.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fxreport/pkg/models"
)

// RequiredColumns are the mandatory header columns of an invoice
// spreadsheet. Payment_Date and Payment_Amount are optional.
var RequiredColumns = []string{
	"Client",
	"Invoice_Amount",
	"Currency",
	"Invoice_Date",
	"Due_Date",
}

// Common reader errors
var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("input file is empty")

	// ErrMissingColumns is returned when mandatory header columns are
	// absent.
	ErrMissingColumns = errors.New("missing required columns")
)

// ReadFile reads a CSV file into ordered raw rows.
func ReadFile(path string) ([]models.RawRow, error) {
	const op = "ReadFile"

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open input file: %w", op, err)
	}
	defer file.Close()

	rows, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return rows, nil
}

// Read parses delimited text into ordered raw rows, one per data line,
// keyed by the header columns. The header is validated against
// RequiredColumns before any row is produced. Short rows are tolerated;
// missing trailing cells simply stay absent from the row map.
func Read(r io.Reader) ([]models.RawRow, error) {
	const op = "Read"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", op, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	if err := ValidateHeader(columns); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read row %d: %w", op, len(rows)+2, err)
		}

		row := make(models.RawRow, len(columns))
		for i, value := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			row[columns[i]] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ValidateHeader checks that every mandatory column is present.
func ValidateHeader(columns []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		present[strings.TrimSpace(name)] = struct{}{}
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}
