package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID(
		"https://docs.google.com/spreadsheets/d/1AbC_dEf-123/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC_dEf-123", id)
}

func TestExtractSpreadsheetIDInvalidURL(t *testing.T) {
	_, err := extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	row := []interface{}{" Acme ", 10000, nil}

	assert.Equal(t, "Acme", getString(row, 0))
	assert.Equal(t, "10000", getString(row, 1))
	assert.Equal(t, "", getString(row, 2))
	assert.Equal(t, "", getString(row, 5), "out-of-range index is empty")
}
