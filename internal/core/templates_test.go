package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVTemplate_RoundTrip(t *testing.T) {
	result, err := ParseFile(DelimitedText, []byte(CSVTemplate()))
	require.NoError(t, err)
	assert.Empty(t, result.Rejected)
	assert.Len(t, result.Accepted, TemplateRowCount)
	assert.NoError(t, result.Err())
}

func TestSpreadsheetTemplate_RoundTrip(t *testing.T) {
	data, err := SpreadsheetTemplate()
	require.NoError(t, err)

	result, err := ParseFile(Spreadsheet, data)
	require.NoError(t, err)
	assert.Empty(t, result.Rejected)
	require.Len(t, result.Accepted, TemplateRowCount)

	mc := result.Accepted[1]
	require.NotNil(t, mc.Options)
	assert.Len(t, mc.Options.Choices, 6)

	numeric := result.Accepted[0]
	require.NotNil(t, numeric.MaxValue)
	assert.Equal(t, 120.0, *numeric.MaxValue)
}

func TestSpreadsheetTemplate_Sheets(t *testing.T) {
	data, err := SpreadsheetTemplate()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TemplateDataSheet, TemplateInstructionsSheet}, f.GetSheetList())

	header, err := f.GetRows(TemplateDataSheet)
	require.NoError(t, err)
	assert.Equal(t, Columns, header[0])
}
