package services

import (
	"testing"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLedgerExporter_Build(t *testing.T) {
	tables, err := DefaultBracketTables()
	require.NoError(t, err)
	categorizer := NewDefaultCategorizer()
	txs := yearLedger()

	stats, err := NewPOSDCalculator(categorizer, tables).Compute(txs, 2025, models.Profile{OIB: "12345678901", Name: "Obrt Test"})
	require.NoError(t, err)

	buf, err := NewLedgerExporter(categorizer).Build(stats, txs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetReceipts, SheetTaxes}, f.GetSheetList())

	oib, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "12345678901", oib)

	status, err := f.GetCellValue(SheetSummary, "B10")
	require.NoError(t, err)
	assert.Equal(t, "owed", status)

	receipts, err := f.GetRows(SheetReceipts)
	require.NoError(t, err)
	// header plus the three inflows dated inside 2025
	require.Len(t, receipts, 4)
	assert.Equal(t, "Date", receipts[0][0])
	assert.Equal(t, "2025-06-10", receipts[1][0])
	assert.Equal(t, "TRUE", receipts[2][4])

	taxes, err := f.GetRows(SheetTaxes)
	require.NoError(t, err)
	// header plus out-1, out-2, out-3 and out-4
	require.Len(t, taxes, 5)
	sources := map[string]string{}
	for _, row := range taxes[1:] {
		sources[row[1]] = row[5]
	}
	assert.Equal(t, string(SourceHeuristic), sources["PRIREZ"])
	assert.Equal(t, string(SourceStored), sources["HEP"])
}

func TestLedgerExporter_BuildEmpty(t *testing.T) {
	buf, err := NewLedgerExporter(NewDefaultCategorizer()).Build(models.POSDStats{Year: 2025}, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTaxes)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
