package services

import (
	"bytes"
	"fmt"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the PO-SD ledger workbook
const (
	SheetSummary  = "Summary"
	SheetReceipts = "Receipts"
	SheetTaxes    = "Tax payments"
)

// LedgerExporter writes the PO-SD ledger workbook that backs the annual form
type LedgerExporter struct {
	categorizer *Categorizer
}

// NewLedgerExporter creates an exporter using the given categorizer
func NewLedgerExporter(categorizer *Categorizer) *LedgerExporter {
	return &LedgerExporter{categorizer: categorizer}
}

// Build renders the summary, the receipts of the year and the recognised tax payments
// into an XLSX workbook.
func (e *LedgerExporter) Build(stats models.POSDStats, txs []models.Transaction) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	summary := [][]interface{}{
		{"OIB", stats.OIB},
		{"Name", stats.Name},
		{"Year", stats.Year},
		{"Total receipts", stats.TotalReceipts.InexactFloat64()},
		{"Bracket", stats.TaxBracket},
		{"Base tax liability", stats.BaseTaxLiability.InexactFloat64()},
		{"Tax paid", stats.TaxPaid.InexactFloat64()},
		{"Surtax paid", stats.SurtaxPaid.InexactFloat64()},
		{"Difference", stats.Reconciliation.Difference.InexactFloat64()},
		{"Status", string(stats.Reconciliation.Status)},
	}
	if err := writeRows(f, SheetSummary, nil, summary); err != nil {
		return nil, err
	}

	var receipts, taxes [][]interface{}
	for _, tx := range txs {
		switch {
		case tx.Type == models.TxnInflow && InReviewWindow(ReviewInflow, stats.Year, tx.Date):
			excluded, _ := e.categorizer.EffectiveExcluded(tx, nil)
			receipts = append(receipts, []interface{}{
				tx.Date.Format("2006-01-02"),
				tx.Description,
				tx.Amount.InexactFloat64(),
				tx.Category,
				excluded,
				tx.Note(),
				e.categorizer.RefundHint(tx),
			})
		case tx.Type == models.TxnOutflow && InReviewWindow(ReviewOutflow, stats.Year, tx.Date):
			taxType, src := e.categorizer.EffectiveTaxType(tx, nil)
			if taxType == models.TaxTypeNone {
				continue
			}
			taxes = append(taxes, []interface{}{
				tx.Date.Format("2006-01-02"),
				tx.Description,
				tx.RawReference,
				tx.Amount.InexactFloat64(),
				string(taxType),
				string(src),
			})
		}
	}

	if _, err := f.NewSheet(SheetReceipts); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	receiptHeader := []interface{}{"Date", "Description", "Amount", "Category", "Excluded", "Note", "Possible refund"}
	if err := writeRows(f, SheetReceipts, receiptHeader, receipts); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetTaxes); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	taxHeader := []interface{}{"Date", "Description", "Reference", "Amount", "Tax type", "Source"}
	if err := writeRows(f, SheetTaxes, taxHeader, taxes); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	rowIdx := 1
	if header != nil {
		rows = append([][]interface{}{header}, rows...)
	}
	for _, row := range rows {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
		rowIdx++
	}
	return nil
}
