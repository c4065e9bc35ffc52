package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
)

const (
	sheetSummary = "Distribución"
	sheetBatches = "Lotes"
)

// DistributionXLSX exporta la distribución de un material a un libro de Excel:
// una hoja con el total por cuenta y otra con el detalle de lotes.
type DistributionXLSX struct{}

// NewDistributionXLSX construye el exportador.
func NewDistributionXLSX() *DistributionXLSX { return &DistributionXLSX{} }

// Generate devuelve los bytes del .xlsx.
func (g *DistributionXLSX) Generate(d *dto.DistributionResponse) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("xlsx: distribución vacía")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: hoja resumen: %w", err)
	}
	if _, err := f.NewSheet(sheetBatches); err != nil {
		return nil, fmt.Errorf("xlsx: hoja lotes: %w", err)
	}

	header := []interface{}{"account_id", "account_name", "category", "total_quantity", "unit", "batch_count"}
	if err := f.SetSheetRow(sheetSummary, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: encabezado resumen: %w", err)
	}
	batchHeader := []interface{}{"account_id", "account_name", "batch_id", "lot_number", "quantity", "unit", "expiration_date"}
	if err := f.SetSheetRow(sheetBatches, "A1", &batchHeader); err != nil {
		return nil, fmt.Errorf("xlsx: encabezado lotes: %w", err)
	}

	row, batchRow := 2, 2
	for _, a := range d.Accounts {
		values := []interface{}{a.AccountID, a.AccountName, a.Category, a.TotalQuantity.String(), d.Unit, a.BatchCount}
		if err := setRow(f, sheetSummary, row, values); err != nil {
			return nil, err
		}
		row++
		for _, b := range a.Batches {
			expiry := ""
			if b.ExpirationDate != nil {
				expiry = *b.ExpirationDate
			}
			values := []interface{}{a.AccountID, a.AccountName, b.BatchID, b.LotNumber, b.Quantity.String(), d.Unit, expiry}
			if err := setRow(f, sheetBatches, batchRow, values); err != nil {
				return nil, err
			}
			batchRow++
		}
	}
	total := []interface{}{"", "TOTAL", "", d.TotalQuantity.String(), d.Unit}
	if err := setRow(f, sheetSummary, row, total); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: celda: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: fila %d de %s: %w", row, sheet, err)
	}
	return nil
}
