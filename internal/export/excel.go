// Package export writes the sales table in spreadsheet form.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const (
	SheetName = "sales"
	XLSXType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteExcel writes the table as a single-sheet workbook. Only the columns the
// table carries are emitted, in canonical order.
func WriteExcel(w io.Writer, table *domain.SalesTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("erro ao nomear planilha: %w", err)
	}

	var cols []string
	if table != nil {
		for _, c := range domain.AllColumns {
			if table.Columns.Has(c) {
				cols = append(cols, c)
			}
		}
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("erro ao abrir planilha: %w", err)
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("erro ao gravar cabeçalho: %w", err)
	}

	for i, row := range table.RowsOrEmpty() {
		values := make([]interface{}, len(cols))
		for j, c := range cols {
			values[j] = cellValue(row, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("erro ao gravar linha %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("erro ao finalizar planilha: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("erro ao gravar xlsx: %w", err)
	}
	return nil
}

func cellValue(row domain.SalesRow, col string) interface{} {
	switch col {
	case domain.ColOrderID:
		return row.OrderID
	case domain.ColRegion:
		return row.Region
	case domain.ColProduct:
		return row.Product
	case domain.ColQuantity:
		return row.Quantity
	case domain.ColUnitPrice:
		return row.UnitPrice
	case domain.ColTotal:
		return row.Total
	case domain.ColDate:
		if row.Date.IsZero() {
			return ""
		}
		return row.Date.Format(domain.DateLayout)
	}
	return nil
}
