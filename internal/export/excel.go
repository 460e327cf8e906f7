package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smartshelf/shelf-api/internal/analysis"
)

const sheetName = "Análises"

var columns = []string{
	"ID", "Data", "Status", "Produtos", "Tempo (s)", "Custo (USD)", "Erro", "Detalhe",
}

// Workbook renders log entries into an xlsx report, one row per entry, in the
// order given (callers pass most-recent-id first).
func Workbook(entries []analysis.LogEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for row, e := range entries {
		values := []any{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			string(e.Status),
			strings.Join(e.ProductNames, ", "),
			e.ExecutionTime,
			e.CostEstimate,
			e.ErrorMessage,
			e.Detail,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write entry %d: %w", e.ID, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 22); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "D", "D", 32); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "G", "H", 48); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	return f, nil
}
