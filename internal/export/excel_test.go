package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartshelf/shelf-api/internal/analysis"
)

func TestWorkbook_HeaderAndRows(t *testing.T) {
	entries := []analysis.LogEntry{
		{
			ID:            2,
			CreatedAt:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
			Status:        analysis.StatusApproved,
			ProductNames:  []string{"Coca-Cola", "Fanta"},
			ExecutionTime: 1.8,
			CostEstimate:  0.0009,
			Detail:        "- Logo visível",
		},
		{
			ID:           1,
			CreatedAt:    time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
			Status:       analysis.StatusError,
			ProductNames: []string{},
			ErrorMessage: "no image uploaded",
		},
	}

	f, err := Workbook(entries)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(sheetName, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "ID", get("A1"))
	assert.Equal(t, "Status", get("C1"))
	assert.Equal(t, "Detalhe", get("H1"))

	assert.Equal(t, "2", get("A2"))
	assert.Equal(t, "approved", get("C2"))
	assert.Equal(t, "Coca-Cola, Fanta", get("D2"))
	assert.Equal(t, "- Logo visível", get("H2"))

	assert.Equal(t, "1", get("A3"))
	assert.Equal(t, "error", get("C3"))
	assert.Equal(t, "no image uploaded", get("G3"))
}

func TestWorkbook_Empty(t *testing.T) {
	f, err := Workbook(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
