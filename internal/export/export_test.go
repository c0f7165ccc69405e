package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/billed-dev/billed/internal/model"
)

var sample = []model.Bill{
	{ID: "b", Date: "2023-09-25", Type: model.CategoryHotel, Name: "Hôtel", Amount: 120, VAT: "24.5", Pct: 20, Status: model.StatusAccepted, FileName: "h.png"},
	{ID: "a", Date: "2023-01-10", Type: model.CategoryTransports, Name: "Taxi, aéroport", Amount: 30, Pct: 10, Status: model.StatusPending},
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sample))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "2023-09-25", records[1][1])
	assert.Equal(t, "Taxi, aéroport", records[2][3])
	assert.Equal(t, "30", records[2][4])
	assert.Equal(t, "pending", records[2][7])
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "b", rows[1][0])
	assert.Equal(t, "120", rows[1][4])
	assert.Equal(t, "24.5", rows[1][5])
	assert.Equal(t, "Taxi, aéroport", rows[2][3])
}
