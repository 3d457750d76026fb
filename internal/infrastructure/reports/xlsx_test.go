package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicer/internal/core/types"
	domain "invoicer/internal/domain/reports"
)

func TestWriteSalesRegister(t *testing.T) {
	r := &domain.SalesRegister{
		Rows: []domain.SalesRegisterRow{{
			Date:          time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			InvoiceNumber: "INV-00001",
			CustomerName:  "Zed",
			TaxableValue:  types.MustMoney("300"),
			SalesTax:      types.MustMoney("30"),
			Freight:       types.MustMoney("5"),
			GrandTotal:    types.MustMoney("335"),
		}},
		Totals: domain.SalesRegisterTotals{Count: 1, GrandTotal: types.MustMoney("335")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSalesRegister(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sales"}, f.GetSheetList())

	header, err := f.GetCellValue("Sales", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice No.", header)

	number, err := f.GetCellValue("Sales", "B2")
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", number)

	date, err := f.GetCellValue("Sales", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", date)

	total, err := f.GetCellValue("Sales", "J3")
	require.NoError(t, err)
	assert.Equal(t, "335", total)

	label, err := f.GetCellValue("Sales", "B3")
	require.NoError(t, err)
	assert.Equal(t, "1 sales", label)
}
