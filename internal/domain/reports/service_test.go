package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/documents/sale"
	"invoicer/internal/domain/reports"
)

type stubSales struct {
	got   sale.ExportFilter
	sales []*sale.Sale
	err   error
}

func (s *stubSales) ListForExport(_ context.Context, f sale.ExportFilter) ([]*sale.Sale, error) {
	s.got = f
	return s.sales, s.err
}

func money(s string) types.Money {
	return types.MustMoney(s)
}

func TestSalesRegister_SumsColumns(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSales{sales: []*sale.Sale{
		{
			BaseEntity:    entity.BaseEntity{ID: id.New(), CreatedAt: day},
			InvoiceNumber: "INV-00001", CustomerName: "Zed",
			TaxableValue: money("300"), SalesTax: money("30"), Freight: money("5"), GrandTotal: money("335"),
		},
		{
			BaseEntity:    entity.BaseEntity{ID: id.New(), CreatedAt: day.AddDate(0, 0, 1)},
			InvoiceNumber: "INV-00002", CustomerName: "Yak",
			TaxableValue: money("100"), SalesTax: money("17"), FurtherSalesTax: money("3"), GrandTotal: money("120"),
		},
	}}
	svc := reports.NewService(src)

	to := day.AddDate(0, 1, 0)
	report, err := svc.SalesRegister(context.Background(), reports.SalesRegisterFilter{From: &day, To: &to})
	require.NoError(t, err)

	assert.Equal(t, &day, src.got.From)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "INV-00002", report.Rows[1].InvoiceNumber)
	assert.Equal(t, 2, report.Totals.Count)
	assert.True(t, report.Totals.TaxableValue.Equal(money("400")))
	assert.True(t, report.Totals.SalesTax.Equal(money("47")))
	assert.True(t, report.Totals.FurtherSalesTax.Equal(money("3")))
	assert.True(t, report.Totals.GrandTotal.Equal(money("455")))
}

func TestSalesRegister_Empty(t *testing.T) {
	report, err := reports.NewService(&stubSales{}).SalesRegister(context.Background(), reports.SalesRegisterFilter{})
	require.NoError(t, err)
	assert.NotNil(t, report.Rows)
	assert.Zero(t, report.Totals.Count)
	assert.True(t, report.Totals.GrandTotal.IsZero())
}

func TestSalesRegister_PropagatesErrors(t *testing.T) {
	_, err := reports.NewService(&stubSales{err: apperror.NewUnauthorized("authentication required")}).
		SalesRegister(context.Background(), reports.SalesRegisterFilter{})
	assert.True(t, apperror.IsUnauthorized(err))
}
