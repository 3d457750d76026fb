package reports

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/domain/documents/sale"
)

// SalesSource lists the caller's sales for a date range.
type SalesSource interface {
	ListForExport(ctx context.Context, filter sale.ExportFilter) ([]*sale.Sale, error)
}

// Service provides report generation operations.
type Service struct {
	sales SalesSource
}

// NewService creates a new reports service.
func NewService(sales SalesSource) *Service {
	return &Service{sales: sales}
}

// SalesRegister builds the caller's sales register.
func (s *Service) SalesRegister(ctx context.Context, filter SalesRegisterFilter) (*SalesRegister, error) {
	sales, err := s.sales.ListForExport(ctx, sale.ExportFilter{From: filter.From, To: filter.To})
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	report := &SalesRegister{
		From:        filter.From,
		To:          filter.To,
		Rows:        make([]SalesRegisterRow, 0, len(sales)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, sl := range sales {
		row := SalesRegisterRow{
			SaleID:          sl.ID,
			Date:            sl.CreatedAt,
			InvoiceNumber:   sl.InvoiceNumber,
			CustomerName:    sl.CustomerName,
			HSCode:          sl.HSCode,
			TaxableValue:    sl.TaxableValue,
			SalesTax:        sl.SalesTax,
			SpecialExcise:   sl.SpecialExcise,
			FurtherSalesTax: sl.FurtherSalesTax,
			Freight:         sl.Freight,
			GrandTotal:      sl.GrandTotal,
		}
		report.Rows = append(report.Rows, row)
		report.Totals.add(row)
	}
	return report, nil
}
