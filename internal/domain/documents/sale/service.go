package sale

import (
	"context"
	"fmt"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
	"invoicer/pkg/amountwords"
	"invoicer/pkg/logger"
)

// entityName is the audit entity type of a sale.
const entityName = "sale"

// Stock returns consumed quantity to the ledger.
type Stock interface {
	Restore(ctx context.Context, ownerID, itemID id.ID, qty int64) error
}

// CustomerLinks removes customer back-references.
type CustomerLinks interface {
	UnlinkDocument(ctx context.Context, ownerID id.ID, kind string, documentID id.ID) error
}

// Service creates, reads and removes sales.
type Service struct {
	repo      Repository
	workflow  *documents.Workflow
	stock     Stock
	customers CustomerLinks
}

// NewService creates a sale service.
func NewService(repo Repository, workflow *documents.Workflow, stock Stock, customers CustomerLinks) *Service {
	return &Service{
		repo:      repo,
		workflow:  workflow,
		stock:     stock,
		customers: customers,
	}
}

// Create records a sale, consumes its stock and issues the invoice PDF.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sink := &createSink{repo: s.repo, in: in}
	d, err := s.workflow.Run(ctx, documents.Request{
		OwnerID:       ownerID,
		Kind:          documents.KindInvoice,
		Customer:      in.Customer,
		Lines:         in.lineSource(),
		Charges:       in.charges(),
		ConsumesStock: true,
	}, sink)
	if err != nil {
		return nil, err
	}

	out := sink.sale
	out.InvoiceNumber = d.Number.Display
	out.PDFURL = d.PDFURL
	out.CustomerName = d.Customer.Name
	out.Lines = d.Lines
	return out, nil
}

// Get returns the owner's sale with its lines.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	var out *Sale
	err = s.workflow.Snapshot(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByID(ctx, ownerID, saleID)
		if err != nil {
			return notFound(err, saleID)
		}
		sl.Lines, err = s.workflow.LineRepo().GetLines(ctx, ownerID, documents.KindInvoice, saleID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		out = sl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a page of the owner's sales.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return domain.ListResult[*Sale]{}, err
	}
	filter.OwnerID = ownerID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// ListForExport returns every sale in the filter's date range, oldest first.
func (s *Service) ListForExport(ctx context.Context, filter ExportFilter) ([]*Sale, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	filter.OwnerID = ownerID
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperror.NewValidation("invalid date range").WithDetail("field", "to")
	}
	return s.repo.ListForExport(ctx, filter)
}

// Remove deletes a sale with its invoice, lines and customer link and puts
// the sold quantity back on hand. The PDF is deleted after commit.
func (s *Service) Remove(ctx context.Context, saleID id.ID) error {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return err
	}

	var removed *Sale
	err = s.workflow.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByID(ctx, ownerID, saleID)
		if err != nil {
			return notFound(err, saleID)
		}
		lines, err := s.workflow.Lines.GetLines(ctx, ownerID, documents.KindInvoice, saleID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		for _, l := range lines {
			if err := s.stock.Restore(ctx, ownerID, l.ItemID, l.Quantity); err != nil {
				return fmt.Errorf("restore item %s: %w", l.ItemID, err)
			}
		}
		if err := s.workflow.Lines.DeleteLines(ctx, ownerID, documents.KindInvoice, saleID); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
		if err := s.customers.UnlinkDocument(ctx, ownerID, string(documents.KindInvoice), sl.InvoiceID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, ownerID, saleID); err != nil {
			return err
		}
		if s.workflow.Auditor != nil {
			sl.Lines = lines
			if err := s.workflow.Auditor.RecordDelete(ctx, entityName, saleID, sl); err != nil {
				return fmt.Errorf("audit: %w", err)
			}
		}
		removed = sl
		return nil
	})
	if err != nil {
		return err
	}

	if removed.PDFURL != "" {
		if err := s.workflow.Store.Delete(context.WithoutCancel(ctx), removed.PDFURL); err != nil {
			logger.Warn(ctx, "failed to delete invoice pdf", "sale_id", saleID, "url", removed.PDFURL, "error", err)
		}
	}
	logger.Info(ctx, "sale removed", "sale_id", saleID, "invoice", removed.InvoiceNumber)
	return nil
}

// GetInvoice returns the owner's invoice.
func (s *Service) GetInvoice(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("invoice", invoiceID.String())
		}
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns a page of the owner's invoices.
func (s *Service) ListInvoices(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return domain.ListResult[*Invoice]{}, err
	}
	filter.OwnerID = ownerID
	filter.Normalize()
	return s.repo.ListInvoices(ctx, filter)
}

func notFound(err error, saleID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, saleID.String())
	}
	return err
}

// createSink persists the sale and invoice rows for the workflow.
type createSink struct {
	repo    Repository
	in      CreateInput
	sale    *Sale
	invoice *Invoice
}

func (k *createSink) Persist(ctx context.Context, d *documents.Draft) error {
	t := d.Totals.Stored()
	sales, excise, further := t.Tax(TaxSales), t.Tax(TaxSpecialExcise), t.Tax(TaxFurtherSales)

	inv := &Invoice{SaleID: d.ID}
	inv.ID = id.New()
	inv.OwnerID = d.OwnerID
	inv.Number = d.Number.Display
	inv.SeqNo = d.Number.Seq
	inv.CreatedAt, inv.UpdatedAt = d.CreatedAt, d.CreatedAt

	sl := &Sale{
		InvoiceID:           inv.ID,
		CustomerID:          d.Customer.ID,
		HSCode:              k.in.HSCode,
		AttnTo:              k.in.AttnTo,
		Subtotal:            t.Subtotal,
		Discount:            t.Discount,
		TaxableValue:        t.Taxable,
		SalesTaxRate:        sales.Rate,
		SalesTax:            sales.Amount,
		SpecialExciseRate:   excise.Rate,
		SpecialExcise:       excise.Amount,
		FurtherSalesTaxRate: further.Rate,
		FurtherSalesTax:     further.Amount,
		Freight:             t.Freight,
		GrandTotal:          t.GrandTotal,
		AmountInWords:       amountwords.Money(t.GrandTotal),
	}
	sl.ID = d.ID
	sl.OwnerID = d.OwnerID
	sl.CreatedAt, sl.UpdatedAt = d.CreatedAt, d.CreatedAt

	if src := d.Source; src != nil {
		kind := string(src.Kind)
		srcID := src.DocumentID
		sl.SourceKind, sl.SourceID = &kind, &srcID
		switch src.Kind {
		case documents.KindQuotation:
			inv.QuotationID = &srcID
		case documents.KindDeliveryChallan:
			inv.DeliveryChallanID = &srcID
		}
	}

	if err := k.repo.CreateSale(ctx, sl); err != nil {
		return err
	}
	if err := k.repo.CreateInvoice(ctx, inv); err != nil {
		return err
	}
	d.LinkID = inv.ID
	k.sale, k.invoice = sl, inv
	return nil
}

func (k *createSink) AttachPDF(ctx context.Context, d *documents.Draft, url string) error {
	if err := k.repo.AttachPDF(ctx, d.OwnerID, k.invoice.ID, url); err != nil {
		return err
	}
	k.invoice.AttachPDF(url)
	return nil
}

func (k *createSink) Decorate(d *documents.Draft, data *documents.TemplateData) {
	data.Title = "Sales Tax Invoice"
	data.AddField("HS Code", k.in.HSCode)
	data.AddField("Attn", k.in.AttnTo)
	if d.Customer != nil {
		data.AddField("Customer GST", d.Customer.GSTNo)
		data.AddField("Customer NTN", d.Customer.NTNNo)
	}
}
