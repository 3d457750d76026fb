package quotation

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
)

// Service creates and reads quotations.
type Service struct {
	repo     Repository
	workflow *documents.Workflow
	now      func() time.Time
}

// NewService creates a quotation service.
func NewService(repo Repository, workflow *documents.Workflow) *Service {
	return &Service{repo: repo, workflow: workflow, now: time.Now}
}

// Create records a quotation and renders its PDF.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Quotation, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}

	sink := &createSink{repo: s.repo, in: in}
	d, err := s.workflow.Run(ctx, documents.Request{
		OwnerID:  ownerID,
		Kind:     documents.KindQuotation,
		Customer: in.Customer,
		Lines:    documents.Fresh{Lines: in.Lines},
		Charges:  in.charges(),
	}, sink)
	if err != nil {
		return nil, err
	}

	q := sink.quotation
	q.CustomerName = d.Customer.Name
	q.Lines = d.Lines
	return q, nil
}

// Get returns the owner's quotation with its lines.
func (s *Service) Get(ctx context.Context, quotationID id.ID) (*Quotation, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	var out *Quotation
	err = s.workflow.Snapshot(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByID(ctx, ownerID, quotationID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("quotation", quotationID.String())
			}
			return err
		}
		q.Lines, err = s.workflow.LineRepo().GetLines(ctx, ownerID, documents.KindQuotation, quotationID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a page of the owner's quotations.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quotation], error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return domain.ListResult[*Quotation]{}, err
	}
	filter.OwnerID = ownerID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

type createSink struct {
	repo      Repository
	in        CreateInput
	quotation *Quotation
}

func (k *createSink) Persist(ctx context.Context, d *documents.Draft) error {
	t := d.Totals.Stored()
	tax := t.Tax(TaxSales)
	q := &Quotation{
		CustomerID:   d.Customer.ID,
		ValidUntil:   k.in.ValidUntil,
		Subtotal:     t.Subtotal,
		Discount:     t.Discount,
		TaxableValue: t.Taxable,
		SalesTaxRate: tax.Rate,
		SalesTax:     tax.Amount,
		GrandTotal:   t.GrandTotal,
	}
	q.ID = d.ID
	q.OwnerID = d.OwnerID
	q.Number = d.Number.Display
	q.SeqNo = d.Number.Seq
	q.CreatedAt, q.UpdatedAt = d.CreatedAt, d.CreatedAt

	if err := q.Validate(ctx); err != nil {
		return err
	}
	if err := k.repo.Create(ctx, q); err != nil {
		return err
	}
	k.quotation = q
	return nil
}

func (k *createSink) AttachPDF(ctx context.Context, d *documents.Draft, url string) error {
	if err := k.repo.AttachPDF(ctx, d.OwnerID, d.ID, url); err != nil {
		return err
	}
	k.quotation.AttachPDF(url)
	return nil
}

func (k *createSink) Decorate(_ *documents.Draft, data *documents.TemplateData) {
	data.Title = "Quotation"
	if k.in.ValidUntil != nil {
		data.AddField("Valid Until", k.in.ValidUntil.Format("01/02/2006"))
	}
}
