package delivery_challan

import (
	"context"
	"fmt"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
)

// Service creates and reads delivery challans.
type Service struct {
	repo       Repository
	quotations Quotations
	workflow   *documents.Workflow
}

// NewService creates a delivery challan service.
func NewService(repo Repository, quotations Quotations, workflow *documents.Workflow) *Service {
	return &Service{repo: repo, quotations: quotations, workflow: workflow}
}

// Create records a delivery challan with fresh lines.
func (s *Service) Create(ctx context.Context, in CreateInput) (*DeliveryChallan, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.PO.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, documents.Request{
		OwnerID:  ownerID,
		Kind:     documents.KindDeliveryChallan,
		Customer: in.Customer,
		Lines:    documents.Fresh{Lines: in.Lines},
	}, &createSink{repo: s.repo, po: in.PO})
}

// CreateFromQuotation copies the lines of one of the owner's quotations into
// a new challan and links the quotation to it.
func (s *Service) CreateFromQuotation(ctx context.Context, in FromQuotationInput) (*DeliveryChallan, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.PO.Validate(); err != nil {
		return nil, err
	}

	q, err := s.quotations.GetByID(ctx, ownerID, in.QuotationID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("quotation", in.QuotationID.String())
		}
		return nil, err
	}

	return s.run(ctx, documents.Request{
		OwnerID:  ownerID,
		Kind:     documents.KindDeliveryChallan,
		Customer: in.Customer,
		Lines:    documents.CopiedFrom{Kind: documents.KindQuotation, DocumentID: q.ID},
	}, &createSink{repo: s.repo, po: in.PO})
}

func (s *Service) run(ctx context.Context, req documents.Request, sink *createSink) (*DeliveryChallan, error) {
	d, err := s.workflow.Run(ctx, req, sink)
	if err != nil {
		return nil, err
	}
	dc := sink.challan
	dc.CustomerName = d.Customer.Name
	dc.Lines = d.Lines
	return dc, nil
}

// Get returns the owner's delivery challan with its lines.
func (s *Service) Get(ctx context.Context, challanID id.ID) (*DeliveryChallan, error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	var out *DeliveryChallan
	err = s.workflow.Snapshot(ctx, func(ctx context.Context) error {
		dc, err := s.repo.GetByID(ctx, ownerID, challanID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("delivery_challan", challanID.String())
			}
			return err
		}
		dc.Lines, err = s.workflow.LineRepo().GetLines(ctx, ownerID, documents.KindDeliveryChallan, challanID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		out = dc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a page of the owner's delivery challans.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*DeliveryChallan], error) {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return domain.ListResult[*DeliveryChallan]{}, err
	}
	filter.OwnerID = ownerID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

type createSink struct {
	repo    Repository
	po      PurchaseOrder
	challan *DeliveryChallan
}

func (k *createSink) Persist(ctx context.Context, d *documents.Draft) error {
	dc := &DeliveryChallan{
		CustomerID:    d.Customer.ID,
		PONo:          k.po.Number,
		PODate:        k.po.Date,
		TotalQuantity: d.Totals.TotalQuantity,
	}
	dc.ID = d.ID
	dc.OwnerID = d.OwnerID
	dc.Number = d.Number.Display
	dc.SeqNo = d.Number.Seq
	dc.CreatedAt, dc.UpdatedAt = d.CreatedAt, d.CreatedAt
	if d.Source != nil && d.Source.Kind == documents.KindQuotation {
		qid := d.Source.DocumentID
		dc.QuotationID = &qid
	}

	if err := k.repo.Create(ctx, dc); err != nil {
		return err
	}
	k.challan = dc
	return nil
}

func (k *createSink) AttachPDF(ctx context.Context, d *documents.Draft, url string) error {
	if err := k.repo.AttachPDF(ctx, d.OwnerID, d.ID, url); err != nil {
		return err
	}
	k.challan.AttachPDF(url)
	return nil
}

func (k *createSink) Decorate(_ *documents.Draft, data *documents.TemplateData) {
	data.Title = "Delivery Challan"
	data.AddField("P.O. No", k.po.Number)
	data.AddField("P.O. Date", k.po.Date.Format("01/02/2006"))
}
