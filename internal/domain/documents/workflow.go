package documents

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/pkg/logger"
	"invoicer/pkg/numerator"
)

// Stage is a step of the creation state machine.
type Stage string

const (
	StageValidating        Stage = "validating"
	StageComputingTotals   Stage = "computing_totals"
	StagePersistingRecords Stage = "persisting_records"
	StageRenderingPDF      Stage = "rendering_pdf"
	StageUploading         Stage = "uploading"
	StageCommitting        Stage = "committing"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// Inventory is the item ledger.
type Inventory interface {
	// CheckSufficient returns the owner's item when qty units are on hand.
	CheckSufficient(ctx context.Context, ownerID, itemID id.ID, qty int64) (*item.Item, error)
	// Decrement consumes qty units or fails with INSUFFICIENT_STOCK.
	Decrement(ctx context.Context, ownerID, itemID id.ID, qty int64) error
}

// CustomerRegistry upserts customers and records the documents issued to them.
type CustomerRegistry interface {
	Upsert(ctx context.Context, ownerID id.ID, f customer.Fields) (*customer.Customer, error)
	LinkDocument(ctx context.Context, ownerID, customerID id.ID, kind string, documentID id.ID) error
}

// CounterIssuer hands out per-owner, per-kind sequence numbers.
type CounterIssuer interface {
	Next(ctx context.Context, ownerID id.ID, kind numerator.Kind) (numerator.Number, error)
}

// LineRepository stores captured lines.
type LineRepository interface {
	SaveLines(ctx context.Context, lines []LineItem) error
	GetLines(ctx context.Context, ownerID id.ID, kind Kind, documentID id.ID) ([]LineItem, error)
	DeleteLines(ctx context.Context, ownerID id.ID, kind Kind, documentID id.ID) error
}

// IssuerDirectory loads the owner's business profile.
type IssuerDirectory interface {
	Issuer(ctx context.Context, ownerID id.ID) (*Issuer, error)
}

// Renderer turns template data into a local PDF file and returns its path.
type Renderer interface {
	Render(ctx context.Context, template string, data any) (string, error)
}

// ObjectStore stores rendered PDFs durably.
// A failed Upload may still return the URL when the object could exist; the
// workflow deletes it during cleanup.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	Delete(ctx context.Context, url string) error
}

// SourceLinker marks a source document as superseded by a new one.
type SourceLinker interface {
	LinkSuperseded(ctx context.Context, ownerID id.ID, source CopiedFrom, kind Kind, targetID id.ID) error
}

// Auditor records document snapshots.
type Auditor interface {
	RecordCreate(ctx context.Context, entityType string, entityID id.ID, snapshot any) error
	RecordDelete(ctx context.Context, entityType string, entityID id.ID, snapshot any) error
}

// Sink is the kind-specific part of creation.
type Sink interface {
	// Persist inserts the kind's records for d. Number, customer and totals are set.
	Persist(ctx context.Context, d *Draft) error
	// AttachPDF stores the uploaded URL on the persisted records.
	AttachPDF(ctx context.Context, d *Draft, url string) error
	// Decorate adds the kind's title and fields to the template data.
	Decorate(d *Draft, data *TemplateData)
}

// Deps are the collaborators of the workflow. Linker and Auditor are optional.
type Deps struct {
	TxManager tx.Manager
	Inventory Inventory
	Customers CustomerRegistry
	Counters  CounterIssuer
	Lines     LineRepository
	Issuers   IssuerDirectory
	Renderer  Renderer
	Store     ObjectStore
	Linker    SourceLinker
	Auditor   Auditor
}

// Workflow runs document creation.
type Workflow struct {
	Deps
	now func() time.Time
}

// NewWorkflow creates a workflow.
func NewWorkflow(deps Deps) *Workflow {
	return &Workflow{Deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// LineRepo exposes the line repository to the kind services.
func (w *Workflow) LineRepo() LineRepository {
	return w.Lines
}

// Snapshot runs a multi-query read in one read-only transaction when the
// manager supports it, so a document and its lines are read consistently.
func (w *Workflow) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := w.TxManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

// Run creates the document described by req. No retries: the first failure
// aborts the transaction and is returned. The local render file is always
// removed; an uploaded PDF is deleted when the transaction does not commit.
func (w *Workflow) Run(ctx context.Context, req Request, sink Sink) (*Draft, error) {
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With("kind", string(req.Kind)))
	st := &stageTracker{}

	st.enter(ctx, StageValidating)
	if err := req.Validate(); err != nil {
		return nil, st.fail(ctx, err)
	}

	d := &Draft{
		ID:        id.New(),
		OwnerID:   req.OwnerID,
		Kind:      req.Kind,
		CreatedAt: w.now(),
	}

	issuer, err := w.Issuers.Issuer(ctx, req.OwnerID)
	if err != nil {
		return nil, st.fail(ctx, err)
	}
	d.Issuer = issuer

	if d.Lines, d.Source, err = w.resolveLines(ctx, req); err != nil {
		return nil, st.fail(ctx, err)
	}

	st.enter(ctx, StageComputingTotals)
	d.Totals = ComputeTotals(d.Lines, req.Charges)

	var localPath, uploadedURL string
	err = w.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		st.enter(ctx, StagePersistingRecords)
		if err := w.persist(ctx, req, d, sink); err != nil {
			return err
		}

		st.enter(ctx, StageRenderingPDF)
		data := newTemplateData(d)
		sink.Decorate(d, data)
		path, err := w.Renderer.Render(ctx, string(d.Kind), data)
		if err != nil {
			return err
		}
		localPath = path

		st.enter(ctx, StageUploading)
		url, err := w.Store.Upload(ctx, localPath, d.ObjectKey())
		uploadedURL = url
		if err != nil {
			return err
		}
		d.PDFURL = url

		if err := sink.AttachPDF(ctx, d, url); err != nil {
			return fmt.Errorf("attach pdf: %w", err)
		}
		if err := w.link(ctx, d); err != nil {
			return err
		}

		st.enter(ctx, StageCommitting)
		return nil
	})

	if localPath != "" {
		if rmErr := os.Remove(localPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn(ctx, "failed to remove rendered file", "path", localPath, "error", rmErr)
		}
	}

	if err != nil {
		if uploadedURL != "" {
			// Cleanup must not be cut short by a cancelled request.
			if delErr := w.Store.Delete(context.WithoutCancel(ctx), uploadedURL); delErr != nil {
				logger.Error(ctx, "failed to delete orphaned pdf", "url", uploadedURL, "error", delErr)
			}
		}
		return nil, st.fail(ctx, err)
	}

	logger.Info(ctx, "document created",
		"stage", string(StageDone),
		"document_id", d.ID,
		"number", d.Number.Display,
		"grand_total", d.Totals.GrandTotal.String())
	return d, nil
}

// resolveLines turns the request's line source into numbered line items.
func (w *Workflow) resolveLines(ctx context.Context, req Request) ([]LineItem, *CopiedFrom, error) {
	switch src := req.Lines.(type) {
	case Fresh:
		items, err := w.checkFresh(ctx, req.OwnerID, src.Lines)
		if err != nil {
			return nil, nil, err
		}
		lines := make([]LineItem, len(src.Lines))
		for i, in := range src.Lines {
			lines[i] = LineItem{
				ItemID:    in.ItemID,
				ItemName:  items[i].Name,
				Quantity:  in.Quantity,
				UnitPrice: in.UnitPrice,
			}
		}
		return lines, nil, nil

	case CopiedFrom:
		copied, err := w.Lines.GetLines(ctx, req.OwnerID, src.Kind, src.DocumentID)
		if err != nil {
			return nil, nil, err
		}
		if len(copied) == 0 {
			return nil, nil, apperror.NewNotFound(string(src.Kind), src.DocumentID.String())
		}
		lines := make([]LineItem, len(copied))
		for i, l := range copied {
			lines[i] = LineItem{
				ItemID:    l.ItemID,
				ItemName:  l.ItemName,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			}
		}
		return lines, &src, nil
	}
	return nil, nil, apperror.NewValidation("at least one line item is required")
}

// checkFresh verifies every fresh line concurrently. The first failure wins.
func (w *Workflow) checkFresh(ctx context.Context, ownerID id.ID, in []LineInput) ([]*item.Item, error) {
	items := make([]*item.Item, len(in))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range in {
		g.Go(func() error {
			it, err := w.Inventory.CheckSufficient(gctx, ownerID, l.ItemID, l.Quantity)
			if err != nil {
				if appErr, ok := apperror.AsAppError(err); ok {
					return appErr.WithDetail("line", i+1)
				}
				return err
			}
			items[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (w *Workflow) persist(ctx context.Context, req Request, d *Draft, sink Sink) error {
	cust, err := w.Customers.Upsert(ctx, req.OwnerID, req.Customer)
	if err != nil {
		return err
	}
	d.Customer = cust

	if req.ConsumesStock {
		for _, l := range d.Lines {
			if err := w.Inventory.Decrement(ctx, req.OwnerID, l.ItemID, l.Quantity); err != nil {
				return err
			}
		}
	}

	num, err := w.Counters.Next(ctx, req.OwnerID, d.Kind)
	if err != nil {
		return err
	}
	d.Number = num

	if err := sink.Persist(ctx, d); err != nil {
		return fmt.Errorf("persist %s: %w", d.Kind, err)
	}

	for i := range d.Lines {
		d.Lines[i].ID = id.New()
		d.Lines[i].OwnerID = d.OwnerID
		d.Lines[i].DocumentKind = d.Kind
		d.Lines[i].DocumentID = d.ID
		d.Lines[i].LineNo = i + 1
	}
	if err := w.Lines.SaveLines(ctx, d.Lines); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	return nil
}

func (w *Workflow) link(ctx context.Context, d *Draft) error {
	if err := w.Customers.LinkDocument(ctx, d.OwnerID, d.Customer.ID, string(d.Kind), d.LinkTarget()); err != nil {
		return err
	}
	if d.Source != nil && w.Linker != nil {
		if err := w.Linker.LinkSuperseded(ctx, d.OwnerID, *d.Source, d.Kind, d.LinkTarget()); err != nil {
			return fmt.Errorf("link source %s: %w", d.Source.Kind, err)
		}
	}
	if w.Auditor != nil {
		if err := w.Auditor.RecordCreate(ctx, string(d.Kind), d.ID, d); err != nil {
			return fmt.Errorf("audit %s: %w", d.Kind, err)
		}
	}
	return nil
}

type stageTracker struct {
	current Stage
}

func (t *stageTracker) enter(ctx context.Context, s Stage) {
	t.current = s
	logger.Debug(ctx, "document workflow", "stage", string(s))
}

func (t *stageTracker) fail(ctx context.Context, err error) error {
	logger.Warn(ctx, "document workflow failed",
		"stage", string(StageFailed),
		"failed_at", string(t.current),
		"error", err)
	t.current = StageFailed
	return err
}
