// Package documentstest provides in-memory collaborators for the document workflow.
//
// Memory is a tiny transactional store: RunInTransaction snapshots every
// registered participant and restores it when fn fails, so tests can assert
// that a failed creation leaves no observable writes.
package documentstest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/internal/domain/documents"
	"invoicer/pkg/numerator"
)

// Participant is an extra fake store that takes part in transactions.
// Snapshot returns a function restoring the state captured at call time.
type Participant interface {
	Snapshot() (restore func())
}

type txKey struct{}

// Memory implements tx.Manager and the workflow's storage collaborators.
type Memory struct {
	mu sync.Mutex

	items      map[id.ID]item.Item
	customers  map[string]customer.Customer
	custDocs   []CustomerLink
	counters   map[string]int64
	lines      []documents.LineItem
	superseded []Superseded
	audits     []string

	participants []Participant

	// Commits and Rollbacks count finished transactions.
	Commits   int
	Rollbacks int
}

// CustomerLink is a recorded customer ↔ document reference.
type CustomerLink struct {
	CustomerID id.ID
	Kind       string
	DocumentID id.ID
}

// Superseded is a recorded source → target link.
type Superseded struct {
	Source   documents.CopiedFrom
	Kind     documents.Kind
	TargetID id.ID
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		items:     make(map[id.ID]item.Item),
		customers: make(map[string]customer.Customer),
		counters:  make(map[string]int64),
	}
}

// Join registers p for snapshot/restore.
func (m *Memory) Join(p Participant) {
	m.participants = append(m.participants, p)
}

// RunInTransaction implements tx.Manager.
func (m *Memory) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	restore := m.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		restore()
		m.mu.Lock()
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

func (m *Memory) snapshot() func() {
	m.mu.Lock()
	items := make(map[id.ID]item.Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	customers := make(map[string]customer.Customer, len(m.customers))
	for k, v := range m.customers {
		customers[k] = v
	}
	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	custDocs := append([]CustomerLink(nil), m.custDocs...)
	lines := append([]documents.LineItem(nil), m.lines...)
	superseded := append([]Superseded(nil), m.superseded...)
	audits := append([]string(nil), m.audits...)
	m.mu.Unlock()

	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		restores = append(restores, p.Snapshot())
	}

	return func() {
		m.mu.Lock()
		m.items, m.customers, m.counters = items, customers, counters
		m.custDocs, m.lines, m.superseded, m.audits = custDocs, lines, superseded, audits
		m.mu.Unlock()
		for _, r := range restores {
			r()
		}
	}
}

// --- Items ---

// AddItem stores an item for ownerID and returns it.
func (m *Memory) AddItem(ownerID id.ID, name string, price string, qty int64) *item.Item {
	it := item.NewItem(ownerID, name, types.MustMoney(price), qty)
	m.mu.Lock()
	m.items[it.ID] = *it
	m.mu.Unlock()
	return it
}

// Quantity returns the on-hand quantity of itemID.
func (m *Memory) Quantity(itemID id.ID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[itemID].Quantity
}

// CheckSufficient implements documents.Inventory.
func (m *Memory) CheckSufficient(_ context.Context, ownerID, itemID id.ID, qty int64) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	if !it.CanSupply(qty) {
		return nil, apperror.NewInsufficientStock(itemID.String(), qty, it.Quantity)
	}
	return &it, nil
}

// Decrement implements documents.Inventory.
func (m *Memory) Decrement(_ context.Context, ownerID, itemID id.ID, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.OwnerID != ownerID || it.Quantity < qty {
		return apperror.NewInsufficientStock(itemID.String(), qty, -1)
	}
	it.Quantity -= qty
	m.items[itemID] = it
	return nil
}

// Restore adds qty back.
func (m *Memory) Restore(_ context.Context, ownerID, itemID id.ID, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return apperror.NewNotFound("item", itemID.String())
	}
	it.Quantity += qty
	m.items[itemID] = it
	return nil
}

// --- Customers ---

func customerKey(ownerID id.ID, name string) string {
	return ownerID.String() + "|" + name
}

// Upsert implements documents.CustomerRegistry.
func (m *Memory) Upsert(_ context.Context, ownerID id.ID, f customer.Fields) (*customer.Customer, error) {
	c := customer.NewCustomer(ownerID, f)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := customerKey(ownerID, c.Name)
	if existing, ok := m.customers[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		if c.GSTNo == "" {
			c.GSTNo = existing.GSTNo
		}
		if c.NTNNo == "" {
			c.NTNNo = existing.NTNNo
		}
	}
	m.customers[key] = *c
	return c, nil
}

// LinkDocument implements documents.CustomerRegistry.
func (m *Memory) LinkDocument(_ context.Context, _, customerID id.ID, kind string, documentID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.custDocs = append(m.custDocs, CustomerLink{CustomerID: customerID, Kind: kind, DocumentID: documentID})
	return nil
}

// UnlinkDocument drops references to documentID.
func (m *Memory) UnlinkDocument(_ context.Context, _ id.ID, kind string, documentID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.custDocs[:0]
	for _, l := range m.custDocs {
		if l.Kind == kind && l.DocumentID == documentID {
			continue
		}
		kept = append(kept, l)
	}
	m.custDocs = kept
	return nil
}

// Customers returns the stored customers of ownerID sorted by name.
func (m *Memory) Customers(ownerID id.ID) []customer.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []customer.Customer
	for _, c := range m.customers {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CustomerLinks returns every customer ↔ document reference.
func (m *Memory) CustomerLinks() []CustomerLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CustomerLink(nil), m.custDocs...)
}

// --- Counters ---

func counterKey(ownerID id.ID, kind numerator.Kind) string {
	return ownerID.String() + "|" + string(kind)
}

// Provision creates every counter for ownerID at numerator.FirstValue.
func (m *Memory) Provision(_ context.Context, ownerID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range numerator.Kinds {
		if _, ok := m.counters[counterKey(ownerID, k)]; !ok {
			m.counters[counterKey(ownerID, k)] = numerator.FirstValue
		}
	}
	return nil
}

// Next implements documents.CounterIssuer.
func (m *Memory) Next(_ context.Context, ownerID id.ID, kind numerator.Kind) (numerator.Number, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := counterKey(ownerID, kind)
	seq, ok := m.counters[key]
	if !ok {
		return numerator.Number{}, apperror.NewCounterMissing(string(kind))
	}
	m.counters[key] = seq + 1
	return numerator.Number{Seq: seq, Display: numerator.New(nil).Format(kind, seq)}, nil
}

// Counter returns the next value of (ownerID, kind).
func (m *Memory) Counter(ownerID id.ID, kind numerator.Kind) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[counterKey(ownerID, kind)]
}

// --- Lines ---

// SaveLines implements documents.LineRepository.
func (m *Memory) SaveLines(_ context.Context, lines []documents.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, lines...)
	return nil
}

// GetLines implements documents.LineRepository.
func (m *Memory) GetLines(_ context.Context, ownerID id.ID, kind documents.Kind, documentID id.ID) ([]documents.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []documents.LineItem
	for _, l := range m.lines {
		if l.OwnerID == ownerID && l.DocumentKind == kind && l.DocumentID == documentID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

// DeleteLines implements documents.LineRepository.
func (m *Memory) DeleteLines(_ context.Context, ownerID id.ID, kind documents.Kind, documentID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.lines[:0]
	for _, l := range m.lines {
		if l.OwnerID == ownerID && l.DocumentKind == kind && l.DocumentID == documentID {
			continue
		}
		kept = append(kept, l)
	}
	m.lines = kept
	return nil
}

// LineCount returns the number of stored lines.
func (m *Memory) LineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// --- Links and audit ---

// LinkSuperseded implements documents.SourceLinker.
func (m *Memory) LinkSuperseded(_ context.Context, _ id.ID, source documents.CopiedFrom, kind documents.Kind, targetID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.superseded = append(m.superseded, Superseded{Source: source, Kind: kind, TargetID: targetID})
	return nil
}

// SupersededBy returns the targets that superseded the source document.
func (m *Memory) SupersededBy(sourceID id.ID) []Superseded {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Superseded
	for _, s := range m.superseded {
		if s.Source.DocumentID == sourceID {
			out = append(out, s)
		}
	}
	return out
}

// RecordCreate implements documents.Auditor.
func (m *Memory) RecordCreate(_ context.Context, entityType string, entityID id.ID, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, "create:"+entityType+":"+entityID.String())
	return nil
}

// RecordDelete implements documents.Auditor.
func (m *Memory) RecordDelete(_ context.Context, entityType string, entityID id.ID, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, "delete:"+entityType+":"+entityID.String())
	return nil
}

// Audits returns the recorded audit events.
func (m *Memory) Audits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.audits...)
}

// --- Issuers ---

// Issuers returns a fixed business profile for every owner.
type Issuers struct{}

// Issuer implements documents.IssuerDirectory.
func (Issuers) Issuer(_ context.Context, _ id.ID) (*documents.Issuer, error) {
	return &documents.Issuer{
		BusinessName: "Acme Traders",
		Email:        "owner@acme.test",
		Street:       "Mall Road",
		City:         "Lahore",
		Country:      "Pakistan",
	}, nil
}

// --- Renderer ---

// Renderer writes a placeholder PDF into Dir.
type Renderer struct {
	Dir  string
	Err  error
	mu   sync.Mutex
	last []string
	data []any
}

// Render implements documents.Renderer.
func (r *Renderer) Render(_ context.Context, template string, data any) (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	f, err := os.CreateTemp(r.Dir, template+"-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%%PDF-1.4 %s", template); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.last = append(r.last, f.Name())
	r.data = append(r.data, data)
	r.mu.Unlock()
	return f.Name(), nil
}

// Rendered returns the paths of every file rendered so far.
func (r *Renderer) Rendered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.last...)
}

// LastData returns the template data of the latest render.
func (r *Renderer) LastData() *documents.TemplateData {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == 0 {
		return nil
	}
	td, _ := r.data[len(r.data)-1].(*documents.TemplateData)
	return td
}

// --- Object store ---

// ObjectStore keeps uploads in memory. Set UploadErr or DeleteErr to simulate failures.
type ObjectStore struct {
	UploadErr error
	DeleteErr error

	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

// Upload implements documents.ObjectStore.
func (s *ObjectStore) Upload(_ context.Context, localPath, key string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("stat %s: %w", filepath.Base(localPath), err)
	}
	url := "https://files.test/" + key
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string]string)
	}
	// The object is stored before the failure is reported, like a timed-out upload.
	s.objects[url] = key
	if s.UploadErr != nil {
		return url, s.UploadErr
	}
	return url, nil
}

// Delete implements documents.ObjectStore.
func (s *ObjectStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, url)
	return nil
}

// Objects returns the stored URLs.
func (s *ObjectStore) Objects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for url := range s.objects {
		out = append(out, url)
	}
	sort.Strings(out)
	return out
}

// Deleted returns the URLs passed to Delete.
func (s *ObjectStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// HasPrefix reports whether any stored URL has prefix.
func (s *ObjectStore) HasPrefix(prefix string) bool {
	for _, url := range s.Objects() {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// Workflow wires a documents.Workflow over m and the given externals.
func Workflow(m *Memory, renderer *Renderer, store *ObjectStore) *documents.Workflow {
	return documents.NewWorkflow(documents.Deps{
		TxManager: m,
		Inventory: m,
		Customers: m,
		Counters:  m,
		Lines:     m,
		Issuers:   Issuers{},
		Renderer:  renderer,
		Store:     store,
		Linker:    m,
		Auditor:   m,
	})
}
