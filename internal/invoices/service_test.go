package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/meridian-crm/meridian/internal/shared"
)

type fakeRepo struct {
	invoices  map[uuid.UUID]*Invoice
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (f *fakeRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, tenantID uuid.UUID, status *string, limit, offset int) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, inv *Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status string, issuedAt *time.Time) error {
	inv, ok := f.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return shared.ErrNotFound
	}
	inv.Status = status
	if issuedAt != nil {
		inv.IssuedAt = issuedAt
	}
	return nil
}

func (f *fakeRepo) NextNumber(_ context.Context, tenantID uuid.UUID) (int, error) {
	n := 1
	for _, inv := range f.invoices {
		if inv.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type fakeIdem struct {
	seen    map[string]bool
	deleted []string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{seen: make(map[string]bool)}
}

func (f *fakeIdem) CheckAndInsert(_ context.Context, key, module string) error {
	if f.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	f.seen[key] = true
	return nil
}

func (f *fakeIdem) Delete(_ context.Context, key string) error {
	delete(f.seen, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type recordedEvent struct {
	tenantID uuid.UUID
	name     string
	payload  map[string]any
}

type recordingSink struct {
	events []recordedEvent
}

func (s *recordingSink) Fire(_ context.Context, tenantID uuid.UUID, event string, payload map[string]any) {
	s.events = append(s.events, recordedEvent{tenantID: tenantID, name: event, payload: payload})
}

func validCreate() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		ContactID: uuid.New(),
		Currency:  "usd",
		TaxRate:   0.2,
		Lines: []LineInput{
			{Description: "Consulting", Quantity: 10, UnitPrice: 150},
			{Description: "Licence", Quantity: 2, UnitPrice: 49.99},
		},
	}
}

func TestCreateComputesTotalsServerSide(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	inv, err := svc.Create(context.Background(), tenantID, actorID, validCreate(), "")
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.InDelta(t, 1599.98, inv.Subtotal, 0.001)
	assert.InDelta(t, 320.00, inv.TaxAmount, 0.001)
	assert.InDelta(t, 1919.98, inv.Total, 0.001)
	assert.Len(t, inv.Lines, 2)
	assert.InDelta(t, 1500, inv.Lines[0].LineTotal, 0.001)
	assert.Equal(t, tenantID, inv.TenantID)
	assert.Equal(t, actorID, inv.CreatedBy)
	assert.Contains(t, inv.Number, "INV-")
	assert.NotEmpty(t, inv.TotalDisplay)
}

func TestCreateDuplicateIdempotencyKeyRejected(t *testing.T) {
	repo := newFakeRepo()
	idem := newFakeIdem()
	svc := NewService(repo, idem, nil)
	tenantID := uuid.New()

	_, err := svc.Create(context.Background(), tenantID, uuid.New(), validCreate(), "req-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tenantID, uuid.New(), validCreate(), "req-1")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Len(t, repo.invoices, 1)
}

func TestCreateFailureReleasesIdempotencyKey(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = assert.AnError
	idem := newFakeIdem()
	svc := NewService(repo, idem, nil)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), validCreate(), "req-9")
	require.Error(t, err)
	assert.Contains(t, idem.deleted, "req-9")
	assert.False(t, idem.seen["req-9"])
}

func TestStatusLifecycle(t *testing.T) {
	repo := newFakeRepo()
	sink := &recordingSink{}
	svc := NewService(repo, nil, sink)
	tenantID := uuid.New()

	inv, err := svc.Create(context.Background(), tenantID, uuid.New(), validCreate(), "")
	require.NoError(t, err)

	sent, err := svc.ChangeStatus(context.Background(), tenantID, inv.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.IssuedAt)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "invoice.sent", sink.events[0].name)
	assert.Equal(t, inv.Number, sink.events[0].payload["number"])

	paid, err := svc.ChangeStatus(context.Background(), tenantID, inv.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	// Paid is terminal.
	_, err = svc.ChangeStatus(context.Background(), tenantID, inv.ID, StatusVoid)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestDraftCannotBePaidDirectly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	tenantID := uuid.New()

	inv, err := svc.Create(context.Background(), tenantID, uuid.New(), validCreate(), "")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), tenantID, inv.ID, StatusPaid)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestInvoiceScopedToTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	tenantA, tenantB := uuid.New(), uuid.New()

	inv, err := svc.Create(context.Background(), tenantA, uuid.New(), validCreate(), "")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), tenantB, inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	list, total, err := svc.List(context.Background(), tenantB, ListInvoicesRequest{Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestFormatAmountFallsBackToUSD(t *testing.T) {
	got := FormatAmount("???", 10, language.English)
	assert.Contains(t, got, "10")
}
