package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/shared"
)

type fakeRepo struct {
	leads map[uuid.UUID]*Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]*Lead)}
}

func (f *fakeRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*Lead, error) {
	l, ok := f.leads[id]
	if !ok || l.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, tenantID uuid.UUID, _ ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, l := range f.leads {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, lead Lead) (uuid.UUID, error) {
	lead.ID = uuid.New()
	now := time.Now()
	lead.CreatedAt, lead.UpdatedAt = now, now
	f.leads[lead.ID] = &lead
	return lead.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	l, ok := f.leads[id]
	if !ok || l.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		l.Name = v.(string)
	}
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status string) error {
	l, ok := f.leads[id]
	if !ok || l.TenantID != tenantID {
		return shared.ErrNotFound
	}
	l.Status = status
	return nil
}

type fakeSink struct {
	contactID  uuid.UUID
	dealID     uuid.UUID
	contactErr error
	dealErr    error
	calls      []string
}

func (f *fakeSink) ContactFromLead(_ context.Context, _ Lead, _ uuid.UUID) (uuid.UUID, error) {
	f.calls = append(f.calls, "contact")
	if f.contactErr != nil {
		return uuid.Nil, f.contactErr
	}
	return f.contactID, nil
}

func (f *fakeSink) DealFromLead(_ context.Context, _ Lead, contactID uuid.UUID, _ string, _ float64, _ uuid.UUID) (uuid.UUID, error) {
	f.calls = append(f.calls, "deal")
	if f.dealErr != nil {
		return uuid.Nil, f.dealErr
	}
	return f.dealID, nil
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type recordingSink struct {
	events []recordedEvent
}

func (s *recordingSink) Fire(_ context.Context, _ uuid.UUID, event string, payload map[string]any) {
	s.events = append(s.events, recordedEvent{name: event, payload: payload})
}

func TestValidateTransition(t *testing.T) {
	allowed := [][2]string{
		{StatusNew, StatusContacted},
		{StatusNew, StatusLost},
		{StatusContacted, StatusQualified},
		{StatusContacted, StatusLost},
		{StatusQualified, StatusConverted},
		{StatusQualified, StatusLost},
	}
	for _, pair := range allowed {
		assert.NoError(t, ValidateTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]string{
		{StatusNew, StatusQualified},
		{StatusNew, StatusConverted},
		{StatusContacted, StatusConverted},
		{StatusConverted, StatusContacted},
		{StatusLost, StatusNew},
		{StatusLost, StatusContacted},
	}
	for _, pair := range denied {
		assert.ErrorIs(t, ValidateTransition(pair[0], pair[1]), shared.ErrInvalidTransition, "%s -> %s", pair[0], pair[1])
	}
}

func TestCreateFiresEvent(t *testing.T) {
	repo := newFakeRepo()
	events := &recordingSink{}
	svc := NewService(repo, &fakeSink{}, events)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada Lovelace", Source: "web"}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StatusNew, lead.Status)

	require.Len(t, events.events, 1)
	assert.Equal(t, "lead.created", events.events[0].name)
	assert.Equal(t, lead.ID.String(), events.events[0].payload["lead_id"])
}

func TestTransitionWalksPipeline(t *testing.T) {
	repo := newFakeRepo()
	events := &recordingSink{}
	svc := NewService(repo, &fakeSink{}, events)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada", Source: "web"}, uuid.New())
	require.NoError(t, err)

	lead, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusContacted)
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, lead.Status)

	lead, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusQualified)
	require.NoError(t, err)
	assert.Equal(t, StatusQualified, lead.Status)

	// lead.created + two status changes
	require.Len(t, events.events, 3)
	assert.Equal(t, "lead.status_changed", events.events[2].name)
	assert.Equal(t, StatusContacted, events.events[2].payload["from"])
	assert.Equal(t, StatusQualified, events.events[2].payload["to"])
}

func TestTransitionRejectsSkippingStages(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeSink{}, nil)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada", Source: "web"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusQualified)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestConvertCreatesContactAndDeal(t *testing.T) {
	repo := newFakeRepo()
	sink := &fakeSink{contactID: uuid.New(), dealID: uuid.New()}
	events := &recordingSink{}
	svc := NewService(repo, sink, events)
	tenantID, actor := uuid.New(), uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada Lovelace", Source: "referral"}, actor)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusContacted)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusQualified)
	require.NoError(t, err)

	converted, contactID, dealID, err := svc.Convert(context.Background(), tenantID, lead.ID,
		ConvertLeadRequest{DealTitle: "Engine deal", DealAmount: 10000}, actor)
	require.NoError(t, err)

	assert.Equal(t, StatusConverted, converted.Status)
	assert.Equal(t, sink.contactID, contactID)
	assert.Equal(t, sink.dealID, dealID)
	assert.Equal(t, []string{"contact", "deal"}, sink.calls)

	last := events.events[len(events.events)-1]
	assert.Equal(t, "lead.converted", last.name)
	assert.Equal(t, contactID.String(), last.payload["contact_id"])
	assert.Equal(t, dealID.String(), last.payload["deal_id"])
}

func TestConvertRequiresQualified(t *testing.T) {
	repo := newFakeRepo()
	sink := &fakeSink{contactID: uuid.New(), dealID: uuid.New()}
	svc := NewService(repo, sink, nil)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada", Source: "web"}, uuid.New())
	require.NoError(t, err)

	_, _, _, err = svc.Convert(context.Background(), tenantID, lead.ID, ConvertLeadRequest{}, uuid.New())
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Empty(t, sink.calls, "no records may be created for an unqualified lead")
}

func TestConvertLeavesLeadQualifiedWhenDealFails(t *testing.T) {
	repo := newFakeRepo()
	sink := &fakeSink{contactID: uuid.New(), dealErr: assert.AnError}
	svc := NewService(repo, sink, nil)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, CreateLeadRequest{Name: "Ada", Source: "web"}, uuid.New())
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusContacted)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), tenantID, lead.ID, StatusQualified)
	require.NoError(t, err)

	_, _, _, err = svc.Convert(context.Background(), tenantID, lead.ID, ConvertLeadRequest{}, uuid.New())
	require.Error(t, err)

	current, err := svc.Get(context.Background(), tenantID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQualified, current.Status, "status must not advance when conversion fails")
}

func TestLeadsAreTenantScoped(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeSink{}, nil)
	tenantA, tenantB := uuid.New(), uuid.New()

	lead, err := svc.Create(context.Background(), tenantA, CreateLeadRequest{Name: "Ada", Source: "web"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), tenantB, lead.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Transition(context.Background(), tenantB, lead.ID, StatusContacted)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
