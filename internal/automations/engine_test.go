package automations

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/shared"
)

type fakeRules struct {
	rules   []Rule
	listErr error
}

func (f *fakeRules) Get(_ context.Context, tenantID, id uuid.UUID) (*Rule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id && f.rules[i].TenantID == tenantID {
			return &f.rules[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRules) List(_ context.Context, tenantID uuid.UUID, _ ListRulesRequest) ([]Rule, int, error) {
	var out []Rule
	for _, r := range f.rules {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRules) ListEnabledByEvent(_ context.Context, tenantID uuid.UUID, event string) ([]Rule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Rule
	for _, r := range f.rules {
		if r.TenantID == tenantID && r.TriggerEvent == event && r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) Create(_ context.Context, rule Rule) (uuid.UUID, error) {
	rule.ID = uuid.New()
	f.rules = append(f.rules, rule)
	return rule.ID, nil
}

func (f *fakeRules) Update(_ context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	for i := range f.rules {
		if f.rules[i].ID == id && f.rules[i].TenantID == tenantID {
			if v, ok := updates["enabled"]; ok {
				f.rules[i].Enabled = v.(bool)
			}
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f *fakeRules) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	for i := range f.rules {
		if f.rules[i].ID == id && f.rules[i].TenantID == tenantID {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeEnqueuer struct {
	tasks      []*asynq.Task
	enqueueErr error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.enqueueErr != nil {
		return nil, f.enqueueErr
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rule(tenantID uuid.UUID, event, action string, enabled bool) Rule {
	return Rule{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "rule for " + event,
		TriggerEvent: event,
		Action:       action,
		Params:       map[string]any{"to": "owner@example.com"},
		Enabled:      enabled,
	}
}

func TestFireEnqueuesMatchingRules(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRules{rules: []Rule{
		rule(tenantID, EventLeadCreated, ActionSendEmail, true),
		rule(tenantID, EventLeadCreated, ActionWebhook, true),
		rule(tenantID, EventDealCreated, ActionSendEmail, true),
	}}
	q := &fakeEnqueuer{}
	engine := NewEngine(repo, q, discardLogger())

	engine.Fire(context.Background(), tenantID, EventLeadCreated, map[string]any{"lead_id": "abc"})

	require.Len(t, q.tasks, 2)
	assert.Equal(t, TaskTypeRun, q.tasks[0].Type())

	var payload RunPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &payload))
	assert.Equal(t, tenantID, payload.TenantID)
	assert.Equal(t, EventLeadCreated, payload.Event)
	assert.Equal(t, "abc", payload.Data["lead_id"])
	assert.Equal(t, "owner@example.com", payload.Params["to"])
}

func TestFireSkipsDisabledRules(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRules{rules: []Rule{
		rule(tenantID, EventInvoiceSent, ActionSendEmail, false),
	}}
	q := &fakeEnqueuer{}
	engine := NewEngine(repo, q, discardLogger())

	engine.Fire(context.Background(), tenantID, EventInvoiceSent, nil)
	assert.Empty(t, q.tasks)
}

func TestFireIsTenantScoped(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	repo := &fakeRules{rules: []Rule{
		rule(tenantA, EventDealStageChanged, ActionSendEmail, true),
	}}
	q := &fakeEnqueuer{}
	engine := NewEngine(repo, q, discardLogger())

	engine.Fire(context.Background(), tenantB, EventDealStageChanged, nil)
	assert.Empty(t, q.tasks)
}

func TestFireSwallowsFailures(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRules{listErr: assert.AnError}
	engine := NewEngine(repo, &fakeEnqueuer{}, discardLogger())

	// Must not panic or propagate; emitting services treat events as
	// best-effort.
	engine.Fire(context.Background(), tenantID, EventLeadConverted, nil)

	repo = &fakeRules{rules: []Rule{rule(tenantID, EventLeadConverted, ActionWebhook, true)}}
	q := &fakeEnqueuer{enqueueErr: assert.AnError}
	engine = NewEngine(repo, q, discardLogger())
	engine.Fire(context.Background(), tenantID, EventLeadConverted, nil)
	assert.Empty(t, q.tasks)
}

func TestFireIgnoresUnknownEvents(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRules{rules: []Rule{rule(tenantID, EventLeadCreated, ActionSendEmail, true)}}
	q := &fakeEnqueuer{}
	engine := NewEngine(repo, q, discardLogger())

	engine.Fire(context.Background(), tenantID, "lead.exploded", nil)
	assert.Empty(t, q.tasks)
}
