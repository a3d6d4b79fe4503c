package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/appointments"
	"github.com/meridian-crm/meridian/internal/automations"
	"github.com/meridian-crm/meridian/internal/shared"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type fakeAppointments struct {
	mu      sync.Mutex
	created []appointments.Appointment
}

func (f *fakeAppointments) Get(context.Context, uuid.UUID, uuid.UUID) (*appointments.Appointment, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeAppointments) List(context.Context, uuid.UUID, appointments.ListAppointmentsRequest) ([]appointments.Appointment, int, error) {
	return nil, 0, nil
}

func (f *fakeAppointments) UpdatedSince(context.Context, uuid.UUID, time.Time) ([]appointments.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointments) Create(_ context.Context, appt appointments.Appointment) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, appt)
	return uuid.New(), nil
}

func (f *fakeAppointments) Update(context.Context, uuid.UUID, uuid.UUID, map[string]any) error {
	return nil
}

func (f *fakeAppointments) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func runTask(t *testing.T, payload automations.RunPayload) *asynq.Task {
	t.Helper()
	task, err := automations.NewRunTask(payload)
	require.NoError(t, err)
	return task
}

func newRunJob(enq *fakeEnqueuer, appts *fakeAppointments) *AutomationRunJob {
	return NewAutomationRunJob(enq, appts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAutomationRunEnqueuesEmail(t *testing.T) {
	enq := &fakeEnqueuer{}
	job := newRunJob(enq, &fakeAppointments{})

	task := runTask(t, automations.RunPayload{
		RuleID:   uuid.New(),
		TenantID: uuid.New(),
		Event:    automations.EventInvoiceSent,
		Action:   automations.ActionSendEmail,
		Params:   map[string]any{"to": "billing@acme.test", "subject": "Invoice out"},
		Data:     map[string]any{"number": "INV-2026-00001"},
	})

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeSendEmail, enq.tasks[0].Type())

	var mail SendEmailPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &mail))
	assert.Equal(t, "billing@acme.test", mail.To)
	assert.Equal(t, "Invoice out", mail.Subject)
	assert.Contains(t, mail.Body, "INV-2026-00001")
}

func TestAutomationRunEmailWithoutRecipientIsDropped(t *testing.T) {
	enq := &fakeEnqueuer{}
	job := newRunJob(enq, &fakeAppointments{})

	task := runTask(t, automations.RunPayload{
		RuleID: uuid.New(),
		Event:  automations.EventLeadCreated,
		Action: automations.ActionSendEmail,
	})

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, enq.tasks)
}

func TestAutomationRunPostsWebhook(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	job := newRunJob(&fakeEnqueuer{}, &fakeAppointments{})
	tenantID := uuid.New()

	task := runTask(t, automations.RunPayload{
		RuleID:   uuid.New(),
		TenantID: tenantID,
		Event:    automations.EventDealStageChanged,
		Action:   automations.ActionWebhook,
		Params:   map[string]any{"url": srv.URL},
		Data:     map[string]any{"stage": "won"},
	})

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, automations.EventDealStageChanged, got["event"])
	assert.Equal(t, tenantID.String(), got["tenant_id"])
}

func TestAutomationRunWebhookFailureRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	job := newRunJob(&fakeEnqueuer{}, &fakeAppointments{})

	task := runTask(t, automations.RunPayload{
		RuleID: uuid.New(),
		Event:  automations.EventDealCreated,
		Action: automations.ActionWebhook,
		Params: map[string]any{"url": srv.URL},
	})

	err := job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestAutomationRunCreatesFollowUp(t *testing.T) {
	appts := &fakeAppointments{}
	job := newRunJob(&fakeEnqueuer{}, appts)
	tenantID := uuid.New()

	task := runTask(t, automations.RunPayload{
		RuleID:   uuid.New(),
		TenantID: tenantID,
		Event:    automations.EventLeadConverted,
		Action:   automations.ActionCreateTask,
		Params:   map[string]any{"title": "Kickoff call"},
	})

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, appts.created, 1)
	created := appts.created[0]
	assert.Equal(t, tenantID, created.TenantID)
	assert.Equal(t, "Kickoff call", created.Title)
	assert.Equal(t, appointments.StatusScheduled, created.Status)
	assert.True(t, created.EndsAt.After(created.StartsAt))
}

func TestAutomationRunUnknownActionIsDropped(t *testing.T) {
	job := newRunJob(&fakeEnqueuer{}, &fakeAppointments{})

	task := runTask(t, automations.RunPayload{
		RuleID: uuid.New(),
		Event:  automations.EventLeadCreated,
		Action: "ring_bell",
	})

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestSendEmailJobDropsMalformedPayload(t *testing.T) {
	job := NewSendEmailJob(&recordingMailer{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []SendEmailPayload
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}

func TestSendEmailJobDeliversPayload(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewSendEmailJob(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := NewSendEmailTask(SendEmailPayload{To: "ops@acme.test", Subject: "hi", Body: "there"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@acme.test", mailer.sent[0].To)
}
