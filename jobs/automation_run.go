package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/appointments"
	"github.com/meridian-crm/meridian/internal/automations"
)

// AutomationRunJob executes one matched automation rule. The engine enqueues
// one task per rule so a failing action retries without re-running its
// siblings.
type AutomationRunJob struct {
	enqueuer automations.Enqueuer
	appts    appointments.Repository
	client   *http.Client
	logger   *slog.Logger
}

// NewAutomationRunJob constructs the job.
func NewAutomationRunJob(enqueuer automations.Enqueuer, appts appointments.Repository, logger *slog.Logger) *AutomationRunJob {
	return &AutomationRunJob{
		enqueuer: enqueuer,
		appts:    appts,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Handle dispatches on the rule's action.
func (j *AutomationRunJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload automations.RunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	switch payload.Action {
	case automations.ActionSendEmail:
		return j.sendEmail(ctx, payload)
	case automations.ActionWebhook:
		return j.callWebhook(ctx, payload)
	case automations.ActionCreateTask:
		return j.createFollowUp(ctx, payload)
	default:
		j.logger.Warn("unknown automation action",
			slog.String("action", payload.Action),
			slog.String("rule_id", payload.RuleID.String()))
		return asynq.SkipRetry
	}
}

func (j *AutomationRunJob) sendEmail(ctx context.Context, payload automations.RunPayload) error {
	to, _ := payload.Params["to"].(string)
	if to == "" {
		j.logger.Warn("send_email rule without recipient", slog.String("rule_id", payload.RuleID.String()))
		return asynq.SkipRetry
	}
	subject, _ := payload.Params["subject"].(string)
	if subject == "" {
		subject = "Meridian: " + payload.Event
	}
	body, err := json.MarshalIndent(payload.Data, "", "  ")
	if err != nil {
		return asynq.SkipRetry
	}
	task, err := NewSendEmailTask(SendEmailPayload{To: to, Subject: subject, Body: string(body)})
	if err != nil {
		return err
	}
	_, err = j.enqueuer.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

func (j *AutomationRunJob) callWebhook(ctx context.Context, payload automations.RunPayload) error {
	url, _ := payload.Params["url"].(string)
	if url == "" {
		j.logger.Warn("webhook rule without url", slog.String("rule_id", payload.RuleID.String()))
		return asynq.SkipRetry
	}
	body, err := json.Marshal(map[string]any{
		"event":     payload.Event,
		"tenant_id": payload.TenantID,
		"data":      payload.Data,
	})
	if err != nil {
		return asynq.SkipRetry
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s responded %d", url, resp.StatusCode)
	}
	return nil
}

// createFollowUp schedules a follow-up appointment one day out.
func (j *AutomationRunJob) createFollowUp(ctx context.Context, payload automations.RunPayload) error {
	title, _ := payload.Params["title"].(string)
	if title == "" {
		title = "Follow up: " + payload.Event
	}
	starts := time.Now().Add(24 * time.Hour)
	_, err := j.appts.Create(ctx, appointments.Appointment{
		TenantID:  payload.TenantID,
		Title:     title,
		Status:    appointments.StatusScheduled,
		StartsAt:  starts,
		EndsAt:    starts.Add(30 * time.Minute),
		CreatedBy: payload.RuleID,
	})
	return err
}
