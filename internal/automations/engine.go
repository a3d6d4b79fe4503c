package automations

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskTypeRun is the queue task type for executing one matched rule.
const TaskTypeRun = "automation:run"

// RunPayload is what the worker receives for each matched rule.
type RunPayload struct {
	RuleID   uuid.UUID      `json:"rule_id"`
	TenantID uuid.UUID      `json:"tenant_id"`
	Event    string         `json:"event"`
	Action   string         `json:"action"`
	Params   map[string]any `json:"params"`
	Data     map[string]any `json:"data"`
}

// NewRunTask builds the queue task for a matched rule.
func NewRunTask(payload RunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRun, data), nil
}

// Enqueuer is the slice of asynq.Client the engine needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Engine matches fired events against enabled rules and queues one run
// task per match. It is the event sink the lead, deal and invoice
// services publish into.
type Engine struct {
	repo     Repository
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewEngine(repo Repository, enqueuer Enqueuer, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, enqueuer: enqueuer, logger: logger}
}

// Fire is best-effort: a matching or queueing failure is logged and never
// propagated to the operation that emitted the event.
func (e *Engine) Fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any) {
	if !KnownEvent(event) {
		e.logger.Warn("unknown automation event", slog.String("event", event))
		return
	}
	rules, err := e.repo.ListEnabledByEvent(ctx, tenantID, event)
	if err != nil {
		e.logger.Error("match automation rules",
			slog.String("event", event),
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		return
	}
	for _, rule := range rules {
		task, err := NewRunTask(RunPayload{
			RuleID:   rule.ID,
			TenantID: tenantID,
			Event:    event,
			Action:   rule.Action,
			Params:   rule.Params,
			Data:     payload,
		})
		if err != nil {
			e.logger.Error("build automation task", slog.Any("error", err))
			continue
		}
		if _, err := e.enqueuer.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
			e.logger.Error("enqueue automation task",
				slog.String("rule_id", rule.ID.String()),
				slog.Any("error", err))
		}
	}
}
