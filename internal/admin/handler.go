package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/tenancy"
)

// Auditor records operator actions. Satisfied by shared.AuditLogger.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Handler exposes super-operator endpoints. Routes sit behind session
// resolution only: an operator may hold no tenant of their own, so the
// tenant guard never fronts these.
type Handler struct {
	logger        *slog.Logger
	resolver      *tenancy.Resolver
	impersonation *tenancy.Impersonation
	tenants       tenancy.TenantStore
	auditor       Auditor
	validator     *validator.Validate
}

func NewHandler(logger *slog.Logger, resolver *tenancy.Resolver, impersonation *tenancy.Impersonation, tenants tenancy.TenantStore, auditor Auditor) *Handler {
	return &Handler{
		logger:        logger,
		resolver:      resolver,
		impersonation: impersonation,
		tenants:       tenants,
		auditor:       auditor,
		validator:     validator.New(),
	}
}

// MountRoutes registers operator routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/impersonate", h.StartImpersonation)
	r.Post("/impersonate/stop", h.StopImpersonation)
	r.Get("/tenants", h.ListTenants)
}

type impersonateRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
}

func (h *Handler) StartImpersonation(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.resolver.Resolve(w, r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no valid session")
		return
	}
	var req impersonateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.impersonation.Start(r.Context(), identity.UserID, req.TenantID); err != nil {
		h.respondImpersonationError(w, err, identity.UserID)
		return
	}
	h.audit(r.Context(), identity.UserID, "impersonation.start", req.TenantID.String())
	httpx.JSON(w, http.StatusOK, map[string]string{"impersonating": req.TenantID.String()})
}

func (h *Handler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.resolver.Resolve(w, r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no valid session")
		return
	}
	if err := h.impersonation.Stop(r.Context(), identity.UserID); err != nil {
		h.logger.Error("stop impersonation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.audit(r.Context(), identity.UserID, "impersonation.stop", "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.resolver.Resolve(w, r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no valid session")
		return
	}
	if err := h.impersonation.RequireSuperAdmin(r.Context(), identity.UserID); err != nil {
		h.respondImpersonationError(w, err, identity.UserID)
		return
	}
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		h.logger.Error("list tenants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) respondImpersonationError(w http.ResponseWriter, err error, operatorID uuid.UUID) {
	switch {
	case errors.Is(err, tenancy.ErrNotSuperAdmin):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "operator is not allowed to impersonate")
	case errors.Is(err, tenancy.ErrTenantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "tenant not found")
	default:
		h.logger.Error("impersonation request failed",
			slog.String("operator_id", operatorID.String()),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) audit(ctx context.Context, actorID uuid.UUID, action, entityID string) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "tenant",
		EntityID: entityID,
		At:       time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
