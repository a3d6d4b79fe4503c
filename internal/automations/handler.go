package automations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/tenancy"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers automation routes. All routes assume RequireTenant ran.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/automations", h.List)
	r.Post("/automations", h.Create)
	r.Get("/automations/{id}", h.Show)
	r.Patch("/automations/{id}", h.Update)
	r.Delete("/automations/{id}", h.Delete)
}

type listResponse struct {
	Rules      []Rule            `json:"rules"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	req := ListRulesRequest{Limit: 20}
	if v := r.URL.Query().Get("event"); v != "" {
		req.Event = &v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		req.Offset = v
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rules, total, err := h.service.List(r.Context(), principal.TenantID, req)
	if err != nil {
		h.logger.Error("list automation rules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/req.Limit + 1
	httpx.JSON(w, http.StatusOK, listResponse{Rules: rules, Pagination: shared.NewPagination(page, req.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid rule id")
		return
	}
	rule, err := h.service.Get(r.Context(), principal.TenantID, id)
	if err != nil {
		h.respondServiceError(w, err, "get automation rule")
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	var req CreateRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule, err := h.service.Create(r.Context(), principal.TenantID, req, principal.UserID)
	if err != nil {
		h.respondServiceError(w, err, "create automation rule")
		return
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid rule id")
		return
	}
	var req UpdateRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule, err := h.service.Update(r.Context(), principal.TenantID, id, req)
	if err != nil {
		h.respondServiceError(w, err, "update automation rule")
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid rule id")
		return
	}
	if err := h.service.Delete(r.Context(), principal.TenantID, id); err != nil {
		h.respondServiceError(w, err, "delete automation rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "automation rule not found")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
