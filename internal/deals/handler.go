package deals

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

// MountRoutes registers deal routes. All routes assume RequireTenant ran.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deals", h.List)
	r.Post("/deals", h.Create)
	r.Get("/deals/{id}", h.Show)
	r.Patch("/deals/{id}", h.Update)
	r.Post("/deals/{id}/stage", h.ChangeStage)
}

type listResponse struct {
	Deals      []Deal            `json:"deals"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	req := ListDealsRequest{Limit: 20}
	if v := r.URL.Query().Get("stage"); v != "" {
		req.Stage = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
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

	deals, total, err := h.service.List(r.Context(), principal.TenantID, req)
	if err != nil {
		h.logger.Error("list deals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/req.Limit + 1
	httpx.JSON(w, http.StatusOK, listResponse{Deals: deals, Pagination: shared.NewPagination(page, req.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deal id")
		return
	}
	deal, err := h.service.Get(r.Context(), principal.TenantID, id)
	if err != nil {
		h.respondServiceError(w, err, "get deal")
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	var req CreateDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	deal, err := h.service.Create(r.Context(), principal.TenantID, req, principal.UserID)
	if err != nil {
		h.respondServiceError(w, err, "create deal")
		return
	}
	httpx.JSON(w, http.StatusCreated, deal)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deal id")
		return
	}
	var req UpdateDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	deal, err := h.service.Update(r.Context(), principal.TenantID, id, req)
	if err != nil {
		h.respondServiceError(w, err, "update deal")
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deal id")
		return
	}
	var req ChangeStageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	deal, err := h.service.ChangeStage(r.Context(), principal.TenantID, id, req.Stage)
	if err != nil {
		h.respondServiceError(w, err, "change deal stage")
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "deal not found")
	case errors.Is(err, shared.ErrInvalidTransition):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Transition", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
