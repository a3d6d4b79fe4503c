package appointments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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

// MountRoutes registers appointment routes. All routes assume RequireTenant ran.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/appointments", h.List)
	r.Post("/appointments", h.Create)
	r.Get("/appointments/poll", h.Poll)
	r.Get("/appointments/{id}", h.Show)
	r.Patch("/appointments/{id}", h.Update)
	r.Delete("/appointments/{id}", h.Delete)
}

type listResponse struct {
	Appointments []Appointment     `json:"appointments"`
	Pagination   shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	req := ListAppointmentsRequest{Limit: 20}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be RFC3339")
			return
		}
		req.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be RFC3339")
			return
		}
		req.To = &t
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

	appts, total, err := h.service.List(r.Context(), principal.TenantID, req)
	if err != nil {
		h.logger.Error("list appointments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/req.Limit + 1
	httpx.JSON(w, http.StatusOK, listResponse{Appointments: appts, Pagination: shared.NewPagination(page, req.Limit, total)})
}

// Poll serves incremental sync for calendar clients. The since watermark is
// the server_time of the previous poll.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "since must be RFC3339")
		return
	}
	result, err := h.service.Poll(r.Context(), principal.TenantID, since)
	if err != nil {
		h.logger.Error("poll appointments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	appt, err := h.service.Get(r.Context(), principal.TenantID, id)
	if err != nil {
		h.respondServiceError(w, err, "get appointment")
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	appt, err := h.service.Create(r.Context(), principal.TenantID, req, principal.UserID)
	if err != nil {
		h.respondServiceError(w, err, "create appointment")
		return
	}
	httpx.JSON(w, http.StatusCreated, appt)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	var req UpdateAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	appt, err := h.service.Update(r.Context(), principal.TenantID, id, req)
	if err != nil {
		h.respondServiceError(w, err, "update appointment")
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := tenancy.MustPrincipal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	if err := h.service.Delete(r.Context(), principal.TenantID, id); err != nil {
		h.respondServiceError(w, err, "delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "appointment not found")
	case errors.Is(err, shared.ErrInvalidTransition):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Range", "ends_at must be after starts_at")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
