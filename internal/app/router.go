package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-crm/meridian/internal/admin"
	"github.com/meridian-crm/meridian/internal/appointments"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/automations"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/deals"
	"github.com/meridian-crm/meridian/internal/invoices"
	"github.com/meridian-crm/meridian/internal/leads"
	"github.com/meridian-crm/meridian/internal/tenancy"
	"github.com/meridian-crm/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Guard  *tenancy.Guard

	AuthHandler         *auth.Handler
	AdminHandler        *admin.Handler
	ContactsHandler     *contacts.Handler
	LeadsHandler        *leads.Handler
	DealsHandler        *deals.Handler
	InvoicesHandler     *invoices.Handler
	AppointmentsHandler *appointments.Handler
	AutomationsHandler  *automations.Handler
	JobsHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults. /auth and
// /healthz are public; /admin requires only a session (operators may hold no
// tenant); everything under /api sits behind the tenant guard.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/admin", params.AdminHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(tenancy.RequireTenant(params.Guard))
		params.ContactsHandler.MountRoutes(r)
		params.LeadsHandler.MountRoutes(r)
		params.DealsHandler.MountRoutes(r)
		params.InvoicesHandler.MountRoutes(r)
		params.AppointmentsHandler.MountRoutes(r)
		params.AutomationsHandler.MountRoutes(r)
	})

	return r
}
