package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"terrafield/internal/core/port"
)

// Handler is the inbound HTTP adapter. It holds the three core services
// and a structured logger, and registers all routes on a chi.Router.
// The presentation layer talks to the core only through these routes;
// nothing here mutates entities directly.
type Handler struct {
	territories port.TerritoryUseCase
	campaigns   port.CampaignUseCase
	reminders   port.ReminderUseCase
	logger      *slog.Logger
	router      chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(territories port.TerritoryUseCase, campaigns port.CampaignUseCase, reminders port.ReminderUseCase, logger *slog.Logger) *Handler {
	h := &Handler{
		territories: territories,
		campaigns:   campaigns,
		reminders:   reminders,
		logger:      logger,
	}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/territories", func(r chi.Router) {
			r.Get("/", h.handleListTerritories)
			r.Post("/", h.handleCreateTerritory)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetTerritory)
				r.Patch("/", h.handleUpdateTerritory)
				r.Delete("/", h.handleDeleteTerritory)
				r.Post("/assign", h.handleAssign)
				r.Post("/return", h.handleReturn)
				r.Post("/cancel", h.handleCancel)
				r.Post("/extend", h.handleExtend)
				r.Post("/reclassify", h.handleReclassify)
				r.Get("/history", h.handleHistory)
				r.Get("/reminders", h.handleListReminders)
				r.Post("/reminders", h.handleCreateReminder)
			})
		})
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.handleListCampaigns)
			r.Post("/", h.handleCreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetCampaign)
				r.Delete("/", h.handleDeleteCampaign)
				r.Put("/remaining", h.handleSetRemaining)
				r.Post("/close", h.handleCloseCampaign)
			})
		})
		r.Route("/cities", func(r chi.Router) {
			r.Get("/", h.handleListCities)
			r.Post("/", h.handleCreateCity)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
