package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/drawdown", h.HandleGetDrawdown)
		r.Get("/performance-chart", h.HandleGetPerformanceChart)
		r.Get("/key-metrics", h.HandleGetKeyMetrics)
		r.Get("/monthly-pnl", h.HandleGetMonthlyPnL)
		r.Get("/allocation", h.HandleGetAllocation)
		r.Get("/rolling", h.HandleGetRolling)
	})
}
