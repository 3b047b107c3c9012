package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/loyalty-client/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware бэкенда CRM.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(custommiddleware.GzipMiddleware)

	r.Get("/ctlCRMAppAPI", h.Action)
	r.Post("/ctlCRMAppAPI", h.Action)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/members/me", h.GetMember)
		r.Get("/members/me/points", h.GetPoints)
		r.Get("/members/me/transactions", h.GetTransactions)
		r.Post("/members/push-token", h.UpdatePushToken)

		r.Get("/coupons/available", h.GetAvailableCoupons)
		r.Get("/coupons/redeemed", h.GetRedeemedCoupons)
		r.Get("/coupons/{id}", h.GetCoupon)
		r.Post("/coupons/{id}/redeem", h.RedeemCoupon)

		r.Post("/auth/refresh", h.RefreshToken)
	})

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
