package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/campus-trade/internal/metrics"
	custommiddleware "github.com/mmeshcher/campus-trade/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Get("/listings", h.GetListings)
		r.Get("/listings/{id}", h.GetListing)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)

			r.Get("/user/profile", h.GetProfile)
			r.Put("/user/profile", h.UpdateProfile)
			r.Put("/user/password", h.ChangePassword)

			r.Post("/listings", h.CreateListing)
			r.Get("/listings/mine", h.GetMyListings)
			r.Put("/listings/{id}", h.UpdateListing)
			r.Delete("/listings/{id}", h.DeleteListing)
			r.Post("/listings/{id}/interest", h.MarkInterest)

			r.Get("/orders", h.GetOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Put("/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/notifications", h.GetNotifications)
			r.Get("/notifications/unread-count", h.GetUnreadCount)
			r.Put("/notifications/read-all", h.MarkAllNotificationsRead)
			r.Get("/notifications/{id}", h.GetNotification)
			r.Put("/notifications/{id}/read", h.MarkNotificationRead)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.auth.RequireAdmin)

				r.Get("/users", h.AdminGetUsers)
				r.Put("/users/{id}/status", h.AdminSetUserStatus)
				r.Put("/users/{id}/reset-password", h.AdminResetPassword)
				r.Get("/listings", h.AdminGetListings)
				r.Put("/listings/{id}/remove", h.AdminRemoveListing)
				r.Get("/statistics", h.AdminGetStatistics)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "not found"})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "method not allowed"})
	})

	return r
}
