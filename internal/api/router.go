/**
 * @description
 * This file sets up the HTTP router for the console service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, CORS, timeouts, and session enforcement.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for chi.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/giftmart/console-service/internal/session"
)

// ConsoleRoutes creates and returns the router for the admin console.
func ConsoleRoutes(h *ConsoleHandlers, sessions *session.Store) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Session endpoints are reachable without authentication.
	r.Post("/auth/login", h.LoginHandler)
	r.Post("/auth/logout", h.LogoutHandler)
	r.Post("/auth/refresh", h.RefreshSessionHandler)
	r.Get("/auth/session", h.SessionHandler)

	// Group routes that require a live admin session.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(sessions))

		r.Get("/overview", h.OverviewHandler)
		r.Post("/reload", h.ReloadHandler)
		r.Get("/banner", h.BannerHandler)
		r.Delete("/banner", h.ClearBannerHandler)

		r.Get("/stores", h.ListStoresHandler)
		r.Get("/stores/{id}/cards", h.StoreCardsHandler)
		r.Delete("/stores/{id}", h.DeleteStoreHandler)
		r.Get("/cards", h.ListCardsHandler)
		r.Delete("/cards/{id}", h.DeleteCardHandler)
		r.Get("/users", h.ListUsersHandler)
		r.Get("/users/{id}", h.GetUserHandler)

		r.Post("/forms/{kind}", h.SubmitFormHandler)

		r.Get("/upgrades/level{level}", h.ListUpgradesHandler)
		r.Post("/upgrades/level{level}/{id}/{decision}", h.ResolveUpgradeHandler)

		r.Get("/withdrawals", h.ListWithdrawalsHandler)
		r.Get("/withdrawals/pending-count", h.PendingWithdrawalCountHandler)
		r.Get("/withdrawals/{id}", h.WithdrawalDetailHandler)
		r.Post("/withdrawals/{id}/process", h.ProcessWithdrawalHandler)
	})

	return r
}
