/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication and CORS.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LedgerRoutes creates and returns a new router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, jwksURL, audience, issuer string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// The ledger is consumed by a browser single-page app, so CORS is part of
	// the public surface rather than an afterthought.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require a verified Google identity token.
	r.Group(func(r chi.Router) {
		r.Use(GoogleAuthMiddleware(jwksURL, audience, issuer))

		// Session lifecycle
		r.Post("/session/login", h.LoginHandler)
		r.Post("/session/logout", h.LogoutHandler)
		r.Get("/session", h.SessionHandler)

		// Profile completion
		r.Post("/profile", h.CompleteProfileHandler)

		// Recipient lookup and transfers
		r.Get("/accounts/{id}", h.LookupAccountHandler)
		r.Post("/transfers", h.TransferHandler)
		r.Get("/transfers", h.HistoryHandler)
	})

	return r
}
