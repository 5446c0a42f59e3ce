/**
 * @description
 * This file sets up the HTTP router for the fare-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the standard middleware stack plus internal API key authentication on the
 * protected routes.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser-based dashboards.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// FareRoutes creates and returns the router for the fare service.
func FareRoutes(h *FareHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", internalAPIKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Post("/cards", h.CreateCardHandler)
		r.Get("/cards/{cardID}", h.GetCardHandler)
		r.Post("/cards/{cardID}/topup", h.TopUpHandler)
		r.Get("/cards/{cardID}/tickets", h.ListCardTicketsHandler)

		r.Post("/trips", h.TripHandler)

		r.Get("/tickets/{ticketID}", h.GetTicketHandler)
		r.Get("/tickets/{ticketID}/report", h.TicketReportHandler)

		r.Put("/lines/interurban/{line}", h.AddInterurbanLineHandler)
		r.Delete("/lines/interurban/{line}", h.RemoveInterurbanLineHandler)
		r.Get("/lines/interurban/{line}", h.GetInterurbanLineHandler)
	})

	return r
}
