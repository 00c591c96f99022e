// Package http provides the HTTP delivery layer for the shortlink service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, and formatting responses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/shortlink/docs"
	"github.com/vadimbarashkov/shortlink/internal/slug"
)

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the shortlink API.
// Short URLs are composed from baseURL, or from the request origin when it is empty.
func NewRouter(logger *httplog.Logger, useCase linkUseCase, baseURL string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	validate := validator.New()
	if err := slug.RegisterValidations(validate); err != nil {
		panic(err)
	}
	h := newLinkHandler(useCase, validate, baseURL)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.With(middleware.AllowContentType("application/json")).Post("/shorten", h.shortenURL)
		r.Get("/links/{slug}", h.getLinkStats)
		r.Get("/history", h.getHistory)
	})

	r.Get("/{slug}", h.redirect)

	return r
}
