package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/calculate"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/get"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/store"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/config"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/middleware/auth"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/service/conditions"
)

func routes(cfg config.Config, log *slog.Logger, service *conditions.ConditionsService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/applications/{applicationID}/conditions", func(r chi.Router) {
		r.Use(auth.BasicAuth(cfg.Users))

		r.Post("/calculate", calculate.CalculateConditions(log, service))
		r.Put("/", store.StoreConditions(log, service))
		r.Get("/", get.GetConditions(log, service))
	})

	return router
}
