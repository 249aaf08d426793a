package api

import (
	"log/slog"
	"net/http"
	"time"

	"contract-engine/internal/api/handler"
	mw "contract-engine/internal/api/middleware"
	"contract-engine/internal/config"
	"contract-engine/internal/domain/contract"

	_ "contract-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SetupRouter wires the HTTP surface. redisClient may be nil, in which case rate
// limiting stays in-process.
func SetupRouter(contractService contract.ContractService, db handler.Pinger, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, redisClient, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupSwaggerEndpoint(router, logger)

	healthHandler := handler.NewHealthHandler(db, logger)
	router.Get("/health", healthHandler.Health)

	setupContractRoutes(router, contractService, cfg, logger)

	return router
}

func setupMiddleware(router *chi.Mux, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupContractRoutes(router *chi.Mux, svc contract.ContractService, cfg *config.Config, logger *slog.Logger) {
	contractHandler := handler.NewContractHandler(svc, logger)
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)

	router.Route("/api", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)

		r.Route("/contratos", func(r chi.Router) {
			r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
			r.Get("/", contractHandler.ListContracts)
			r.Post("/", contractHandler.CreateContract)
			r.Get("/resumo", contractHandler.Summarize)
			r.Route("/{contratoID}", func(r chi.Router) {
				r.Get("/", contractHandler.GetContract)
				r.Put("/", contractHandler.UpdateContract)
				r.Patch("/", contractHandler.UpdateContract)
				r.Delete("/", contractHandler.DeleteContract)
			})
		})
	})
}
