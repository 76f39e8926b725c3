package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagratio/internal/extractor"
	"tagratio/internal/handlers/api"
	"tagratio/internal/jobs"
	"tagratio/internal/metrics"
	"tagratio/internal/middleware"
	"tagratio/internal/scorer"
	"tagratio/internal/store"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Store     store.Store
	Recorder  store.RunRecorder // optional
	Pinger    api.Pinger        // optional
	Scorer    *scorer.Scorer
	Extractor extractor.Extractor
	Flags     []string
	Reindexer *jobs.Reindexer
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Verifier  middleware.Verifier // nil disables auth on operator routes
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(d Deps) {
	authMiddleware := middleware.NewAuthMiddleware(d.Verifier, s.log)

	scoreHandler := api.NewScoreHandler(d.Scorer, d.Extractor, d.Flags, d.Metrics, s.log)
	tagHandler := api.NewTagHandler(d.Store, s.Cfg.ScoreTopN, s.Cfg.ListLimit)
	indexHandler := api.NewIndexHandler(d.Reindexer, d.Recorder, s.log)
	healthHandler := api.NewHealthHandler(d.Store, d.Pinger)

	s.App.Get("/healthz", healthHandler.Health)
	if d.Gatherer != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	g := s.App.Group("/api")
	g.Post("/score", scoreHandler.Score)
	g.Post("/score/file", scoreHandler.ScoreFile)
	g.Post("/metadata", scoreHandler.Metadata)

	g.Get("/tags/top", tagHandler.Top)
	g.Get("/tags", tagHandler.List)
	g.Get("/tags/:tag", tagHandler.Get)

	// Operator routes
	g.Post("/index", authMiddleware.RequireToken, indexHandler.Trigger)
	g.Get("/index/runs", authMiddleware.RequireToken, indexHandler.Runs)
}
