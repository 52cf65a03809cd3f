package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/orthoscan/internal/api/middlewares"
	"github.com/markdave123-py/orthoscan/internal/config"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	"github.com/markdave123-py/orthoscan/internal/services"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Users    *services.UserService
	Projects *services.ProjectService
	Ingestor ingestion_engine.Ingestor
	Engine   exemplars.Options
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *zap.Logger, deps Deps) *Server {
	maxUpload := int64(cfg.MaxUploadMB) << 20
	secret := []byte(cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(deps.Users, secret, log.Named("auth"))
	projectHandler := handlers.NewProjectHandler(deps.Projects, deps.Ingestor, maxUpload, log.Named("projects"))
	analysisHandler := handlers.NewAnalysisHandler(deps.Projects, deps.Engine, cfg.AuxRatio, maxUpload, log.Named("analysis"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !wildcard(cfg.CORSOrigins),
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(secret))
			protected.Post("/projects", projectHandler.UploadProject)
			protected.Get("/projects", projectHandler.ListProjects)
			protected.Get("/projects/{id}", projectHandler.GetProject)
			protected.Delete("/projects/{id}", projectHandler.DeleteProject)
			protected.Get("/projects/{id}/analysis", analysisHandler.GetAnalysis)
			protected.Get("/projects/{id}/similar", analysisHandler.SimilarProjects)
			protected.Post("/analyze", analysisHandler.Analyze)
		})
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, log: log}
}

func wildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
