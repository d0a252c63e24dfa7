package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maintexa-ai/maintexa/internal/api/handlers"
	appMiddleware "github.com/maintexa-ai/maintexa/internal/api/middlewares"
	"github.com/maintexa-ai/maintexa/internal/config"
	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/chat"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/core/ingestion"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	log *logger.Logger,
	db core.DbClient,
	store core.ObjectClient,
	pipeline *ingestion.Pipeline,
	chatSvc *chat.Service,
	traverser *graph.Traverser,
	hierarchy *graph.HierarchyResolver,
) *Server {
	ingestHandler := handlers.NewIngestHandler(pipeline, cfg.MaxUploadBytes, log)
	chatHandler := handlers.NewChatHandler(chatSvc, log)
	docHandler := handlers.NewDocumentHandler(db, store, cfg, log)
	assetHandler := handlers.NewAssetHandler(db, hierarchy, traverser, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))

			// Ingestion and chat stream SSE, so no request timeout here;
			// lifetimes are bounded by the client connection.
			protected.Post("/documents/upload", ingestHandler.Upload)
			protected.Post("/chat/query", chatHandler.Query)

			protected.Group(func(timed chi.Router) {
				timed.Use(chimiddleware.Timeout(60 * time.Second))
				timed.Get("/documents", docHandler.List)
				timed.Get("/documents/{id}", docHandler.Get)
				timed.Delete("/documents/{id}", docHandler.Delete)
				timed.Patch("/documents/{id}/types", docHandler.PatchTypes)

				timed.Get("/assets", assetHandler.List)
				timed.Get("/assets/{id}", assetHandler.Get)
				timed.Get("/assets/{id}/dependencies", assetHandler.Dependencies)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
