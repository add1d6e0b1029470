// Package api serves a read-only view of the monitor over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/gridlight/internal/api/models"
	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/logging"
	"github.com/smazurov/gridlight/internal/version"
)

// DefaultStaleAfter is how long /api/health tolerates missing polls.
const DefaultStaleAfter = 30 * time.Second

// Options configures the status server.
type Options struct {
	EventBus          *events.Bus
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
	StaleAfter        time.Duration
}

// Server is the Huma v2 status API server.
type Server struct {
	api         huma.API
	mux         *http.ServeMux
	httpServer  *http.Server
	eventBus    *events.Bus
	tracker     *statusTracker
	staleAfter  time.Duration
	unsubscribe []func()
	logger      *slog.Logger
}

// NewServer creates the API server and subscribes it to the event bus.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("Gridlight API", version.String())
	config.Info.Description = "Read-only status of the grid signal monitor"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	server := &Server{
		api:        api,
		mux:        mux,
		eventBus:   opts.EventBus,
		tracker:    newStatusTracker(),
		staleAfter: staleAfter,
		logger:     logging.GetLogger("api"),
	}
	if opts.EventBus != nil {
		server.unsubscribe = server.tracker.subscribe(opts.EventBus)
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting Gridlight API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and drops the event bus subscriptions.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil

	// Force immediate shutdown - SSE clients would otherwise hold it open
	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Report whether the monitor is polling",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{Body: s.tracker.health(s.staleAfter)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Last classified grid status, signal value and indicator state",
		Tags:        []string{"status"},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.tracker.snapshot()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	if s.eventBus != nil {
		s.registerSSERoutes()
	}
}
