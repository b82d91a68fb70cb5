package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/artifacts"
	"github.com/bbnlabs/reliability-planner/internal/config"
	handlers "github.com/bbnlabs/reliability-planner/internal/handlers/v1"
	"github.com/bbnlabs/reliability-planner/internal/runner"
	"github.com/bbnlabs/reliability-planner/internal/service"
	"github.com/bbnlabs/reliability-planner/internal/store"
	"github.com/bbnlabs/reliability-planner/pkg/metrics"
	"github.com/bbnlabs/reliability-planner/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg       *config.Config
	store     store.Store
	runner    runner.TaskRunner
	artifacts artifacts.Store
	listener  net.Listener
}

// New returns a new instance of the reliability-planner API server.
func New(
	cfg *config.Config,
	store store.Store,
	taskRunner runner.TaskRunner,
	artifactStore artifacts.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		runner:    taskRunner,
		artifacts: artifactStore,
		listener:  listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
		middleware.APIKey(s.cfg.Service.APIKey),
	)

	jobService := service.NewJobService(s.cfg, s.store, s.runner)
	analysisService := service.NewAnalysisService(s.cfg, s.store, s.runner)
	resultService := service.NewResultService(jobService, s.artifacts)

	h := handlers.NewServiceHandler(jobService, analysisService, resultService)
	h.Routes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
