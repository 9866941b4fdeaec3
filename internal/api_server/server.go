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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/picalc/pi-calculator/internal/api/server"
	"github.com/picalc/pi-calculator/internal/config"
	handlers "github.com/picalc/pi-calculator/internal/handlers/v1alpha1"
	"github.com/picalc/pi-calculator/internal/service"
	"github.com/picalc/pi-calculator/pkg/metrics"
	"github.com/picalc/pi-calculator/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	jobSrv   *service.JobService
	listener net.Listener
	registry *prometheus.Registry
}

type ServerOption func(*Server)

// WithRegistry collects the HTTP metrics on reg instead of the default
// registry and serves reg on /metrics.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// New returns a new instance of a pi-calculator server.
func New(
	cfg *config.Config,
	jobSrv *service.JobService,
	listener net.Listener,
	opts ...ServerOption,
) *Server {
	s := &Server{
		cfg:      cfg,
		jobSrv:   jobSrv,
		listener: listener,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router serving the API.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	var metricsHandler http.Handler
	if s.registry != nil {
		metricMiddleware.MustRegister(s.registry)
		metricsHandler = metrics.NewHandler(s.registry)
	} else {
		metricMiddleware.MustRegister(prometheus.DefaultRegisterer)
		metricsHandler = metrics.NewHandler(prometheus.DefaultGatherer)
	}

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Service.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Handle("/metrics", metricsHandler)

	h := handlers.NewServiceHandler(s.jobSrv, s.cfg.Service.BaseUrl)
	return server.HandlerFromMux(h, router)
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Handler()}

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
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
