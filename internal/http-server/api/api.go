package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"ticketdesk/internal/config"
	"ticketdesk/internal/http-server/handlers/admin"
	errorhandlers "ticketdesk/internal/http-server/handlers/errors"
	"ticketdesk/internal/http-server/handlers/health"
	"ticketdesk/internal/http-server/handlers/registration"
	"ticketdesk/internal/metrics"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ticketdesk/internal/http-server/middleware/authenticate"
	"ticketdesk/internal/http-server/middleware/logger"
	"ticketdesk/internal/http-server/middleware/ratelimit"
	"ticketdesk/internal/http-server/middleware/timeout"
	"ticketdesk/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	registration.Core
	admin.Core
}

// New builds the router; limiter and m may be nil.
func New(conf *config.Config, log *slog.Logger, handler Handler, m *metrics.Metrics, limiter ratelimit.Limiter) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(conf.Listen.RequestTimeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)

	router.Get("/healthz", health.Live())
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/api", func(rootApi chi.Router) {
		rootApi.Use(render.SetContentType(render.ContentTypeJSON))
		rootApi.Use(logger.New(log))

		rootApi.NotFound(errorhandlers.NotFound(log))
		rootApi.MethodNotAllowed(errorhandlers.NotAllowed(log))

		rootApi.Get("/tickets-left", registration.TicketsLeft(log, handler))
		rootApi.Group(func(public chi.Router) {
			if limiter != nil {
				public.Use(ratelimit.New(log, limiter))
			}
			public.Post("/register", registration.Register(log, handler))
		})
		rootApi.Group(func(operator chi.Router) {
			operator.Use(authenticate.New(log, handler))
			operator.Post("/reset-test", admin.Reset(log, handler))
		})
	})

	if conf.Listen.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(conf.Listen.StaticDir)))
		router.MethodNotAllowed(errorhandlers.NotAllowed(log))
	} else {
		router.NotFound(errorhandlers.NotFound(log))
		router.MethodNotAllowed(errorhandlers.NotAllowed(log))
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	writeTimeout := conf.Listen.RequestTimeout + 5*time.Second
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks until the server stops; a graceful Shutdown is not an error.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("stopping api server")
	return s.httpServer.Shutdown(ctx)
}
