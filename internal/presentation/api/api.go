package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/infrastructure/configs"
	"github.com/korlin/auditorium/internal/infrastructure/ratelimiter"
	healthHandler "github.com/korlin/auditorium/internal/presentation/handler/health"
	iceHandler "github.com/korlin/auditorium/internal/presentation/handler/ice"
	signalingHandler "github.com/korlin/auditorium/internal/presentation/handler/signaling"
)

type Application struct {
	config           configs.Config
	signalingHandler *signalingHandler.Handler
	iceHandler       *iceHandler.Handler
	healthHandler    *healthHandler.Handler
	logger           *zap.SugaredLogger
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	signalingHandler *signalingHandler.Handler,
	iceHandler *iceHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		signalingHandler: signalingHandler,
		iceHandler:       iceHandler,
		healthHandler:    healthHandler,
		logger:           logger,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	// Signaling sockets live outside the timeout group: they stay open
	// for the life of the session.
	r.Get("/ws/{roomId}", app.signalingHandler.ConnectHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/ice-servers", app.iceHandler.GetICEServers)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(r, "auditorium-http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
