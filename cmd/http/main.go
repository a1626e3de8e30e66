package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/infrastructure/auth"
	"github.com/korlin/auditorium/internal/infrastructure/configs"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
	"github.com/korlin/auditorium/internal/infrastructure/ratelimiter"
	"github.com/korlin/auditorium/internal/infrastructure/tracing"
	"github.com/korlin/auditorium/internal/infrastructure/ws"
	"github.com/korlin/auditorium/internal/presentation/api"
	"github.com/korlin/auditorium/internal/presentation/handler/health"
	"github.com/korlin/auditorium/internal/presentation/handler/ice"
	"github.com/korlin/auditorium/internal/presentation/handler/signaling"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	authenticator := auth.NewAuthenticator(cfg.Auth)
	registry := ws.NewRegistry(m)
	broadcaster := ws.NewBroadcaster(logger, m)
	router := ws.NewRouter(logger, m, broadcaster)

	signalingHandler := signaling.NewHandler(authenticator, registry, router, cfg.Rooms.PeerOutboxSize, logger, m)
	iceHandler := ice.NewHandler(cfg.ICE.Servers)
	healthHandler := health.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, signalingHandler, iceHandler, healthHandler, logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
