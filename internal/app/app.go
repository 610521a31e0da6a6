package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/client"
	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/handler"
	"github.com/xenking/shopcart/internal/notify"
	"github.com/xenking/shopcart/internal/storage/memory"
	"github.com/xenking/shopcart/internal/storage/postgres"
	redisstore "github.com/xenking/shopcart/internal/storage/redis"
	"github.com/xenking/shopcart/pkg/health"
	"github.com/xenking/shopcart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Backend),
	)

	healthSvc := health.New()

	store, closeStore, err := newStore(ctx, cfg, lg, healthSvc)
	if err != nil {
		return errors.Wrap(err, "create store")
	}
	defer closeStore()

	catalogClient, err := client.NewCatalog(cfg.CatalogURL)
	if err != nil {
		return errors.Wrap(err, "create catalog client")
	}
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, catalogClient.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	engine, err := cart.NewEngine(ctx, store, catalogClient, notify.NewLog(lg), lg)
	if err != nil {
		return errors.Wrap(err, "create cart engine")
	}
	engine.Subscribe(func(c cart.Cart) {
		lg.Debug("cart updated", zap.Int("entries", len(c)))
	})

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h := handler.New(engine, catalogClient, lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", otelhttp.NewHandler(h.Routes(), "shopcart",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newStore builds the configured snapshot backend and registers its
// readiness check. The returned closer is a no-op for the memory backend.
func newStore(ctx context.Context, cfg *Config, lg *zap.Logger, healthSvc *health.Health) (cart.Store, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		rs, err := redisstore.New(ctx, cfg.Store.RedisURL, cfg.Store.Key, lg)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		healthSvc.AddReadinessCheck("redis", 5*time.Second, rs.Ping)
		return rs, func() { _ = rs.Close() }, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return postgres.NewStore(pool, cfg.Store.Key, lg), pool.Close, nil

	case "memory":
		return memory.New(), func() {}, nil

	default:
		return nil, nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
