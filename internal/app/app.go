package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
	"github.com/HanzKay/KrasandApps-V1/internal/handler"
	"github.com/HanzKay/KrasandApps-V1/internal/seed"
	"github.com/HanzKay/KrasandApps-V1/pkg/health"
	"github.com/HanzKay/KrasandApps-V1/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("strict_transitions", cfg.StrictStatusTransitions),
	)

	s, err := openStores(ctx, lg, cfg.Storage)
	if err != nil {
		return err
	}
	defer s.close()

	// Health check service.
	healthSvc := health.New()
	if s.pinger != nil {
		healthSvc.AddReadiness(health.Check{
			Name:    "postgres",
			Timeout: 5 * time.Second,
			Func:    health.PingCheck(s.pinger),
		})
	}
	healthSvc.AddLiveness(health.Check{
		Name:    "goroutines",
		Timeout: time.Second,
		Func:    health.GoroutineCountCheck(10000),
	})
	healthSvc.AddLiveness(health.Check{
		Name:    "gc_pause",
		Timeout: time.Second,
		Func:    health.GCMaxPauseCheck(time.Second),
	})
	healthSvc.Start(ctx, 10*time.Second)

	// Domain services.
	metrics, err := order.NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}
	loyaltySvc := loyalty.NewService(s.loyalty, s.loyalty, s.users, cfg.StrictStatusTransitions)
	adjuster := inventory.NewAdjuster(s.ingredients, inventory.RetryConfig{
		MaxTries:        cfg.Stock.RetryMaxTries,
		InitialInterval: cfg.Stock.RetryInitialInterval,
		MaxInterval:     inventory.DefaultRetry.MaxInterval,
	})
	orderSvc := order.NewService(
		s.products,
		loyalty.NewResolver(s.loyalty),
		s.orders,
		s.orders,
		adjuster,
		order.WithStrictTransitions(cfg.StrictStatusTransitions),
		order.WithMetrics(metrics),
		order.WithTracerProvider(m.TracerProvider()),
	)

	if s.seed != nil {
		c, err := seed.Default()
		if err != nil {
			return errors.Wrap(err, "load default catalog")
		}
		target := *s.seed
		target.Loyalty = loyaltySvc
		if _, err := seed.Apply(ctx, lg, c, target); err != nil {
			return errors.Wrap(err, "seed memory storage")
		}
	}

	// HTTP handlers.
	h := handler.NewHandler(
		handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL},
		s.products,
		orderSvc,
		loyaltySvc,
		s.ingredients,
	)
	sec := handler.NewSecurityHandler([]byte(cfg.Auth.JWTSecret))

	// Router: health endpoints + API routes on one server.
	router := h.Router(sec)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.Instrument("pos-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}
	healthSvc.SetReady(true)

	return serve(ctx, lg, server, healthSvc, cfg.Graceful)
}

// serve runs srv until ctx is cancelled. Readiness is dropped for
// g.ReadinessDelay before in-flight requests are drained.
func serve(ctx context.Context, lg *zap.Logger, srv *http.Server, hs *health.Health, g GracefulConfig) error {
	defer hs.Stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		lg.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		hs.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Draining before shutdown", zap.Duration("delay", g.ReadinessDelay))
			time.Sleep(g.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.ShutdownTimeout)
		defer cancel()
		lg.Info("Stopping server", zap.Duration("timeout", g.ShutdownTimeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return eg.Wait()
}
