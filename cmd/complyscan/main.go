package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/complyscan/complyscan/pkg/api"
	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/billing"
	"github.com/complyscan/complyscan/pkg/config"
	"github.com/complyscan/complyscan/pkg/credits"
	"github.com/complyscan/complyscan/pkg/fixes"
	"github.com/complyscan/complyscan/pkg/middleware"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/revenue"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	signingSecret := cfg.Auth.SigningSecret
	if signingSecret == "" {
		// Config validation only allows this in development.
		signingSecret = auth.DevFallbackSecret
	}
	issuer, err := auth.NewIssuer(signingSecret)
	if err != nil {
		logger.WithError(err).Error("token issuer initialization failed")
		os.Exit(1)
	}
	if issuer.UsesDevFallback() {
		logger.Warn("signing tokens with the built-in development secret; set COMPLYSCAN_SIGNING_SECRET before exposing this service")
	}

	// Redis backs rate limits and credits when configured; otherwise
	// both run in-process, which is fine for a single instance.
	var redisClient *redis.Client
	var limiter middleware.Limiter
	var creditStore credits.Store
	var localLimiter *middleware.LocalLimiter
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = middleware.NewRedisLimiter(redisClient, "ratelimit")
		creditStore = credits.NewRedisStore(redisClient, "credits")
		logger.WithField("addr", cfg.Redis.Addr).Info("using redis-backed rate limits and credits")
	} else {
		localLimiter = middleware.NewLocalLimiter()
		limiter = localLimiter
		creditStore = credits.NewMemoryStore()
		logger.Info("using in-process rate limits and credits")
	}

	recorder := revenue.NewRecorder(os.Stdout, metrics)
	defer recorder.Close()

	var billingService api.BillingService
	if cfg.Billing.StripeKey != "" {
		provider, err := billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Billing.StripeKey,
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
			TierPrices:    cfg.Billing.TierPrices(),
		})
		if err != nil {
			logger.WithError(err).Error("stripe initialization failed")
			os.Exit(1)
		}
		billingService = billing.NewService(provider, creditStore, recorder, logger)
	} else {
		logger.Warn("billing is not configured; billing routes will answer 503")
	}

	generator := fixes.NewOpenAIGenerator(fixes.OpenAIConfig{
		APIKey:  cfg.Fixes.OpenAIKey,
		BaseURL: cfg.Fixes.OpenAIBaseURL,
		Model:   cfg.Fixes.OpenAIModel,
	}, metrics, logger)

	server := api.NewServer(api.Options{
		Issuer:           issuer,
		Limiter:          limiter,
		CreditGate:       middleware.NewCreditGateMiddleware(creditStore, metrics, logger),
		Credits:          creditStore,
		Billing:          billingService,
		Fixes:            generator,
		Recorder:         recorder,
		Metrics:          metrics,
		Logger:           logger,
		DevTokenIssuance: cfg.IsDevelopment(),
	})

	health := observability.NewHealthChecker(redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	scheduler := cron.New()
	if localLimiter != nil {
		// Redis windows expire on their own; local windows need sweeping.
		if _, err := scheduler.AddFunc("@every 15m", localLimiter.Cleanup); err != nil {
			logger.WithError(err).Error("scheduling limiter cleanup failed")
			os.Exit(1)
		}
	}
	if _, err := scheduler.AddFunc("@daily", func() {
		recorded, dropped := recorder.Stats()
		logger.WithFields(map[string]interface{}{
			"events_recorded": recorded,
			"events_dropped":  dropped,
		}).Info("daily revenue event summary")
	}); err != nil {
		logger.WithError(err).Error("scheduling revenue summary failed")
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("api server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		if redisClient != nil {
			redisClient.Close()
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server failed")
		os.Exit(1)
	}
	logger.Info("stopped")
}
