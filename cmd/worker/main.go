package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/babajiachar/storefront-api/internal/config"
	"github.com/babajiachar/storefront-api/internal/notify"
	"github.com/babajiachar/storefront-api/internal/obs"
	"github.com/babajiachar/storefront-api/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	whatsapp := &notify.WhatsAppSender{
		HTTP: &resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   cfg.NotifyTimeout,
			},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("whatsapp").WithLogger(logger),
			MaxAttempts: 3,
			BaseBackoff: 500 * time.Millisecond,
			Jitter:      0.2,
		},
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		BaseURL:       cfg.WhatsAppGraphBaseURL,
		Log:           logger,
	}
	mailer := &notify.SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
		Log:  logger,
	}
	sms := &notify.SMSSender{APIKey: cfg.SMSAPIKey, SenderID: cfg.SMSSenderID, Log: logger}
	worker := &notify.Worker{WhatsApp: whatsapp, Email: mailer, SMS: sms, Log: logger}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				notify.QueueNotifications: 10,
			},
			RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
				return resilience.Backoff(5*time.Second, n, 0.2)
			},
		},
	)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	// metrics endpoint for the worker process
	metricsSrv := &http.Server{Addr: ":9091", Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down worker")
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	logger.Info().Msg("notification worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
