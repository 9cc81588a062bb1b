package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/babajiachar/storefront-api/internal/auth"
	"github.com/babajiachar/storefront-api/internal/catalog"
	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/config"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/events"
	"github.com/babajiachar/storefront-api/internal/health"
	"github.com/babajiachar/storefront-api/internal/notify"
	"github.com/babajiachar/storefront-api/internal/obs"
	"github.com/babajiachar/storefront-api/internal/order"
	"github.com/babajiachar/storefront-api/internal/payment"
	"github.com/babajiachar/storefront-api/internal/ratelimit"
	"github.com/babajiachar/storefront-api/internal/resilience"
	"github.com/babajiachar/storefront-api/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TraceSampleRate,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	store := db.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer taskClient.Close()

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	validate := validator.New()

	bus := &events.Bus{Store: store}
	outbox := &notify.Outbox{
		Client:   taskClient,
		MaxRetry: cfg.NotifyMaxAttempts,
		Log:      logger,
	}

	gateway := payment.NewGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.Currency)

	orderSvc := &order.Service{
		Store:  store,
		Bus:    bus,
		Outbox: outbox,
		Log:    logger,
	}
	if gateway != nil {
		orderSvc.Gateway = gateway
	}
	orderHandlers := &order.Handlers{
		Svc:           orderSvc,
		Validate:      validate,
		RazorpayKeyID: cfg.RazorpayKeyID,
		Log:           logger,
	}
	orderAdmin := &order.AdminHandlers{Svc: orderSvc, Log: logger}

	paymentHandlers := &payment.Handlers{
		Gateway:   gateway,
		KeySecret: cfg.RazorpayKeySecret,
		Store:     store,
		Settler:   orderSvc,
		Log:       logger,
	}
	webhookHandler := &payment.WebhookHandler{
		Secret:  cfg.RazorpayWebhookSecret,
		Settler: orderSvc,
		Store:   store,
		Replay:  &payment.ReplayGuard{R: rdb, TTL: cfg.WebhookReplayTTL},
		Log:     logger,
	}

	catalogSvc := &catalog.Service{Store: store, Cache: rdb, TTL: cfg.CatalogCacheTTL, Log: logger}
	catalogHandlers := &catalog.Handlers{Svc: catalogSvc, Log: logger}
	catalogAdmin := &catalog.AdminHandlers{Svc: catalogSvc, Validate: validate, Log: logger}

	authSvc, err := auth.NewService(auth.Config{
		Store:          store,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandlers := &auth.Handlers{Svc: authSvc, Log: logger}
	authMW := auth.Middleware{Service: authSvc}

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
	notifyHandlers := &notify.Handlers{WhatsApp: whatsapp, Email: mailer, SMS: sms, Log: logger}

	healthHandler := health.Handler{Checker: probes{pool: pool, rdb: rdb}}
	idem := common.Idem{R: rdb, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: rdb},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandlers.ListProducts)
		v.Get("/products/{id}", catalogHandlers.GetProduct)
		v.Get("/stores", catalogHandlers.ListStores)

		v.Route("/orders", func(o chi.Router) {
			o.With(idem.Middleware).Post("/", orderHandlers.Create)
			o.Get("/", orderHandlers.ListByPhone)
			o.Get("/{id}", orderHandlers.Get)
		})

		v.Route("/payments", func(p chi.Router) {
			p.Post("/order", paymentHandlers.CreateOrder)
			p.Post("/verify", paymentHandlers.Verify)
			p.Post("/confirm", paymentHandlers.Confirm)
		})
		v.Post("/webhooks/razorpay", webhookHandler.Handle)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/login", authHandlers.Login)
			a.Group(func(protected chi.Router) {
				protected.Use(authMW.RequireAuth)
				protected.Get("/me", authHandlers.Me)
			})
		})

		v.Route("/admin", func(a chi.Router) {
			a.Use(authMW.RequireAdmin)
			a.Get("/orders", orderAdmin.List)
			a.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
			a.Delete("/orders/{id}", orderAdmin.Delete)
			a.Put("/products/{id}", catalogAdmin.UpsertProduct)
			a.Delete("/products/{id}", catalogAdmin.DeleteProduct)
			a.Put("/stores/{id}", catalogAdmin.UpsertStore)
			a.Delete("/stores/{id}", catalogAdmin.DeleteStore)
			a.Post("/notifications/whatsapp", notifyHandlers.SendWhatsApp)
			a.Post("/notifications/email", notifyHandlers.SendEmail)
			a.Post("/notifications/sms", notifyHandlers.SendSMS)
		})
	})

	// Legacy paths kept for clients that predate the versioned API.
	r.Post("/api/create-order", paymentHandlers.CreateOrder)
	r.Post("/api/verify-payment", paymentHandlers.Verify)
	r.Post("/api/razorpay/webhook", webhookHandler.Handle)
	r.Post("/api/send-whatsapp", notifyHandlers.SendWhatsApp)
	r.Post("/api/send-email", notifyHandlers.SendEmail)
	r.Post("/api/send-sms", notifyHandlers.SendSMS)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

type probes struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func (p probes) PingPostgres(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
