package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"adtopia/internal/config"
	"adtopia/internal/domain/ports/adapter"
	aiAdapters "adtopia/internal/infra/adapters/ai"
	notifyAdapters "adtopia/internal/infra/adapters/notify"
	payAdapters "adtopia/internal/infra/adapters/payment"
	tele "adtopia/internal/infra/adapters/telegram"
	"adtopia/internal/infra/api"
	pg "adtopia/internal/infra/db/postgres"
	"adtopia/internal/infra/logging"
	"adtopia/internal/infra/metrics"
	"adtopia/internal/infra/queue"
	red "adtopia/internal/infra/redis"
	"adtopia/internal/infra/sched"
	"adtopia/internal/infra/worker"
	"adtopia/internal/usecase"
)

// set with -ldflags at build time
var (
	version = "dev"
	commit  = "none"
)

// maxConcurrentAI caps in-flight LLM calls across HTTP and cron callers.
const maxConcurrentAI = 4

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	productRepo := pg.NewProductRepoCacheDecorator(pg.NewProductRepo(pool), redisClient, cfg.Redis.TTL, logger)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	eventRepo := pg.NewProcessedEventRepo(pool)
	abTestRepo := pg.NewABTestRepo(pool)
	agencyRepo := pg.NewAgencyRepo(pool)
	adminRepo := pg.NewAdminRepo(pool)
	analyticsRepo := pg.NewAnalyticsRepo(pool)
	notifLogRepo := pg.NewNotificationLogRepo(pool)

	// ---- Adapters ----
	gateway, err := payAdapters.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("stripe gateway")
	}
	if !cfg.StripeEnabled() {
		logger.Warn().Msg("stripe.secret_key not set: checkout and product sync are disabled, webhooks still verify")
	}
	email, sms := buildSenders(cfg, logger)
	alerts := buildAlerts(cfg.Alerts, logger)
	ai := buildAI(ctx, cfg.AI, logger)

	// ---- Use cases ----
	notifUC := usecase.NewNotificationUseCase(nil, email, sms, notifLogRepo, logger)
	gtmmUC := usecase.NewGTMMUseCase(ai, logger)
	productUC := usecase.NewProductUseCase(productRepo, gateway, locker, cfg.Sync.LockTTL, logger)
	checkoutUC := usecase.NewCheckoutUseCase(productRepo, purchaseRepo, abTestRepo, agencyRepo, gateway, logger)
	webhookUC := usecase.NewWebhookUseCase(gateway, eventRepo, purchaseRepo, productRepo, abTestRepo, agencyRepo, tm, notifUC, alerts, logger)
	abTestUC := usecase.NewABTestUseCase(abTestRepo, tm, limiter, cfg.RateLimit.ConversionsPerMinute, logger)
	analyticsUC := usecase.NewAnalyticsUseCase(analyticsRepo, logger)
	adminUC := usecase.NewAdminUseCase(adminRepo, tm, logger)
	agencyUC := usecase.NewAgencyUseCase(agencyRepo, tm, notifUC, logger)

	// ---- Job queue ----
	var stopJobs []func()
	switch cfg.Queue.Driver {
	case "asynq":
		opt, err := queue.RedisOpt(&cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("asynq redis")
		}
		qc := queue.NewClient(opt, logger)
		notifUC.SetQueue(qc)

		qs := queue.NewServer(opt, cfg.Queue.Concurrency, notifUC, gtmmUC, logger)
		if err := qs.Start(); err != nil {
			logger.Fatal().Err(err).Msg("asynq server")
		}
		stopJobs = append(stopJobs, qs.Stop, func() { _ = qc.Close() })

		if len(cfg.GTMM.Schedules) > 0 {
			sch := queue.NewScheduler(opt, logger)
			if err := sch.Start(cfg.GTMM.Schedules); err != nil {
				logger.Fatal().Err(err).Msg("gtmm scheduler")
			}
			stopJobs = append(stopJobs, sch.Stop)
		}
	default:
		// the pool outlives ctx so queued deliveries finish during shutdown
		wp := worker.NewPool(cfg.Queue.Concurrency, cfg.Queue.Buffer, logger)
		wp.Start(context.Background())
		notifUC.SetQueue(worker.NewNotificationQueue(wp, notifUC))
		stopJobs = append(stopJobs, wp.Stop)
		if len(cfg.GTMM.Schedules) > 0 {
			logger.Warn().Int("schedules", len(cfg.GTMM.Schedules)).Msg("gtmm schedules need queue.driver=asynq; ignoring")
		}
	}

	// ---- Background workers ----
	var wg sync.WaitGroup
	runWorker := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("worker", name).Msg("worker exited")
			}
		}()
	}
	if cfg.StripeEnabled() {
		runWorker("product_sync", sched.NewProductSyncWorker(cfg.Sync.Interval, productUC, alerts, logger).Run)
	}
	runWorker("purchase_reconciler", sched.NewPurchaseReconciler(checkoutUC, cfg.Reconcile.Interval, cfg.Reconcile.PendingTTL, logger).Run)
	runWorker("pool_stats", sched.NewPoolStatsCollector(15*time.Second, sched.PgxPoolStats(pool), logger).Run)

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Webhooks:       webhookUC,
		Checkout:       checkoutUC,
		Products:       productUC,
		ABTests:        abTestUC,
		Analytics:      analyticsUC,
		Admins:         adminUC,
		Agency:         agencyUC,
		Notifications:  notifUC,
		GTMM:           gtmmUC,
		Verifier:       api.NewTokenVerifier(cfg.Supabase.JWTSecret, cfg.Supabase.URL),
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Health: map[string]api.Pinger{
			"postgres": pool,
			"redis":    redisClient,
		},
	}, cfg.HTTP, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	for i := len(stopJobs) - 1; i >= 0; i-- {
		stopJobs[i]()
	}
	logger.Info().Msg("bye")
}

func buildSenders(cfg *config.Config, logger *zerolog.Logger) (adapter.EmailSender, adapter.SMSSender) {
	var email adapter.EmailSender = notifyAdapters.Disabled{}
	if cfg.Resend.APIKey != "" {
		s, err := notifyAdapters.NewResendSender(cfg.Resend.APIKey, cfg.Resend.From)
		if err != nil {
			logger.Fatal().Err(err).Msg("resend")
		}
		email = s
	} else {
		logger.Warn().Msg("resend.api_key not set: emails will be logged as failed")
	}

	var sms adapter.SMSSender = notifyAdapters.Disabled{}
	if cfg.Twilio.AccountSID != "" {
		s, err := notifyAdapters.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			logger.Fatal().Err(err).Msg("twilio")
		}
		sms = s
	} else {
		logger.Warn().Msg("twilio not configured: sms disabled")
	}
	return email, sms
}

func buildAlerts(cfg config.AlertsConfig, logger *zerolog.Logger) adapter.AlertNotifier {
	if cfg.TelegramToken == "" {
		return tele.NewNoopAlerter(logger)
	}
	bot, err := tele.NewAlertBot(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram alerts disabled")
		return tele.NewNoopAlerter(logger)
	}
	return bot
}

// buildAI wires every provider with a key behind one model router.
func buildAI(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) adapter.AIServiceAdapter {
	providers := map[string]adapter.AIServiceAdapter{}
	if cfg.OpenAIKey != "" {
		model := cfg.DefaultModel
		if strings.HasPrefix(strings.ToLower(model), "gemini") {
			model = ""
		}
		a, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, model, cfg.MaxOutput)
		if err != nil {
			logger.Error().Err(err).Msg("openai adapter")
		} else {
			providers["openai"] = a
		}
	}
	if cfg.GeminiKey != "" {
		a, err := aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.DefaultModel, cfg.MaxOutput)
		if err != nil {
			logger.Error().Err(err).Msg("gemini adapter")
		} else {
			providers["gemini"] = a
		}
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no AI provider configured: GTMM execute returns prompts only")
		return aiAdapters.NewNoopAIAdapter()
	}
	multi := aiAdapters.NewMultiAIAdapter(cfg.DefaultModel, providers)
	logger.Info().Str("default_model", multi.DefaultModel()).Int("providers", len(providers)).Msg("AI adapter ready")
	return aiAdapters.NewLimitedAI(multi, maxConcurrentAI)
}
