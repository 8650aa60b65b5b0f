// Command productsync mirrors the Stripe catalog into the products table once.
// It is safe to rerun and exits non-zero when any product failed to sync.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"adtopia/internal/config"
	payAdapters "adtopia/internal/infra/adapters/payment"
	pg "adtopia/internal/infra/db/postgres"
	"adtopia/internal/infra/logging"
	red "adtopia/internal/infra/redis"
	"adtopia/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the sync run")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, false)
	if !cfg.StripeEnabled() {
		logger.Fatal().Msg("stripe.secret_key (STRIPE_SECRET_KEY) is required for product sync")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	gateway, err := payAdapters.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("stripe gateway")
	}

	// through the cache decorator so the storefront list is invalidated
	products := pg.NewProductRepoCacheDecorator(pg.NewProductRepo(pool), redisClient, cfg.Redis.TTL, logger)
	productUC := usecase.NewProductUseCase(products, gateway, red.NewLocker(redisClient), cfg.Sync.LockTTL, logger)

	report, err := productUC.Sync(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seen=%d upserted=%d deactivated=%d failed=%d duration=%s\n",
		report.Seen, report.Upserted, report.Deactivated, len(report.Failures),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, f := range report.Failures {
		id := f.StripeProductID
		if id == "" {
			id = "-"
		}
		fmt.Printf("  FAILED %s: %s\n", id, f.Error)
	}
	if !report.OK() {
		os.Exit(1)
	}
}
