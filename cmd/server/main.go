package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agapay/internal/beneficiary"
	beneficiaryhandler "agapay/internal/beneficiary/handler"
	"agapay/internal/calamity"
	calamityhandler "agapay/internal/calamity/handler"
	"agapay/internal/distribution"
	distributionhandler "agapay/internal/distribution/handler"
	distributionservice "agapay/internal/distribution/service"
	"agapay/internal/inventory"
	inventoryhandler "agapay/internal/inventory/handler"
	inventoryservice "agapay/internal/inventory/service"
	"agapay/internal/ledger"
	ledgerkafka "agapay/internal/ledger/kafka"
	"agapay/internal/platform/config"
	"agapay/internal/platform/httpserver"
	"agapay/internal/platform/logger"
	"agapay/internal/platform/metrics"
	"agapay/internal/platform/postgres"
	"agapay/internal/platform/redis"
	"agapay/internal/platform/token"
	httptransport "agapay/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	appMetrics := metrics.New()
	runner := postgres.NewTxRunner(db)

	itemStore := inventory.NewPostgresStore(db)
	ledgerStore := ledger.NewPostgresStore(db)
	distributionStore := distribution.NewPostgresStore(db)
	beneficiaryStore := beneficiary.NewPostgresStore(db)
	calamityStore := calamity.NewPostgresStore(db)

	checks := map[string]httptransport.HealthChecker{
		"postgres": httptransport.HealthCheckFunc(db.PingContext),
	}

	distributionOpts := []distributionservice.Option{
		distributionservice.WithMetrics(appMetrics),
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient
		cache := distribution.NewStatsCache(redisClient.Client, 5*time.Minute, log)
		distributionOpts = append(distributionOpts, distributionservice.WithStatsCache(cache))
		log.Info("stats cache enabled")
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var publisher *ledgerkafka.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = ledgerkafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("create kafka publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := publisher.EnsureTopic(ensureCtx); err != nil {
			cancel()
			log.Error("ensure kafka topic", "error", err)
			os.Exit(1)
		}
		cancel()

		distributionOpts = append(distributionOpts, distributionservice.WithPublisher(publisher))
		group.Go(func() error {
			if err := publisher.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("stock event publisher enabled", "topic", cfg.Kafka.Topic)
	}

	distributionSvc := distributionservice.New(
		runner, distributionStore, itemStore, ledgerStore, beneficiaryStore, calamityStore,
		log, distributionOpts...,
	)
	inventorySvc := inventoryservice.New(runner, itemStore, ledgerStore, log,
		inventoryservice.WithMetrics(appMetrics))

	tokenSvc := token.NewService(cfg.JWTSigningKey, "agapay")
	validator := token.NewServiceAdapter(tokenSvc)

	router := httptransport.NewRouter(httptransport.Config{
		Logger: log,
		Handlers: []httptransport.Registrar{
			distributionhandler.New(distributionSvc, log, validator),
			inventoryhandler.New(inventorySvc, log, validator),
			beneficiaryhandler.New(beneficiaryStore, log, validator),
			calamityhandler.New(calamityStore, itemStore, log, validator),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting agapay server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
