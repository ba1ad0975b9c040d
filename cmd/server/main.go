package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"vetra/internal/audit"
	"vetra/internal/audit/outbox"
	"vetra/internal/cases"
	"vetra/internal/check"
	checkmetrics "vetra/internal/check/metrics"
	"vetra/internal/platform/config"
	"vetra/internal/platform/httpserver"
	"vetra/internal/platform/logger"
	"vetra/internal/platform/postgres"
	platformredis "vetra/internal/platform/redis"
	"vetra/internal/reasoner"
	"vetra/internal/reference"
	"vetra/internal/risk"
	"vetra/internal/stage"
	stagemetrics "vetra/internal/stage/metrics"
	httptransport "vetra/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires the pipeline: stores (postgres or memory), the reference cache,
// the check registry, the stage service, the outbox relay, and the HTTP
// surface. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		caseStore  cases.Store
		auditStore audit.Store
		refStore   reference.Store
	)
	if db != nil {
		caseStore = cases.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		refStore = reference.NewPostgresStore(db)
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		caseStore = cases.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		refStore = reference.NewMemoryStore(nil, nil, nil)
	}
	if redisClient != nil {
		refStore = reference.NewCachedStore(refStore, redisClient.Client, config.ReferenceCacheTTL, log)
	}

	var corroborator check.Corroborator
	if cfg.ReasonerURL != "" {
		corroborator = reasoner.NewClient(cfg.ReasonerURL, log)
	}

	aggregator, err := risk.NewAggregator(risk.DefaultWeights())
	if err != nil {
		log.Error("invalid risk weights", "error", err)
		os.Exit(1)
	}

	runner := check.NewRunner(check.DefaultRegistry(refStore), corroborator, checkmetrics.New(), log)
	service := stage.NewService(caseStore, audit.NewPublisher(auditStore), runner, aggregator, db, stagemetrics.New(), log)

	handler := httptransport.New(service, log)
	router := httptransport.NewRouter(handler, []byte(cfg.JWTSigningKey), log)
	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	if db != nil && len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()

		relay := outbox.NewRelay(db, kafkaClient, cfg.AuditTopic, log)
		if err := relay.EnsureTopic(ctx, 3, 1); err != nil {
			log.Error("audit topic creation failed", "error", err)
			os.Exit(1)
		}
		group.Go(func() error {
			err := relay.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		log.Info("starting vetra", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
