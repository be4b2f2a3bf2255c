// Command server runs the lineage and succession evaluation service.
//
// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"stemma/internal/audit"
	"stemma/internal/genealogy"
	genealogyhandler "stemma/internal/genealogy/handler"
	"stemma/internal/jwttoken"
	"stemma/internal/lineage"
	"stemma/internal/person"
	"stemma/internal/platform/config"
	"stemma/internal/platform/httpserver"
	"stemma/internal/platform/logger"
	"stemma/internal/platform/metrics"
	"stemma/internal/platform/middleware"
	"stemma/internal/platform/postgres"
	platformredis "stemma/internal/platform/redis"
	"stemma/internal/relationship"
	"stemma/internal/succession"
	successionhandler "stemma/internal/succession/handler"
	httptransport "stemma/internal/transport/http"
)

const auditBuffer = 1024

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores default to in-memory; a DSN switches both to Postgres.
	var (
		persons person.Store       = person.NewMemory()
		rels    relationship.Store = relationship.NewMemory()
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		persons = person.NewPostgres(db)
		rels = relationship.NewPostgres(db)
		log.Info("using postgres stores")
	}

	var auditStore audit.Store = audit.NewMemory()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		auditStore = audit.NewRedis(redisClient)
		log.Info("using redis audit store")
	}

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("publishing audit events to kafka", "topic", cfg.KafkaTopic)
	}

	recorder := audit.NewRecorder(auditBuffer)
	worker := audit.NewWorker(auditStore, publisher, recorder.Events(), log)

	loader := lineage.NewLoader(rels)
	trees := genealogy.NewTreeBuilder(persons, rels, log, m)
	timeline := genealogy.NewTimelineChecker(trees, log, m)
	evaluator := succession.New(persons, loader, log, m)

	var validator middleware.TokenValidator
	if !cfg.AuthDisabled {
		validator = jwttoken.NewService(cfg.JWTSigningKey, "stemma")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:    log,
		Metrics:   m,
		Validator: validator,
		Handlers: []httptransport.Registrar{
			genealogyhandler.New(trees, timeline, log),
			successionhandler.New(evaluator, recorder, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	metricsSrv := httpserver.New(cfg.MetricsAddr, promhttp.Handler())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting stemma server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
