// worker procesa la cola asynq: vencimiento de lotes programado por cron y encolado bajo demanda.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/bootstrap"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/jobs"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/jhoicas/Trazabilidad-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name + "-worker"})
	zl := log.Zerolog()

	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("el worker requiere REDIS_ADDR")
	}
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("worker con almacenamiento en memoria: no comparte datos con la API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, zl)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer storage.Close()

	readCache, closeCache, err := bootstrap.OpenCache(ctx, cfg.Redis, log.Component("cache"))
	if err != nil {
		log.Fatal().Err(err).Msg("caché Redis")
	}
	defer closeCache()
	var invalidator ledger.CacheInvalidator
	if readCache != nil {
		invalidator = readCache
	}

	var observer jobs.Observer
	if cfg.Metrics.Enabled {
		m := metrics.New()
		observer = m
		srv := &http.Server{
			Addr:              cfg.Metrics.WorkerAddr,
			Handler:           promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	jobLog := log.Component("jobs")
	expire := jobs.NewExpireJob(usecase.NewBatchUseCase(storage.Batches, invalidator, jobLog), observer, jobLog)
	cronTask, err := jobs.NewExpireBatchesTask(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("tarea de vencimiento")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   bootstrap.RedisClientOpt(cfg.Redis),
		Concurrency: cfg.Jobs.Concurrency,
		Logger:      zl,
		Handlers:    []jobs.TaskHandler{{Type: jobs.TaskExpireBatches, Handler: expire.Handle}},
		Cron: []jobs.CronRegistration{{
			Spec:    cfg.Jobs.ExpiryCron,
			Task:    cronTask,
			Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)},
		}},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	log.Info().Str("cron", cfg.Jobs.ExpiryCron).Int("concurrency", cfg.Jobs.Concurrency).Msg("worker iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}
