package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/bootstrap"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/report"
	httpRouter "github.com/jhoicas/Trazabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/jhoicas/Trazabilidad-api/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")
	zl := log.Zerolog()

	ctx, stop := context.WithCancel(context.Background())
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

	var views lineage.Cache
	if readCache != nil {
		views = readCache
		if err := readCache.ListenForInvalidation(ctx, func(v int64) {
			log.Debug().Int64("version", v).Msg("caché invalidada por otra réplica")
		}); err != nil {
			log.Warn().Err(err).Msg("suscripción a invalidaciones")
		}
	}

	var observer ledger.Observer
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observer = m
	}

	engine := ledger.NewEngine(
		storage.TxRunner, storage.Accounts, storage.Materials, storage.Batches, storage.Transactions,
		bootstrap.EngineOptions(readCache, observer, log.Component("ledger"))...,
	)
	resolver := lineage.NewResolver(storage.Accounts, storage.Materials, storage.Batches, storage.Transactions, views)
	accountUC := usecase.NewAccountUseCase(storage.Accounts)
	materialUC := usecase.NewMaterialUseCase(storage.Materials)
	alertsUC := usecase.NewStockAlertUseCase(storage.Materials)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	if m != nil {
		app.Use(m.Middleware())
		app.Get(cfg.Metrics.Path, m.Handler())
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Trazabilidad API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:     engine,
		Resolver:   resolver,
		AccountUC:  accountUC,
		MaterialUC: materialUC,
		AlertsUC:   alertsUC,
		LineagePDF: report.NewLineagePDF(),
		XLSX:       report.NewDistributionXLSX(),
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		Logger:     log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
