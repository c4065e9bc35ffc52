// Package bootstrap arma las dependencias compartidas por los binarios (api, worker, ledgerctl)
// a partir de la configuración: almacenamiento, caché Redis y opciones de la cola.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
)

// Storage repositorios y ejecutor transaccional del driver elegido.
type Storage struct {
	Driver       string
	TxRunner     ledger.TxRunner
	Accounts     repository.AccountRepository
	Materials    repository.MaterialRepository
	Batches      repository.BatchRepository
	Transactions repository.TransactionRepository

	close func()
}

// Close libera el pool (no-op en memoria).
func (s *Storage) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenStorage abre el almacenamiento según STORAGE_DRIVER. Con postgres y DB_AUTO_MIGRATE
// aplica las migraciones antes de abrir el pool.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		s := memory.NewStore()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &Storage{
			Driver:       config.StorageDriverMemory,
			TxRunner:     memory.NewTxRunner(s),
			Accounts:     s.Accounts(),
			Materials:    s.Materials(),
			Batches:      s.Batches(),
			Transactions: s.Transactions(),
		}, nil
	case config.StorageDriverPostgres:
		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(ctx, cfg.DB.ConnectionString(), postgres.MigrateUp); err != nil {
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		return &Storage{
			Driver:       config.StorageDriverPostgres,
			TxRunner:     postgres.NewTxRunner(pool),
			Accounts:     postgres.NewAccountRepository(pool),
			Materials:    postgres.NewMaterialRepository(pool),
			Batches:      postgres.NewBatchRepository(pool),
			Transactions: postgres.NewTransactionRepository(pool),
			close:        pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("driver de almacenamiento %q no soportado", cfg.Storage.Driver)
	}
}

// OpenCache conecta la caché de lectura. Sin REDIS_ADDR devuelve nil: las vistas se leen directo.
func OpenCache(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*cache.Cache, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("conexión a Redis %s: %w", cfg.Addr, err)
	}
	return cache.NewCache(client, cfg.CacheTTL, log), func() { _ = client.Close() }, nil
}

// RedisClientOpt opciones de asynq a partir de la configuración de Redis.
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// EngineOptions opciones del motor según las dependencias disponibles. c puede ser nil.
func EngineOptions(c *cache.Cache, observer ledger.Observer, log zerolog.Logger) []ledger.Option {
	opts := []ledger.Option{ledger.WithLogger(log)}
	if c != nil {
		opts = append(opts, ledger.WithCache(c))
	}
	if observer != nil {
		opts = append(opts, ledger.WithObserver(observer))
	}
	return opts
}
