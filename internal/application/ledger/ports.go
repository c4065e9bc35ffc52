package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de almacenamiento, pasando repositorios
// atados a esa tx. Si fn devuelve error no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		txRepo repository.TransactionRepository,
		batchRepo repository.BatchRepository,
	) error) error
}

// CacheInvalidator invalida las vistas de lectura cacheadas tras una contabilización.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Observer recibe las métricas del motor.
type Observer interface {
	ObservePosted(txType string, elapsed time.Duration)
	ObserveRejected(kind string)
	ObserveRetry()
}

type nopObserver struct{}

func (nopObserver) ObservePosted(string, time.Duration) {}
func (nopObserver) ObserveRejected(string)              {}
func (nopObserver) ObserveRetry()                       {}
