package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// BatchUseCase tareas de mantenimiento de lotes fuera del motor de contabilización.
type BatchUseCase struct {
	batches repository.BatchRepository
	cache   ledger.CacheInvalidator
	log     zerolog.Logger
}

// NewBatchUseCase construye el caso de uso. cache puede ser nil.
func NewBatchUseCase(batches repository.BatchRepository, cache ledger.CacheInvalidator, log zerolog.Logger) *BatchUseCase {
	return &BatchUseCase{batches: batches, cache: cache, log: log}
}

// ExpireDue marca como vencidos los lotes activos con vencimiento anterior a asOf.
func (uc *BatchUseCase) ExpireDue(ctx context.Context, asOf time.Time) (*dto.ExpireBatchesResponse, error) {
	n, err := uc.batches.ExpireDue(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if n > 0 && uc.cache != nil {
		if err := uc.cache.Bump(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("invalidar caché de lectura")
		}
	}
	uc.log.Info().Int("expired", n).Time("as_of", asOf).Msg("vencimiento de lotes")
	return &dto.ExpireBatchesResponse{AsOf: asOf.Format(dto.DateLayout), Expired: n}, nil
}
