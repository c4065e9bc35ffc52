package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// maxAttempts intento original más un reintento ante conflicto de concurrencia.
const maxAttempts = 2

// Engine motor de contabilización: valida, descuenta lotes, crea lotes nuevos y registra
// la transacción en una sola transacción de almacenamiento (todo o nada).
type Engine struct {
	txRunner     TxRunner
	accounts     repository.AccountRepository
	materials    repository.MaterialRepository
	batches      repository.BatchRepository
	transactions repository.TransactionRepository
	cache        CacheInvalidator
	observer     Observer
	log          zerolog.Logger
	now          func() time.Time
}

// Option configura dependencias opcionales del motor.
type Option func(*Engine)

// WithCache invalida las vistas de lectura tras cada contabilización.
func WithCache(c CacheInvalidator) Option { return func(e *Engine) { e.cache = c } }

// WithObserver registra métricas.
func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

// WithLogger asigna el logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine construye el motor.
func NewEngine(
	txRunner TxRunner,
	accounts repository.AccountRepository,
	materials repository.MaterialRepository,
	batches repository.BatchRepository,
	transactions repository.TransactionRepository,
	opts ...Option,
) *Engine {
	e := &Engine{
		txRunner:     txRunner,
		accounts:     accounts,
		materials:    materials,
		batches:      batches,
		transactions: transactions,
		observer:     nopObserver{},
		log:          zerolog.Nop(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PostTransaction valida y contabiliza la transacción. Ante un conflicto de concurrencia
// revalida contra el estado nuevo y reintenta una vez.
func (e *Engine) PostTransaction(ctx context.Context, req PostRequest) (*dto.TransactionResponse, error) {
	return e.post(ctx, req, "")
}

func (e *Engine) post(ctx context.Context, req PostRequest, draftID string) (*dto.TransactionResponse, error) {
	start := time.Now()
	var (
		id     string
		txType entity.TransactionType
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		id, txType, err = e.attempt(ctx, req, draftID)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) || attempt == maxAttempts {
			break
		}
		e.observer.ObserveRetry()
		e.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, revalidando")
	}
	if err != nil {
		kind := domain.KindOf(err)
		if kind != "" {
			e.observer.ObserveRejected(string(kind))
			e.log.Debug().Err(err).Str("kind", string(kind)).Msg("transacción rechazada")
		}
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Bump(ctx); err != nil {
			e.log.Warn().Err(err).Msg("invalidar caché de lectura")
		}
	}
	e.observer.ObservePosted(string(txType), time.Since(start))
	e.log.Info().Str("transaction_id", id).Str("type", string(txType)).Msg("transacción contabilizada")

	return e.GetTransaction(ctx, id)
}

// attempt valida sobre una foto del estado y aplica dentro de la transacción.
func (e *Engine) attempt(ctx context.Context, req PostRequest, draftID string) (string, entity.TransactionType, error) {
	p, err := e.validate(ctx, req)
	if err != nil {
		return "", "", err
	}
	now := e.now()
	header := entity.Transaction{
		ID:          draftID,
		Date:        p.date,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Type:        p.txType,
		Status:      entity.TransactionStatusDraft,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
	}
	if header.ID == "" {
		header.ID = uuid.New().String()
	}
	if err := e.apply(ctx, p, header, draftID != "", now); err != nil {
		return "", "", err
	}
	return header.ID, p.txType, nil
}

// apply escribe los efectos. Cada lote descontado se relee con bloqueo y su versión debe
// coincidir con la vista en la validación.
func (e *Engine) apply(ctx context.Context, p *plan, header entity.Transaction, fromDraft bool, now time.Time) error {
	return e.txRunner.Run(ctx, func(txRepo repository.TransactionRepository, batchRepo repository.BatchRepository) error {
		if fromDraft {
			cur, err := txRepo.GetForUpdate(ctx, header.ID)
			if err != nil {
				return err
			}
			if cur == nil {
				return fmt.Errorf("transacción %s: %w", header.ID, domain.ErrNotFound)
			}
			if cur.Status != entity.TransactionStatusDraft {
				return fmt.Errorf("transacción %s en estado %s: %w", header.ID, cur.Status, domain.ErrImmutableTransaction)
			}
		} else if err := txRepo.Create(ctx, &header); err != nil {
			return err
		}

		// Orden fijo para evitar deadlocks entre contabilizaciones concurrentes.
		ids := make([]string, 0, len(p.draws))
		for id := range p.draws {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			b, err := batchRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if b == nil || b.Version != p.versions[id] {
				return domain.ConflictError(fmt.Sprintf("el lote %s cambió durante la validación", id))
			}
			next, err := ledger.Drawdown(*b, p.draws[id])
			if err != nil {
				return domain.ConflictError(err.Error())
			}
			if err := batchRepo.UpdateQuantity(ctx, id, next.Quantity, next.Status, b.Version); err != nil {
				return err
			}
		}

		sources := ledger.SourceBatchIDs(p.transfers)
		for i := range p.allocations {
			a := &p.allocations[i]
			a.TransactionID = header.ID
			txID := header.ID
			batch := &entity.Batch{
				ID:                       uuid.New().String(),
				MaterialID:               a.MaterialID,
				AccountID:                a.AccountID,
				Quantity:                 a.Quantity,
				InitialQuantity:          a.Quantity,
				Unit:                     a.Unit,
				Status:                   entity.BatchStatusActive,
				LotNumber:                a.LotNumber,
				ExpirationDate:           a.ExpirationDate,
				QualityGrade:             a.QualityGrade,
				StorageCondition:         a.StorageCondition,
				Location:                 a.Location,
				OriginatingTransactionID: &txID,
				SourceBatchIDs:           append([]string{}, sources...),
				Version:                  1,
				CreatedAt:                now,
				UpdatedAt:                now,
			}
			if err := batchRepo.Create(ctx, batch); err != nil {
				return err
			}
			batchID := batch.ID
			a.CreatedBatchID = &batchID
		}
		for i := range p.transfers {
			p.transfers[i].TransactionID = header.ID
		}

		if err := txRepo.ReplaceLines(ctx, header.ID, p.transfers, p.allocations); err != nil {
			return err
		}
		return txRepo.MarkPosted(ctx, header.ID, now)
	})
}
