package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// BatchFilter filtros para listar lotes.
type BatchFilter struct {
	MaterialID string
	AccountID  string
	Status     string
	Limit      int
	Offset     int
}

// BatchRepository define el puerto del almacén de lotes.
// Los lotes no se eliminan; solo cambian cantidad y estado.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// GetForUpdate bloquea el lote hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	GetMany(ctx context.Context, ids []string) ([]*entity.Batch, error)
	// UpdateQuantity aplica cantidad y estado si la versión coincide; si no, domain.ErrConcurrencyConflict.
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, status string, expectedVersion int64) error
	List(ctx context.Context, filter BatchFilter) ([]*entity.Batch, error)
	ListActiveByMaterial(ctx context.Context, materialID string) ([]*entity.Batch, error)
	ListActiveByAccount(ctx context.Context, accountID string) ([]*entity.Batch, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Batch, error)
	// ExpireDue marca expired los lotes activos con vencimiento anterior a asOf.
	ExpireDue(ctx context.Context, asOf time.Time) (int, error)
}
