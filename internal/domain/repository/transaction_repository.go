package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// TransactionFilter filtros para listar transacciones (más recientes primero).
type TransactionFilter struct {
	Type   entity.TransactionType
	Status string
	Limit  int
	Offset int
}

// TransactionRepository define el puerto del libro de transferencias.
// No existe Update/Delete de líneas: lo contabilizado es inmutable.
type TransactionRepository interface {
	// Create persiste cabecera, transferencias y asignaciones.
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// GetForUpdate bloquea la cabecera (para contabilizar/anular borradores).
	GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error)
	// ReplaceLines reemplaza transferencias y asignaciones; solo válido en borradores.
	ReplaceLines(ctx context.Context, id string, transfers []entity.Transfer, allocations []entity.BatchAllocation) error
	// MarkPosted pasa un borrador a posted.
	MarkPosted(ctx context.Context, id string, postedAt time.Time) error
	// MarkVoid pasa un borrador a void.
	MarkVoid(ctx context.Context, id string) error
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
	// ListDrawsByBatch transferencias contabilizadas que descontaron del lote, en orden cronológico.
	ListDrawsByBatch(ctx context.Context, batchID string) ([]entity.BatchDraw, error)
}
