package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `
	id, material_id, account_id, quantity, initial_quantity, unit, status, lot_number,
	expiration_date, quality_grade, storage_condition, location, originating_transaction_id,
	source_batch_ids::text[], version, created_at, updated_at`

// BatchRepo lotes sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(
		&b.ID, &b.MaterialID, &b.AccountID, &b.Quantity, &b.InitialQuantity, &b.Unit, &b.Status, &b.LotNumber,
		&b.ExpirationDate, &b.QualityGrade, &b.StorageCondition, &b.Location, &b.OriginatingTransactionID,
		&b.SourceBatchIDs, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) queryBatches(ctx context.Context, op, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Create persiste un lote nuevo.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	if b.Version == 0 {
		b.Version = 1
	}
	sources := b.SourceBatchIDs
	if sources == nil {
		sources = []string{}
	}
	query := `
		INSERT INTO batches (
			id, material_id, account_id, quantity, initial_quantity, unit, status, lot_number,
			expiration_date, quality_grade, storage_condition, location, originating_transaction_id,
			source_batch_ids, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::text[]::uuid[], $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.MaterialID, b.AccountID, b.Quantity, b.InitialQuantity, b.Unit, b.Status, b.LotNumber,
		b.ExpirationDate, b.QualityGrade, b.StorageCondition, b.Location, b.OriginatingTransactionID,
		sources, b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote; nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *BatchRepo) get(ctx context.Context, id, suffix string) (*entity.Batch, error) {
	if !validID(id) {
		return nil, nil
	}
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// GetMany lotes existentes entre ids, en el orden pedido.
func (r *BatchRepo) GetMany(ctx context.Context, ids []string) ([]*entity.Batch, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE id = ANY($1::text[]::uuid[])
		ORDER BY array_position($1::text[]::uuid[], id)`
	return r.queryBatches(ctx, "get many batches", query, ids)
}

// UpdateQuantity actualiza cantidad y estado si la versión coincide.
func (r *BatchRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, status string, expectedVersion int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batches SET quantity = $2, status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`, id, quantity, status, expectedVersion)
	if err != nil {
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
	}
	return domain.ConflictError(fmt.Sprintf("lote %s: versión %d, se esperaba %d", id, cur.Version, expectedVersion))
}

// List lotes filtrados, en orden de creación.
func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE 1=1`
	var args []any
	pos := 1
	if f.MaterialID != "" {
		if !validID(f.MaterialID) {
			return nil, nil
		}
		query += fmt.Sprintf(" AND material_id = $%d", pos)
		args = append(args, f.MaterialID)
		pos++
	}
	if f.AccountID != "" {
		if !validID(f.AccountID) {
			return nil, nil
		}
		query += fmt.Sprintf(" AND account_id = $%d", pos)
		args = append(args, f.AccountID)
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)
	return r.queryBatches(ctx, "list batches", query, args...)
}

// ListActiveByMaterial lotes activos del material.
func (r *BatchRepo) ListActiveByMaterial(ctx context.Context, materialID string) ([]*entity.Batch, error) {
	if !validID(materialID) {
		return nil, nil
	}
	return r.queryBatches(ctx, "list active by material",
		`SELECT `+batchColumns+` FROM batches WHERE material_id = $1 AND status = 'active' ORDER BY created_at, id`, materialID)
}

// ListActiveByAccount lotes activos de la cuenta.
func (r *BatchRepo) ListActiveByAccount(ctx context.Context, accountID string) ([]*entity.Batch, error) {
	if !validID(accountID) {
		return nil, nil
	}
	return r.queryBatches(ctx, "list active by account",
		`SELECT `+batchColumns+` FROM batches WHERE account_id = $1 AND status = 'active' ORDER BY created_at, id`, accountID)
}

// ListByTransaction lotes creados por la transacción.
func (r *BatchRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Batch, error) {
	if !validID(transactionID) {
		return nil, nil
	}
	return r.queryBatches(ctx, "list by transaction",
		`SELECT `+batchColumns+` FROM batches WHERE originating_transaction_id = $1 ORDER BY created_at, id`, transactionID)
}

// ExpireDue marca vencidos los lotes activos con vencimiento anterior a asOf.
func (r *BatchRepo) ExpireDue(ctx context.Context, asOf time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE batches SET status = 'expired', version = version + 1, updated_at = now()
		WHERE status = 'active' AND expiration_date < $1`, asOf)
	if err != nil {
		return 0, fmt.Errorf("expire batches: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
