package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const (
	transactionColumns = `id, date, reference_id, description, transaction_type, status, created_by, created_at, posted_at`
	transferColumns    = `id, transaction_id, position, source_account_id, destination_account_id, material_id,
		amount, unit, source_kind, source_batch_id`
	allocationColumns = `id, transaction_id, position, material_id, account_id, transfer_index, quantity, unit,
		lot_number, expiration_date, quality_grade, storage_condition, location, created_batch_id`
)

// TransactionRepo libro de transacciones sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*entity.Transaction, error) {
	var t entity.Transaction
	var txType string
	if err := row.Scan(&t.ID, &t.Date, &t.ReferenceID, &t.Description, &txType, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.PostedAt); err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(txType)
	return &t, nil
}

func scanTransfer(row scanner, extra ...any) (entity.Transfer, error) {
	var tr entity.Transfer
	var kind string
	var batchID *string
	dest := append([]any{
		&tr.ID, &tr.TransactionID, &tr.Position, &tr.SourceAccountID, &tr.DestinationAccountID, &tr.MaterialID,
		&tr.Amount, &tr.Unit, &kind, &batchID,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return tr, err
	}
	tr.Source = entity.TransferSource{Kind: entity.SourceKind(kind)}
	if batchID != nil {
		tr.Source.BatchID = *batchID
	}
	return tr, nil
}

// Create persiste cabecera y líneas.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Date, t.ReferenceID, t.Description, string(t.Type), t.Status, t.CreatedBy, t.CreatedAt, t.PostedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transacción %s: %w", t.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return r.insertLines(ctx, t.ID, t.Transfers, t.Allocations)
}

func (r *TransactionRepo) insertLines(ctx context.Context, txID string, transfers []entity.Transfer, allocations []entity.BatchAllocation) error {
	for _, tr := range transfers {
		var batchID *string
		if tr.Source.IsBatch() {
			id := tr.Source.BatchID
			batchID = &id
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO transfers (`+transferColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			tr.ID, txID, tr.Position, tr.SourceAccountID, tr.DestinationAccountID, tr.MaterialID,
			tr.Amount, tr.Unit, string(tr.Source.Kind), batchID)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
	}
	for _, a := range allocations {
		_, err := r.q.Exec(ctx, `
			INSERT INTO batch_allocations (`+allocationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			a.ID, txID, a.Position, a.MaterialID, a.AccountID, a.TransferIndex, a.Quantity, a.Unit,
			a.LotNumber, a.ExpirationDate, a.QualityGrade, a.StorageCondition, a.Location, a.CreatedBatchID)
		if err != nil {
			return fmt.Errorf("insert batch allocation: %w", err)
		}
	}
	return nil
}

// GetByID cabecera con líneas; nil si no existe.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la cabecera.
func (r *TransactionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *TransactionRepo) get(ctx context.Context, id, suffix string) (*entity.Transaction, error) {
	if !validID(id) {
		return nil, nil
	}
	t, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.Transaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// loadLines completa transferencias y asignaciones de varias cabeceras en dos consultas.
func (r *TransactionRepo) loadLines(ctx context.Context, txs []*entity.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(txs))
	byID := make(map[string]*entity.Transaction, len(txs))
	for _, t := range txs {
		ids = append(ids, t.ID)
		byID[t.ID] = t
		t.Transfers = []entity.Transfer{}
		t.Allocations = []entity.BatchAllocation{}
	}

	rows, err := r.q.Query(ctx, `SELECT `+transferColumns+` FROM transfers
		WHERE transaction_id = ANY($1::text[]::uuid[]) ORDER BY transaction_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list transfers: %w", err)
	}
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan transfer: %w", err)
		}
		byID[tr.TransactionID].Transfers = append(byID[tr.TransactionID].Transfers, tr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list transfers: %w", err)
	}

	rows, err = r.q.Query(ctx, `SELECT `+allocationColumns+` FROM batch_allocations
		WHERE transaction_id = ANY($1::text[]::uuid[]) ORDER BY transaction_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list batch allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a entity.BatchAllocation
		err := rows.Scan(&a.ID, &a.TransactionID, &a.Position, &a.MaterialID, &a.AccountID, &a.TransferIndex,
			&a.Quantity, &a.Unit, &a.LotNumber, &a.ExpirationDate, &a.QualityGrade, &a.StorageCondition,
			&a.Location, &a.CreatedBatchID)
		if err != nil {
			return fmt.Errorf("scan batch allocation: %w", err)
		}
		byID[a.TransactionID].Allocations = append(byID[a.TransactionID].Allocations, a)
	}
	return rows.Err()
}

// ReplaceLines reemplaza las líneas de un borrador.
func (r *TransactionRepo) ReplaceLines(ctx context.Context, id string, transfers []entity.Transfer, allocations []entity.BatchAllocation) error {
	if err := r.requireDraft(ctx, id); err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM batch_allocations WHERE transaction_id = $1`, id); err != nil {
		return fmt.Errorf("delete batch allocations: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM transfers WHERE transaction_id = $1`, id); err != nil {
		return fmt.Errorf("delete transfers: %w", err)
	}
	return r.insertLines(ctx, id, transfers, allocations)
}

func (r *TransactionRepo) requireDraft(ctx context.Context, id string) error {
	var status string
	err := r.q.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("get transaction status: %w", err)
	}
	if status != entity.TransactionStatusDraft {
		return domain.ErrImmutableTransaction
	}
	return nil
}

// MarkPosted pasa un borrador a posted.
func (r *TransactionRepo) MarkPosted(ctx context.Context, id string, postedAt time.Time) error {
	return r.setStatus(ctx, id, entity.TransactionStatusPosted, &postedAt)
}

// MarkVoid pasa un borrador a void.
func (r *TransactionRepo) MarkVoid(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, entity.TransactionStatusVoid, nil)
}

func (r *TransactionRepo) setStatus(ctx context.Context, id, status string, postedAt *time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transactions SET status = $2, posted_at = $3
		WHERE id = $1 AND status = 'draft'`, id, status, postedAt)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.requireDraft(ctx, id)
}

// List lista transacciones, más recientes primero.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any
	pos := 1
	if f.Type != "" {
		query += fmt.Sprintf(" AND transaction_type = $%d", pos)
		args = append(args, string(f.Type))
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var list []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListDrawsByBatch transferencias contabilizadas que descontaron del lote, en orden cronológico.
func (r *TransactionRepo) ListDrawsByBatch(ctx context.Context, batchID string) ([]entity.BatchDraw, error) {
	query := `
		SELECT t.id, t.transaction_id, t.position, t.source_account_id, t.destination_account_id, t.material_id,
		       t.amount, t.unit, t.source_kind, t.source_batch_id,
		       x.id, x.date, x.reference_id, x.description, x.transaction_type, x.status, x.created_by, x.created_at, x.posted_at
		FROM transfers t
		JOIN transactions x ON x.id = t.transaction_id
		WHERE t.source_kind = 'batch' AND t.source_batch_id = $1 AND x.status = 'posted'
		ORDER BY x.date, x.posted_at, x.created_at, t.position`
	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list draws by batch: %w", err)
	}
	defer rows.Close()
	var draws []entity.BatchDraw
	for rows.Next() {
		var x entity.Transaction
		var txType string
		tr, err := scanTransfer(rows,
			&x.ID, &x.Date, &x.ReferenceID, &x.Description, &txType, &x.Status, &x.CreatedBy, &x.CreatedAt, &x.PostedAt)
		if err != nil {
			return nil, fmt.Errorf("scan draw: %w", err)
		}
		x.Type = entity.TransactionType(txType)
		draws = append(draws, entity.BatchDraw{Transfer: tr, Transaction: x})
	}
	return draws, rows.Err()
}
