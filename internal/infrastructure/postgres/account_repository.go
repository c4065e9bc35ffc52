package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `id, name, category, description, is_default, status, created_at, updated_at`

// AccountRepo implementación de AccountRepository sobre PostgreSQL.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador de cuentas.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	var category string
	if err := row.Scan(&a.ID, &a.Name, &category, &a.Description, &a.IsDefault, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Category = entity.AccountCategory(category)
	return &a, nil
}

// Create persiste la cuenta.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, a.ID, a.Name, string(a.Category), a.Description, a.IsDefault, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == "accounts_one_default_per_category" {
				return domain.ErrDuplicateDefault
			}
			return fmt.Errorf("cuenta %s: %w", a.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByID obtiene una cuenta; nil si no existe.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if !validID(id) {
		return nil, nil
	}
	a, err := scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetDefault cuenta por defecto de la categoría; nil si no hay.
func (r *AccountRepo) GetDefault(ctx context.Context, category entity.AccountCategory) (*entity.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE category = $1 AND is_default`, string(category)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default account: %w", err)
	}
	return a, nil
}

// List lista cuentas por nombre.
func (r *AccountRepo) List(ctx context.Context, f repository.AccountFilter) ([]*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	var args []any
	pos := 1
	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", pos)
		args = append(args, string(f.Category))
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de la cuenta.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if !validID(id) {
		return fmt.Errorf("cuenta %s: %w", id, domain.ErrNotFound)
	}
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cuenta %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// limitOrAll LIMIT NULL = sin límite.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
