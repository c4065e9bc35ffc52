package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, name, category_id, unit_of_measure, reorder_point, description, created_at, updated_at`

// MaterialRepo catálogo de materiales y categorías sobre PostgreSQL.
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador del catálogo.
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	var reorder decimal.NullDecimal
	if err := row.Scan(&m.ID, &m.Name, &m.CategoryID, &m.UnitOfMeasure, &reorder, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if reorder.Valid {
		m.ReorderPoint = &reorder.Decimal
	}
	return &m, nil
}

// CreateCategory persiste una categoría.
func (r *MaterialRepo) CreateCategory(ctx context.Context, c *entity.MaterialCategory) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO material_categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("categoría %s: %w", c.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create material category: %w", err)
	}
	return nil
}

// GetCategory obtiene una categoría; nil si no existe.
func (r *MaterialRepo) GetCategory(ctx context.Context, id string) (*entity.MaterialCategory, error) {
	if !validID(id) {
		return nil, nil
	}
	var c entity.MaterialCategory
	err := r.q.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM material_categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material category: %w", err)
	}
	return &c, nil
}

// ListCategories lista las categorías por nombre.
func (r *MaterialRepo) ListCategories(ctx context.Context) ([]*entity.MaterialCategory, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description, created_at FROM material_categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list material categories: %w", err)
	}
	defer rows.Close()
	var list []*entity.MaterialCategory
	for rows.Next() {
		var c entity.MaterialCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material category: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Create persiste un material.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var reorder decimal.NullDecimal
	if m.ReorderPoint != nil {
		reorder = decimal.NewNullDecimal(*m.ReorderPoint)
	}
	_, err := r.q.Exec(ctx, query, m.ID, m.Name, m.CategoryID, m.UnitOfMeasure, reorder, m.Description, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("categoría %s: %w", m.CategoryID, domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("material %s: %w", m.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// GetByID obtiene un material; nil si no existe.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	if !validID(id) {
		return nil, nil
	}
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// List lista materiales por nombre, opcionalmente de una categoría.
func (r *MaterialRepo) List(ctx context.Context, f repository.MaterialFilter) ([]*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE 1=1`
	var args []any
	pos := 1
	if f.CategoryID != "" {
		if !validID(f.CategoryID) {
			return nil, nil
		}
		query += fmt.Sprintf(" AND category_id = $%d", pos)
		args = append(args, f.CategoryID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var list []*entity.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListBelowReorderPoint materiales cuyo total activo está por debajo del punto de reorden.
func (r *MaterialRepo) ListBelowReorderPoint(ctx context.Context) ([]repository.LowStockItem, error) {
	query := `
		SELECT m.id, m.name, m.category_id, m.unit_of_measure, m.reorder_point,
		       COALESCE(SUM(b.quantity), 0) AS current_total
		FROM materials m
		LEFT JOIN batches b ON b.material_id = m.id AND b.status = 'active'
		WHERE m.reorder_point IS NOT NULL
		GROUP BY m.id
		HAVING COALESCE(SUM(b.quantity), 0) < m.reorder_point
		ORDER BY m.name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	defer rows.Close()
	var items []repository.LowStockItem
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(&it.MaterialID, &it.MaterialName, &it.CategoryID, &it.UnitOfMeasure, &it.ReorderPoint, &it.CurrentTotal); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
