package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// MaterialFilter filtros para listar materiales.
type MaterialFilter struct {
	CategoryID string
	Limit      int
	Offset     int
}

// LowStockItem material cuyo total activo está por debajo del punto de reorden.
type LowStockItem struct {
	MaterialID    string
	MaterialName  string
	CategoryID    string
	UnitOfMeasure string
	ReorderPoint  decimal.Decimal
	CurrentTotal  decimal.Decimal
}

// MaterialRepository define el puerto del catálogo de materiales y sus categorías.
type MaterialRepository interface {
	CreateCategory(ctx context.Context, category *entity.MaterialCategory) error
	GetCategory(ctx context.Context, id string) (*entity.MaterialCategory, error)
	ListCategories(ctx context.Context) ([]*entity.MaterialCategory, error)

	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	List(ctx context.Context, filter MaterialFilter) ([]*entity.Material, error)
	// ListBelowReorderPoint materiales con punto de reorden cuyo total de lotes activos es menor.
	ListBelowReorderPoint(ctx context.Context) ([]LowStockItem, error)
}
