package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// AccountFilter filtros para listar cuentas; los campos vacíos no filtran.
type AccountFilter struct {
	Category entity.AccountCategory
	Status   string
	Limit    int
	Offset   int
}

// AccountRepository define el puerto de persistencia del registro de cuentas.
// GetByID devuelve nil, nil cuando no existe.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetDefault(ctx context.Context, category entity.AccountCategory) (*entity.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*entity.Account, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
