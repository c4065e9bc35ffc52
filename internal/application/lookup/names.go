package lookup

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// Names memoiza cuentas, materiales y categorías leídos durante una misma petición.
// No es seguro para uso concurrente; crear uno por operación.
type Names struct {
	accounts   repository.AccountRepository
	materials  repository.MaterialRepository
	acc        map[string]*entity.Account
	mat        map[string]*entity.Material
	categories map[string]*entity.MaterialCategory
}

// New construye el memo sobre los repositorios dados.
func New(accounts repository.AccountRepository, materials repository.MaterialRepository) *Names {
	return &Names{
		accounts:   accounts,
		materials:  materials,
		acc:        make(map[string]*entity.Account),
		mat:        make(map[string]*entity.Material),
		categories: make(map[string]*entity.MaterialCategory),
	}
}

// Account devuelve la cuenta o nil si no existe.
func (n *Names) Account(ctx context.Context, id string) (*entity.Account, error) {
	if a, ok := n.acc[id]; ok {
		return a, nil
	}
	a, err := n.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n.acc[id] = a
	return a, nil
}

// Material devuelve el material o nil si no existe.
func (n *Names) Material(ctx context.Context, id string) (*entity.Material, error) {
	if m, ok := n.mat[id]; ok {
		return m, nil
	}
	m, err := n.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n.mat[id] = m
	return m, nil
}

// Category devuelve la categoría o nil si no existe.
func (n *Names) Category(ctx context.Context, id string) (*entity.MaterialCategory, error) {
	if c, ok := n.categories[id]; ok {
		return c, nil
	}
	c, err := n.materials.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	n.categories[id] = c
	return c, nil
}

// AccountName nombre de la cuenta; vacío si no existe o falla la lectura.
func (n *Names) AccountName(ctx context.Context, id string) string {
	a, err := n.Account(ctx, id)
	if err != nil || a == nil {
		return ""
	}
	return a.Name
}

// MaterialName nombre del material; vacío si no existe o falla la lectura.
func (n *Names) MaterialName(ctx context.Context, id string) string {
	m, err := n.Material(ctx, id)
	if err != nil || m == nil {
		return ""
	}
	return m.Name
}
