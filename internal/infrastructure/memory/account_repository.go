package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo implementación en memoria de AccountRepository.
type AccountRepo struct {
	v view
}

// Create persiste la cuenta; a lo sumo una por defecto por categoría.
func (r *AccountRepo) Create(_ context.Context, account *entity.Account) error {
	return r.v.write(func(d *dataset) error {
		if _, ok := d.accounts[account.ID]; ok {
			return fmt.Errorf("cuenta %s: %w", account.ID, domain.ErrDuplicate)
		}
		if account.IsDefault {
			for _, a := range d.accounts {
				if a.IsDefault && a.Category == account.Category {
					return domain.ErrDuplicateDefault
				}
			}
		}
		d.accounts[account.ID] = *account
		d.stamp(account.ID)
		return nil
	})
}

// GetByID obtiene una cuenta; nil si no existe.
func (r *AccountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	var out *entity.Account
	r.v.read(func(d *dataset) {
		if a, ok := d.accounts[id]; ok {
			out = &a
		}
	})
	return out, nil
}

// GetDefault obtiene la cuenta por defecto de la categoría; nil si no hay.
func (r *AccountRepo) GetDefault(_ context.Context, category entity.AccountCategory) (*entity.Account, error) {
	var out *entity.Account
	r.v.read(func(d *dataset) {
		for _, a := range d.accounts {
			if a.IsDefault && a.Category == category {
				a := a
				out = &a
				return
			}
		}
	})
	return out, nil
}

// List lista cuentas ordenadas por nombre.
func (r *AccountRepo) List(_ context.Context, f repository.AccountFilter) ([]*entity.Account, error) {
	var list []*entity.Account
	r.v.read(func(d *dataset) {
		for _, a := range d.accounts {
			if f.Category != "" && a.Category != f.Category {
				continue
			}
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			a := a
			list = append(list, &a)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}

// UpdateStatus cambia el estado de la cuenta.
func (r *AccountRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.v.write(func(d *dataset) error {
		a, ok := d.accounts[id]
		if !ok {
			return fmt.Errorf("cuenta %s: %w", id, domain.ErrNotFound)
		}
		a.Status = status
		a.UpdatedAt = time.Now().UTC()
		d.accounts[id] = a
		return nil
	})
}
