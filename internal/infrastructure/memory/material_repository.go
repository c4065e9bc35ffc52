package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo implementación en memoria del catálogo.
type MaterialRepo struct {
	v view
}

func (r *MaterialRepo) CreateCategory(_ context.Context, c *entity.MaterialCategory) error {
	return r.v.write(func(d *dataset) error {
		if _, ok := d.categories[c.ID]; ok {
			return fmt.Errorf("categoría %s: %w", c.ID, domain.ErrDuplicate)
		}
		d.categories[c.ID] = *c
		d.stamp(c.ID)
		return nil
	})
}

func (r *MaterialRepo) GetCategory(_ context.Context, id string) (*entity.MaterialCategory, error) {
	var out *entity.MaterialCategory
	r.v.read(func(d *dataset) {
		if c, ok := d.categories[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (r *MaterialRepo) ListCategories(_ context.Context) ([]*entity.MaterialCategory, error) {
	var list []*entity.MaterialCategory
	r.v.read(func(d *dataset) {
		for _, c := range d.categories {
			c := c
			list = append(list, &c)
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *MaterialRepo) Create(_ context.Context, m *entity.Material) error {
	return r.v.write(func(d *dataset) error {
		if _, ok := d.materials[m.ID]; ok {
			return fmt.Errorf("material %s: %w", m.ID, domain.ErrDuplicate)
		}
		d.materials[m.ID] = *m
		d.stamp(m.ID)
		return nil
	})
}

func (r *MaterialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	r.v.read(func(d *dataset) {
		if m, ok := d.materials[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (r *MaterialRepo) List(_ context.Context, f repository.MaterialFilter) ([]*entity.Material, error) {
	var list []*entity.Material
	r.v.read(func(d *dataset) {
		for _, m := range d.materials {
			if f.CategoryID != "" && m.CategoryID != f.CategoryID {
				continue
			}
			m := m
			list = append(list, &m)
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

func (r *MaterialRepo) ListBelowReorderPoint(_ context.Context) ([]repository.LowStockItem, error) {
	var items []repository.LowStockItem
	r.v.read(func(d *dataset) {
		totals := make(map[string]decimal.Decimal)
		for _, b := range d.batches {
			if b.Status == entity.BatchStatusActive {
				totals[b.MaterialID] = totals[b.MaterialID].Add(b.Quantity)
			}
		}
		for _, m := range d.materials {
			if m.ReorderPoint == nil {
				continue
			}
			total := totals[m.ID]
			if total.LessThan(*m.ReorderPoint) {
				items = append(items, repository.LowStockItem{
					MaterialID:    m.ID,
					MaterialName:  m.Name,
					CategoryID:    m.CategoryID,
					UnitOfMeasure: m.UnitOfMeasure,
					ReorderPoint:  *m.ReorderPoint,
					CurrentTotal:  total,
				})
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].MaterialName < items[j].MaterialName })
	return items, nil
}
