package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación en memoria del almacén de lotes.
type BatchRepo struct {
	v view
}

func (r *BatchRepo) Create(_ context.Context, b *entity.Batch) error {
	return r.v.write(func(d *dataset) error {
		if _, ok := d.batches[b.ID]; ok {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrDuplicate)
		}
		if b.Version == 0 {
			b.Version = 1
		}
		d.batches[b.ID] = b.Clone()
		d.stamp(b.ID)
		return nil
	})
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	r.v.read(func(d *dataset) {
		if b, ok := d.batches[id]; ok {
			c := b.Clone()
			out = &c
		}
	})
	return out, nil
}

// GetForUpdate en memoria el runner ya tiene el lock de escritura.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

// GetMany devuelve los lotes existentes en el orden pedido.
func (r *BatchRepo) GetMany(_ context.Context, ids []string) ([]*entity.Batch, error) {
	var list []*entity.Batch
	r.v.read(func(d *dataset) {
		for _, id := range ids {
			if b, ok := d.batches[id]; ok {
				c := b.Clone()
				list = append(list, &c)
			}
		}
	})
	return list, nil
}

func (r *BatchRepo) UpdateQuantity(_ context.Context, id string, quantity decimal.Decimal, status string, expectedVersion int64) error {
	return r.v.write(func(d *dataset) error {
		b, ok := d.batches[id]
		if !ok {
			return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
		}
		if b.Version != expectedVersion {
			return domain.ConflictError(fmt.Sprintf("lote %s: versión %d, se esperaba %d", id, b.Version, expectedVersion))
		}
		b.Quantity = quantity
		b.Status = status
		b.Version++
		b.UpdatedAt = time.Now().UTC()
		d.batches[id] = b
		return nil
	})
}

func (r *BatchRepo) List(_ context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	list := r.collect(func(b entity.Batch) bool {
		return (f.MaterialID == "" || b.MaterialID == f.MaterialID) &&
			(f.AccountID == "" || b.AccountID == f.AccountID) &&
			(f.Status == "" || b.Status == f.Status)
	})
	return page(list, f.Limit, f.Offset), nil
}

func (r *BatchRepo) ListActiveByMaterial(_ context.Context, materialID string) ([]*entity.Batch, error) {
	return r.collect(func(b entity.Batch) bool {
		return b.MaterialID == materialID && b.Status == entity.BatchStatusActive
	}), nil
}

func (r *BatchRepo) ListActiveByAccount(_ context.Context, accountID string) ([]*entity.Batch, error) {
	return r.collect(func(b entity.Batch) bool {
		return b.AccountID == accountID && b.Status == entity.BatchStatusActive
	}), nil
}

func (r *BatchRepo) ListByTransaction(_ context.Context, transactionID string) ([]*entity.Batch, error) {
	return r.collect(func(b entity.Batch) bool {
		return b.OriginatingTransactionID != nil && *b.OriginatingTransactionID == transactionID
	}), nil
}

func (r *BatchRepo) ExpireDue(_ context.Context, asOf time.Time) (int, error) {
	n := 0
	err := r.v.write(func(d *dataset) error {
		now := time.Now().UTC()
		for id, b := range d.batches {
			if b.Status != entity.BatchStatusActive || b.ExpirationDate == nil || !b.ExpirationDate.Before(asOf) {
				continue
			}
			b.Status = entity.BatchStatusExpired
			b.Version++
			b.UpdatedAt = now
			d.batches[id] = b
			n++
		}
		return nil
	})
	return n, err
}

// collect filtra y ordena por orden de creación.
func (r *BatchRepo) collect(keep func(entity.Batch) bool) []*entity.Batch {
	var list []*entity.Batch
	var seq map[string]int64
	r.v.read(func(d *dataset) {
		seq = make(map[string]int64, len(d.batches))
		for id, b := range d.batches {
			if !keep(b) {
				continue
			}
			c := b.Clone()
			list = append(list, &c)
			seq[id] = d.seq[id]
		}
	})
	sort.Slice(list, func(i, j int) bool { return seq[list[i].ID] < seq[list[j].ID] })
	return list
}
