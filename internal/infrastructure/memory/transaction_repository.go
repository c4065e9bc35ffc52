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

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación en memoria del libro de transferencias.
type TransactionRepo struct {
	v view
}

func (r *TransactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	return r.v.write(func(d *dataset) error {
		if _, ok := d.transactions[tx.ID]; ok {
			return fmt.Errorf("transacción %s: %w", tx.ID, domain.ErrDuplicate)
		}
		d.transactions[tx.ID] = tx.Clone()
		d.stamp(tx.ID)
		return nil
	})
}

func (r *TransactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	var out *entity.Transaction
	r.v.read(func(d *dataset) {
		if t, ok := d.transactions[id]; ok {
			c := t.Clone()
			out = &c
		}
	})
	return out, nil
}

func (r *TransactionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *TransactionRepo) ReplaceLines(_ context.Context, id string, transfers []entity.Transfer, allocations []entity.BatchAllocation) error {
	return r.v.write(func(d *dataset) error {
		t, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
		}
		if t.Status != entity.TransactionStatusDraft {
			return domain.ErrImmutableTransaction
		}
		t.Transfers = transfers
		t.Allocations = allocations
		d.transactions[id] = t.Clone()
		return nil
	})
}

func (r *TransactionRepo) MarkPosted(_ context.Context, id string, postedAt time.Time) error {
	return r.setStatus(id, entity.TransactionStatusPosted, &postedAt)
}

func (r *TransactionRepo) MarkVoid(_ context.Context, id string) error {
	return r.setStatus(id, entity.TransactionStatusVoid, nil)
}

func (r *TransactionRepo) setStatus(id, status string, postedAt *time.Time) error {
	return r.v.write(func(d *dataset) error {
		t, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
		}
		if t.Status != entity.TransactionStatusDraft {
			return domain.ErrImmutableTransaction
		}
		t.Status = status
		t.PostedAt = postedAt
		d.transactions[id] = t
		return nil
	})
}

// List más recientes primero: fecha, creación e inserción descendentes.
func (r *TransactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var list []*entity.Transaction
	seq := make(map[string]int64)
	r.v.read(func(d *dataset) {
		for id, t := range d.transactions {
			if f.Type != "" && t.Type != f.Type {
				continue
			}
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			c := t.Clone()
			list = append(list, &c)
			seq[id] = d.seq[id]
		}
	})
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return seq[a.ID] > seq[b.ID]
	})
	return page(list, f.Limit, f.Offset), nil
}

// ListDrawsByBatch orden cronológico: fecha, contabilización, inserción y posición.
func (r *TransactionRepo) ListDrawsByBatch(_ context.Context, batchID string) ([]entity.BatchDraw, error) {
	var draws []entity.BatchDraw
	seq := make(map[string]int64)
	r.v.read(func(d *dataset) {
		for id, t := range d.transactions {
			if t.Status != entity.TransactionStatusPosted {
				continue
			}
			header := t.Clone()
			header.Transfers, header.Allocations = nil, nil
			for _, tr := range t.Transfers {
				if tr.Source.IsBatch() && tr.Source.BatchID == batchID {
					draws = append(draws, entity.BatchDraw{Transfer: tr, Transaction: header})
				}
			}
			seq[id] = d.seq[id]
		}
	})
	sort.SliceStable(draws, func(i, j int) bool {
		a, b := draws[i].Transaction, draws[j].Transaction
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.PostedAt != nil && b.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt) {
			return a.PostedAt.Before(*b.PostedAt)
		}
		if seq[a.ID] != seq[b.ID] {
			return seq[a.ID] < seq[b.ID]
		}
		return draws[i].Transfer.Position < draws[j].Transfer.Position
	})
	return draws, nil
}
