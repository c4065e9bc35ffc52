package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// dataset estado completo del almacén. seq da un orden de inserción estable.
type dataset struct {
	accounts     map[string]entity.Account
	categories   map[string]entity.MaterialCategory
	materials    map[string]entity.Material
	batches      map[string]entity.Batch
	transactions map[string]entity.Transaction
	seq          map[string]int64
	next         int64
}

func newDataset() *dataset {
	return &dataset{
		accounts:     make(map[string]entity.Account),
		categories:   make(map[string]entity.MaterialCategory),
		materials:    make(map[string]entity.Material),
		batches:      make(map[string]entity.Batch),
		transactions: make(map[string]entity.Transaction),
		seq:          make(map[string]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.materials {
		c.materials[k] = v
	}
	for k, v := range d.batches {
		c.batches[k] = v.Clone()
	}
	for k, v := range d.transactions {
		c.transactions[k] = v.Clone()
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	c.next = d.next
	return c
}

func (d *dataset) stamp(id string) {
	if _, ok := d.seq[id]; ok {
		return
	}
	d.next++
	d.seq[id] = d.next
}

// Store almacén en memoria con un único escritor. Las lecturas ven el estado anterior o el
// posterior a cada transacción, nunca uno intermedio.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// view abstrae el bloqueo: fuera de una tx se toma el lock del Store; dentro, el runner ya lo tiene.
type view interface {
	read(fn func(d *dataset))
	write(fn func(d *dataset) error) error
}

type storeView struct{ s *Store }

func (v storeView) read(fn func(d *dataset)) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(v.s.data)
}

func (v storeView) write(fn func(d *dataset) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

type txView struct{ d *dataset }

func (v txView) read(fn func(d *dataset))              { fn(v.d) }
func (v txView) write(fn func(d *dataset) error) error { return fn(v.d) }

// Accounts repositorio de cuentas fuera de transacción.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{v: storeView{s}} }

// Materials repositorio del catálogo fuera de transacción.
func (s *Store) Materials() *MaterialRepo { return &MaterialRepo{v: storeView{s}} }

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{v: storeView{s}} }

// Transactions repositorio de transacciones fuera de transacción.
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{v: storeView{s}} }

// TxRunner aplica la función sobre una copia de trabajo y la publica solo si no hay error.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a la copia de trabajo; Commit = publicar la copia.
func (r *TxRunner) Run(ctx context.Context, fn func(
	txRepo repository.TransactionRepository,
	batchRepo repository.BatchRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	work := r.s.data.clone()
	v := txView{d: work}
	if err := fn(&TransactionRepo{v: v}, &BatchRepo{v: v}); err != nil {
		return err
	}
	r.s.data = work
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
