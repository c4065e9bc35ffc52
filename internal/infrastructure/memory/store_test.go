package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

func seedBatch(t *testing.T, s *Store, id string, qty int64) {
	t.Helper()
	require.NoError(t, s.Batches().Create(context.Background(), &entity.Batch{
		ID:              id,
		MaterialID:      "mat-1",
		AccountID:       "acc-1",
		Quantity:        decimal.NewFromInt(qty),
		InitialQuantity: decimal.NewFromInt(qty),
		Unit:            "kg",
		Status:          entity.BatchStatusActive,
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_ErrorNoPublicaCambios(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s, "b1", 100)

	boom := errors.New("boom")
	err := NewTxRunner(s).Run(ctx, func(_ repository.TransactionRepository, batches repository.BatchRepository) error {
		require.NoError(t, batches.UpdateQuantity(ctx, "b1", decimal.NewFromInt(10), entity.BatchStatusActive, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.Batches().GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(100)), "la cantidad no debe cambiar tras rollback")
	assert.EqualValues(t, 1, b.Version)
}

func TestTxRunner_ExitoPublica(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s, "b1", 100)

	err := NewTxRunner(s).Run(ctx, func(_ repository.TransactionRepository, batches repository.BatchRepository) error {
		return batches.UpdateQuantity(ctx, "b1", decimal.Zero, entity.BatchStatusDepleted, 1)
	})
	require.NoError(t, err)

	b, _ := s.Batches().GetByID(ctx, "b1")
	assert.Equal(t, entity.BatchStatusDepleted, b.Status)
	assert.EqualValues(t, 2, b.Version)
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTxRunner(NewStore()).Run(ctx, func(repository.TransactionRepository, repository.BatchRepository) error {
		t.Fatal("no debe ejecutarse")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchRepo_UpdateQuantity_VersionDistinta(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s, "b1", 100)

	err := s.Batches().UpdateQuantity(ctx, "b1", decimal.NewFromInt(50), entity.BatchStatusActive, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	err = s.Batches().UpdateQuantity(ctx, "nope", decimal.Zero, entity.BatchStatusActive, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBatchRepo_GetManyRespetaOrden(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s, "b1", 1)
	seedBatch(t, s, "b2", 2)

	list, err := s.Batches().GetMany(ctx, []string{"b2", "missing", "b1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)
	assert.Equal(t, "b1", list[1].ID)
}

func TestBatchRepo_ExpireDue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for id, exp := range map[string]time.Time{"old": past, "new": future} {
		exp := exp
		require.NoError(t, s.Batches().Create(ctx, &entity.Batch{
			ID: id, MaterialID: "mat-1", AccountID: "acc-1",
			Quantity: decimal.NewFromInt(5), Status: entity.BatchStatusActive, ExpirationDate: &exp,
		}))
	}

	n, err := s.Batches().ExpireDue(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	old, _ := s.Batches().GetByID(ctx, "old")
	assert.Equal(t, entity.BatchStatusExpired, old.Status)
	active, _ := s.Batches().ListActiveByMaterial(ctx, "mat-1")
	require.Len(t, active, 1)
	assert.Equal(t, "new", active[0].ID)
}

func TestAccountRepo_UnaPorDefectoPorCategoria(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Accounts().Create(ctx, &entity.Account{ID: "a1", Name: "Bodega", Category: entity.AccountCategoryStock, IsDefault: true, Status: entity.AccountStatusActive}))

	err := s.Accounts().Create(ctx, &entity.Account{ID: "a2", Name: "Otra", Category: entity.AccountCategoryStock, IsDefault: true, Status: entity.AccountStatusActive})
	assert.ErrorIs(t, err, domain.ErrDuplicateDefault)

	require.NoError(t, s.Accounts().Create(ctx, &entity.Account{ID: "a3", Name: "Proveedor", Category: entity.AccountCategoryInput, IsDefault: true, Status: entity.AccountStatusActive}))
	def, err := s.Accounts().GetDefault(ctx, entity.AccountCategoryStock)
	require.NoError(t, err)
	assert.Equal(t, "a1", def.ID)
}

func TestTransactionRepo_PosteadaEsInmutable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Transactions()
	require.NoError(t, repo.Create(ctx, &entity.Transaction{
		ID: "t1", Date: time.Now().UTC(), Type: entity.TransactionTypeTransfer, Status: entity.TransactionStatusDraft,
	}))
	require.NoError(t, repo.MarkPosted(ctx, "t1", time.Now().UTC()))

	assert.ErrorIs(t, repo.MarkVoid(ctx, "t1"), domain.ErrImmutableTransaction)
	assert.ErrorIs(t, repo.ReplaceLines(ctx, "t1", nil, nil), domain.ErrImmutableTransaction)
}

func TestTransactionRepo_DrawsSoloPosteadas(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Transactions()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"draft", "posted"} {
		require.NoError(t, repo.Create(ctx, &entity.Transaction{
			ID: id, Date: day, Type: entity.TransactionTypeTransfer, Status: entity.TransactionStatusDraft,
		}))
		require.NoError(t, repo.ReplaceLines(ctx, id, []entity.Transfer{{
			ID: id + "-l0", TransactionID: id, SourceAccountID: "acc-1", DestinationAccountID: "acc-2",
			MaterialID: "mat-1", Amount: decimal.NewFromInt(3), Unit: "kg", Source: entity.BatchSource("b1"),
		}}, nil))
	}
	require.NoError(t, repo.MarkPosted(ctx, "posted", day))

	draws, err := repo.ListDrawsByBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, "posted", draws[0].Transaction.ID)
	assert.Equal(t, "posted-l0", draws[0].Transfer.ID)
}
