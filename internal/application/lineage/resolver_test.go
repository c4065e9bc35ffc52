package lineage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenario: compra de 100 en A (B1), transferencia de 40 a C (B2), elaboración en C (B3).
// ──────────────────────────────────────────────────────────────────────────────

const (
	matFlour = "mat-flour"
	matBread = "mat-bread"
	accA     = "acc-a"
	accC     = "acc-c"
)

type scenario struct {
	store    *memory.Store
	engine   *ledger.Engine
	resolver *lineage.Resolver
	b1, b2   string
	t2       string
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newScenario(t *testing.T, c lineage.Cache, inv ledger.CacheInvalidator) *scenario {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Materials().CreateCategory(ctx, &entity.MaterialCategory{ID: "cat-1", Name: "Panadería"}))
	require.NoError(t, s.Materials().Create(ctx, &entity.Material{ID: matFlour, Name: "Harina", CategoryID: "cat-1", UnitOfMeasure: "kg"}))
	require.NoError(t, s.Materials().Create(ctx, &entity.Material{ID: matBread, Name: "Pan", CategoryID: "cat-1", UnitOfMeasure: "kg"}))
	for _, a := range []entity.Account{
		{ID: accC, Name: "Cuarto C", Category: entity.AccountCategoryStock, Status: entity.AccountStatusActive},
		{ID: accA, Name: "Almacén A", Category: entity.AccountCategoryStock, Status: entity.AccountStatusActive},
	} {
		a := a
		require.NoError(t, s.Accounts().Create(ctx, &a))
	}

	opts := []ledger.Option{}
	if inv != nil {
		opts = append(opts, ledger.WithCache(inv))
	}
	sc := &scenario{
		store:    s,
		engine:   ledger.NewEngine(memory.NewTxRunner(s), s.Accounts(), s.Materials(), s.Batches(), s.Transactions(), opts...),
		resolver: lineage.NewResolver(s.Accounts(), s.Materials(), s.Batches(), s.Transactions(), c),
	}

	p, err := sc.engine.PostTransaction(ctx, ledger.PostRequest{
		Date: "2025-03-01", TransactionType: "purchase",
		Allocations: []ledger.AllocationInput{{MaterialID: matFlour, AccountID: accA, Quantity: d(100), LotNumber: "L-001"}},
	})
	require.NoError(t, err)
	sc.b1 = p.CreatedBatches[0].ID

	tr, err := sc.engine.PostTransaction(ctx, ledger.PostRequest{
		Date: "2025-03-02", TransactionType: "transfer", ReferenceID: "T2",
		Transfers: []ledger.TransferInput{{
			SourceAccountID: accA, DestinationAccountID: accC, MaterialID: matFlour,
			Amount: d(40), Source: entity.BatchSource(sc.b1),
		}},
		Allocations: []ledger.AllocationInput{{MaterialID: matFlour, Quantity: d(40), LotNumber: "L-002"}},
	})
	require.NoError(t, err)
	sc.t2 = tr.ID
	sc.b2 = tr.CreatedBatches[0].ID
	return sc
}

func (sc *scenario) bake(t *testing.T) string {
	t.Helper()
	out, err := sc.engine.PostTransaction(context.Background(), ledger.PostRequest{
		Date: "2025-03-03", TransactionType: "production",
		Transfers: []ledger.TransferInput{{
			SourceAccountID: accC, DestinationAccountID: accC, MaterialID: matFlour,
			Amount: d(10), Source: entity.BatchSource(sc.b2),
		}},
		Allocations: []ledger.AllocationInput{{MaterialID: matBread, AccountID: accC, Quantity: d(14)}},
	})
	require.NoError(t, err)
	return out.CreatedBatches[0].ID
}

// ──────────────────────────────────────────────────────────────────────────────
// Genealogía
// ──────────────────────────────────────────────────────────────────────────────

func TestResolveLineage_UnSalto(t *testing.T) {
	sc := newScenario(t, nil, nil)

	view, err := sc.resolver.ResolveLineage(context.Background(), sc.b2, 1)
	require.NoError(t, err)
	require.NotNil(t, view.SourceTransaction)
	assert.Equal(t, sc.t2, view.SourceTransaction.ID)
	assert.Equal(t, "transfer", view.SourceTransaction.Type)
	require.Len(t, view.InputBatches, 1)
	in := view.InputBatches[0]
	assert.Equal(t, sc.b1, in.BatchID)
	assert.True(t, in.QuantityUsed.Equal(d(40)))
	assert.Equal(t, "Almacén A", in.AccountName)
	assert.Nil(t, in.Lineage)
	assert.Equal(t, sc.b2, view.OutputBatch.ID)
}

func TestResolveLineage_LoteRaiz(t *testing.T) {
	sc := newScenario(t, nil, nil)

	view, err := sc.resolver.ResolveLineage(context.Background(), sc.b1, 3)
	require.NoError(t, err)
	require.NotNil(t, view.SourceTransaction)
	assert.Equal(t, "purchase", view.SourceTransaction.Type)
	assert.Empty(t, view.InputBatches)
}

func TestResolveLineage_Profundidad(t *testing.T) {
	sc := newScenario(t, nil, nil)
	bread := sc.bake(t)

	view, err := sc.resolver.ResolveLineage(context.Background(), bread, 3)
	require.NoError(t, err)
	require.Len(t, view.InputBatches, 1)
	hop1 := view.InputBatches[0]
	assert.Equal(t, sc.b2, hop1.BatchID)
	require.NotNil(t, hop1.Lineage)
	require.Len(t, hop1.Lineage.InputBatches, 1)
	hop2 := hop1.Lineage.InputBatches[0]
	assert.Equal(t, sc.b1, hop2.BatchID)
	require.NotNil(t, hop2.Lineage, "depth 3 llega al lote raíz")
	assert.Empty(t, hop2.Lineage.InputBatches)
}

func TestResolveLineage_VariosLotesDeOrigen(t *testing.T) {
	sc := newScenario(t, nil, nil)
	ctx := context.Background()

	p, err := sc.engine.PostTransaction(ctx, ledger.PostRequest{
		Date: "2025-03-02", TransactionType: "purchase",
		Allocations: []ledger.AllocationInput{{MaterialID: matFlour, AccountID: accC, Quantity: d(20), LotNumber: "L-003"}},
	})
	require.NoError(t, err)
	b4 := p.CreatedBatches[0].ID

	out, err := sc.engine.PostTransaction(ctx, ledger.PostRequest{
		Date: "2025-03-03", TransactionType: "production",
		Transfers: []ledger.TransferInput{
			{SourceAccountID: accC, DestinationAccountID: accC, MaterialID: matFlour, Amount: d(10), Source: entity.BatchSource(sc.b2)},
			{SourceAccountID: accC, DestinationAccountID: accC, MaterialID: matFlour, Amount: d(5), Source: entity.BatchSource(b4)},
			{SourceAccountID: accC, DestinationAccountID: accC, MaterialID: matFlour, Amount: d(2), Source: entity.BatchSource(sc.b2)},
		},
		Allocations: []ledger.AllocationInput{{MaterialID: matBread, AccountID: accC, Quantity: d(20)}},
	})
	require.NoError(t, err)
	bread := out.CreatedBatches[0].ID

	view, err := sc.resolver.ResolveLineage(ctx, bread, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{sc.b2, b4}, view.OutputBatch.SourceBatchIDs, "sin repetir, en orden de aparición")
	require.Len(t, view.InputBatches, 2)
	assert.Equal(t, sc.b2, view.InputBatches[0].BatchID)
	assert.True(t, view.InputBatches[0].QuantityUsed.Equal(d(12)), "suma las dos transferencias del mismo lote")
	assert.Equal(t, b4, view.InputBatches[1].BatchID)
	assert.True(t, view.InputBatches[1].QuantityUsed.Equal(d(5)))
	assert.Equal(t, "L-003", view.InputBatches[1].LotNumber)
}

func TestResolver_LecturasSinCacheSonIdempotentes(t *testing.T) {
	sc := newScenario(t, nil, nil)
	bread := sc.bake(t)
	ctx := context.Background()

	l1, err := sc.resolver.ResolveLineage(ctx, bread, 3)
	require.NoError(t, err)
	l2, err := sc.resolver.ResolveLineage(ctx, bread, 3)
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	d1, err := sc.resolver.ResolveDistribution(ctx, matFlour)
	require.NoError(t, err)
	d2, err := sc.resolver.ResolveDistribution(ctx, matFlour)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	u1, err := sc.resolver.ResolveUsageHistory(ctx, sc.b2, "desc")
	require.NoError(t, err)
	u2, err := sc.resolver.ResolveUsageHistory(ctx, sc.b2, "desc")
	require.NoError(t, err)
	assert.Equal(t, u1, u2)

	a1, err := sc.resolver.AccountMaterials(ctx, accC)
	require.NoError(t, err)
	a2, err := sc.resolver.AccountMaterials(ctx, accC)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestResolveLineage_NoExiste(t *testing.T) {
	sc := newScenario(t, nil, nil)
	_, err := sc.resolver.ResolveLineage(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Distribución y uso
// ──────────────────────────────────────────────────────────────────────────────

func TestResolveDistribution(t *testing.T) {
	sc := newScenario(t, nil, nil)

	dist, err := sc.resolver.ResolveDistribution(context.Background(), matFlour)
	require.NoError(t, err)
	assert.True(t, dist.TotalQuantity.Equal(d(100)))
	require.Len(t, dist.Accounts, 2)
	assert.Equal(t, accA, dist.Accounts[0].AccountID, "ordenado por nombre de cuenta")
	assert.True(t, dist.Accounts[0].TotalQuantity.Equal(d(60)))
	assert.Equal(t, 1, dist.Accounts[0].BatchCount)
	assert.Equal(t, accC, dist.Accounts[1].AccountID)
	assert.True(t, dist.Accounts[1].TotalQuantity.Equal(d(40)))
	assert.Equal(t, 1, dist.Accounts[1].BatchCount)
}

func TestResolveUsageHistory(t *testing.T) {
	sc := newScenario(t, nil, nil)
	ctx := context.Background()

	asc, err := sc.resolver.ResolveUsageHistory(ctx, sc.b1, "")
	require.NoError(t, err)
	assert.Equal(t, lineage.OrderAsc, asc.Order)
	require.Len(t, asc.Entries, 2)
	assert.Equal(t, "in", asc.Entries[0].Direction)
	assert.True(t, asc.Entries[0].Amount.Equal(d(100)))
	out := asc.Entries[1]
	assert.Equal(t, "out", out.Direction)
	assert.Equal(t, sc.t2, out.Transaction.ID)
	assert.True(t, out.Amount.Equal(d(40)))
	assert.Equal(t, accC, out.CounterpartID)
	assert.Equal(t, []string{sc.b2}, out.CreatedBatches)

	desc, err := sc.resolver.ResolveUsageHistory(ctx, sc.b1, "DESC")
	require.NoError(t, err)
	assert.Equal(t, "out", desc.Entries[0].Direction)

	_, err = sc.resolver.ResolveUsageHistory(ctx, sc.b1, "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAccountMaterials(t *testing.T) {
	sc := newScenario(t, nil, nil)
	sc.bake(t)

	detail, err := sc.resolver.AccountMaterials(context.Background(), accC)
	require.NoError(t, err)
	assert.Equal(t, "Cuarto C", detail.Account.Name)
	require.Len(t, detail.Materials, 2)
	assert.Equal(t, "Harina", detail.Materials[0].MaterialName)
	assert.True(t, detail.Materials[0].TotalQuantity.Equal(d(30)))
	assert.Equal(t, "Pan", detail.Materials[1].MaterialName)
	assert.Equal(t, "Panadería", detail.Materials[1].CategoryName)
}

func TestListBatches_Filtro(t *testing.T) {
	sc := newScenario(t, nil, nil)

	list, err := sc.resolver.ListBatches(context.Background(), repository.BatchFilter{AccountID: accC})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, sc.b2, list.Items[0].ID)
	assert.Equal(t, "Harina", list.Items[0].MaterialName)

	b, err := sc.resolver.GetBatch(context.Background(), sc.b1)
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(d(60)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Caché versionada
// ──────────────────────────────────────────────────────────────────────────────

func TestResolveDistribution_CacheSeInvalidaAlContabilizar(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewCache(client, time.Minute, zerolog.Nop())
	sc := newScenario(t, c, c)
	ctx := context.Background()

	first, err := sc.resolver.ResolveDistribution(ctx, matFlour)
	require.NoError(t, err)
	assert.True(t, first.Accounts[0].TotalQuantity.Equal(d(60)))

	sc.bake(t)

	second, err := sc.resolver.ResolveDistribution(ctx, matFlour)
	require.NoError(t, err)
	assert.True(t, second.TotalQuantity.Equal(d(90)), "la contabilización invalida la vista cacheada")
}
