package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	matFlour  = "mat-flour"
	accA      = "acc-a"
	accC      = "acc-c"
	accOut    = "acc-out"
	accClosed = "acc-closed"
	day       = "2025-03-10"
)

type fixture struct {
	store  *memory.Store
	engine *ledger.Engine
	bumps  int
}

func (f *fixture) Bump(context.Context) error { f.bumps++; return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Materials().CreateCategory(ctx, &entity.MaterialCategory{ID: "cat-1", Name: "Harinas"}))
	require.NoError(t, s.Materials().Create(ctx, &entity.Material{ID: matFlour, Name: "Harina", CategoryID: "cat-1", UnitOfMeasure: "kg"}))
	for _, a := range []entity.Account{
		{ID: accA, Name: "Almacén A", Category: entity.AccountCategoryStock},
		{ID: accC, Name: "Cuarto C", Category: entity.AccountCategoryStock},
		{ID: accOut, Name: "Consumo", Category: entity.AccountCategoryOutput},
		{ID: accClosed, Name: "Cerrada", Category: entity.AccountCategoryStock},
	} {
		a := a
		a.Status = entity.AccountStatusActive
		require.NoError(t, s.Accounts().Create(ctx, &a))
	}
	require.NoError(t, s.Accounts().UpdateStatus(ctx, accClosed, entity.AccountStatusArchived))

	f := &fixture{store: s}
	f.engine = ledger.NewEngine(memory.NewTxRunner(s), s.Accounts(), s.Materials(), s.Batches(), s.Transactions(), ledger.WithCache(f))
	return f
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// purchase registra una compra raíz y devuelve el id del lote creado.
func (f *fixture) purchase(t *testing.T, account string, qty int64) string {
	t.Helper()
	out, err := f.engine.PostTransaction(context.Background(), ledger.PostRequest{
		Date:            day,
		TransactionType: string(entity.TransactionTypePurchase),
		ReferenceID:     "OC-1",
		Allocations:     []ledger.AllocationInput{{MaterialID: matFlour, AccountID: account, Quantity: d(qty), LotNumber: "L-001"}},
	})
	require.NoError(t, err)
	require.Len(t, out.CreatedBatches, 1)
	return out.CreatedBatches[0].ID
}

func transferReq(batchID string, amount, allocated int64) ledger.PostRequest {
	return ledger.PostRequest{
		Date:            day,
		TransactionType: string(entity.TransactionTypeTransfer),
		Transfers: []ledger.TransferInput{{
			SourceAccountID: accA, DestinationAccountID: accC, MaterialID: matFlour,
			Amount: d(amount), Source: entity.BatchSource(batchID),
		}},
		Allocations: []ledger.AllocationInput{{MaterialID: matFlour, TransferIndex: domain.IntPtr(0), Quantity: d(allocated)}},
	}
}

func (f *fixture) batch(t *testing.T, id string) *entity.Batch {
	t.Helper()
	b, err := f.store.Batches().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func ledgerErr(t *testing.T, err error) *domain.LedgerError {
	t.Helper()
	var le *domain.LedgerError
	require.True(t, errors.As(err, &le), "se esperaba LedgerError, fue %v", err)
	return le
}

// ──────────────────────────────────────────────────────────────────────────────
// Contabilización
// ──────────────────────────────────────────────────────────────────────────────

func TestPostTransaction_CompraYTransferenciaCreanLotes(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	out, err := f.engine.PostTransaction(context.Background(), transferReq(b1, 40, 40))
	require.NoError(t, err)

	assert.Equal(t, entity.TransactionStatusPosted, out.Status)
	assert.True(t, out.Balance.Balanced)
	assert.Equal(t, "Balanced", out.Balance.Indicator)
	require.Len(t, out.CreatedBatches, 1)
	b2 := out.CreatedBatches[0]
	assert.Equal(t, accC, b2.AccountID, "la asignación hereda el destino de su transferencia")
	assert.True(t, b2.Quantity.Equal(d(40)))
	assert.Equal(t, []string{b1}, b2.SourceBatchIDs)
	require.NotNil(t, b2.OriginatingTransactionID)
	assert.Equal(t, out.ID, *b2.OriginatingTransactionID)

	src := f.batch(t, b1)
	assert.True(t, src.Quantity.Equal(d(60)))
	assert.Equal(t, entity.BatchStatusActive, src.Status)
	assert.Equal(t, 2, f.bumps, "cada contabilización invalida la caché")
}

func TestPostTransaction_CantidadInsuficienteNoModificaNada(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)
	_, err := f.engine.PostTransaction(context.Background(), transferReq(b1, 40, 40))
	require.NoError(t, err)
	before, _ := f.store.Transactions().List(context.Background(), repositoryAll())

	_, err = f.engine.PostTransaction(context.Background(), transferReq(b1, 70, 70))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	le := ledgerErr(t, err)
	require.Len(t, le.Fields, 1)
	fe := le.Fields[0]
	assert.Equal(t, "transfers[0].amount", fe.Field)
	require.NotNil(t, fe.Available)
	require.NotNil(t, fe.Requested)
	assert.True(t, fe.Available.Equal(d(60)))
	assert.True(t, fe.Requested.Equal(d(70)))

	assert.True(t, f.batch(t, b1).Quantity.Equal(d(60)), "el lote queda intacto")
	after, _ := f.store.Transactions().List(context.Background(), repositoryAll())
	assert.Len(t, after, len(before), "no se registra la transacción rechazada")
}

func TestPostTransaction_DescuentosAcumuladosDelMismoLote(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 50)
	req := transferReq(b1, 30, 30)
	req.Transfers = append(req.Transfers, req.Transfers[0])
	req.Allocations = append(req.Allocations, ledger.AllocationInput{MaterialID: matFlour, TransferIndex: domain.IntPtr(1), Quantity: d(30)})

	_, err := f.engine.PostTransaction(context.Background(), req)
	require.Error(t, err)
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindInsufficientQuantity, le.Kind)
	assert.Equal(t, "transfers[1].amount", le.Fields[0].Field)
	assert.True(t, le.Fields[0].Requested.Equal(d(60)))
}

func TestPostTransaction_AgotaLote(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 25)

	_, err := f.engine.PostTransaction(context.Background(), transferReq(b1, 25, 25))
	require.NoError(t, err)

	src := f.batch(t, b1)
	assert.True(t, src.Quantity.IsZero())
	assert.Equal(t, entity.BatchStatusDepleted, src.Status)

	_, err = f.engine.PostTransaction(context.Background(), transferReq(b1, 1, 1))
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindInsufficientQuantity, le.Kind)
}

func consumeReq(batchID string, amount int64) ledger.PostRequest {
	return ledger.PostRequest{
		Date:            day,
		TransactionType: "consumption",
		Transfers: []ledger.TransferInput{{
			SourceAccountID: accA, DestinationAccountID: accOut, MaterialID: matFlour,
			Amount: d(amount), Source: entity.BatchSource(batchID),
		}},
	}
}

func TestPostTransaction_LoteAgotadoInformaDisponibleCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1 := f.purchase(t, accA, 10)
	_, err := f.engine.PostTransaction(ctx, consumeReq(b1, 10))
	require.NoError(t, err)
	require.Equal(t, entity.BatchStatusDepleted, f.batch(t, b1).Status)

	_, err = f.engine.PostTransaction(ctx, consumeReq(b1, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	le := ledgerErr(t, err)
	require.Len(t, le.Fields, 1)
	fe := le.Fields[0]
	assert.Equal(t, domain.KindInsufficientQuantity, fe.Kind)
	assert.Equal(t, "transfers[0].amount", fe.Field)
	require.NotNil(t, fe.Available)
	require.NotNil(t, fe.Requested)
	assert.True(t, fe.Available.IsZero())
	assert.True(t, fe.Requested.Equal(d(5)))
}

func TestPostTransaction_LoteVencidoEsErrorDeValidacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1 := f.purchase(t, accA, 10)
	b := f.batch(t, b1)
	require.NoError(t, f.store.Batches().UpdateQuantity(ctx, b1, b.Quantity, entity.BatchStatusExpired, b.Version))

	_, err := f.engine.PostTransaction(ctx, consumeReq(b1, 5))
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindValidation, le.Kind)
	assert.Equal(t, "transfers[0].source_batch_id", le.Fields[0].Field)
	assert.Nil(t, le.Fields[0].Available)
}

func TestPostTransaction_MasDecimalesDeLosAlmacenados(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 10)
	req := consumeReq(b1, 1)
	req.Transfers[0].Amount = decimal.RequireFromString("1.00005")

	_, err := f.engine.PostTransaction(context.Background(), req)
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindValidation, le.Kind)
	assert.Equal(t, "transfers[0].amount", le.Fields[0].Field)
	assert.True(t, f.batch(t, b1).Quantity.Equal(d(10)))

	req.Transfers[0].Amount = decimal.RequireFromString("1.2500")
	_, err = f.engine.PostTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, f.batch(t, b1).Quantity.Equal(decimal.RequireFromString("8.75")))
}

func TestPostTransaction_OrdenDeValidacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   ledger.PostRequest
		field string
	}{
		{
			name:  "fecha antes que todo",
			req:   ledger.PostRequest{TransactionType: "nope", Transfers: []ledger.TransferInput{{SourceAccountID: "ghost"}}},
			field: "date",
		},
		{
			name:  "tipo antes que la forma",
			req:   ledger.PostRequest{Date: day, TransactionType: "nope"},
			field: "transaction_type",
		},
		{
			name:  "producción sin insumos",
			req:   ledger.PostRequest{Date: day, TransactionType: "production", Allocations: []ledger.AllocationInput{{MaterialID: matFlour, AccountID: accA, Quantity: d(1)}}},
			field: "transfers",
		},
		{
			name:  "transferencia sin líneas",
			req:   ledger.PostRequest{Date: day, TransactionType: "transfer", Allocations: []ledger.AllocationInput{{MaterialID: matFlour, Quantity: d(1)}}},
			field: "transfers",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.PostTransaction(ctx, tc.req)
			le := ledgerErr(t, err)
			require.Len(t, le.Fields, 1)
			assert.Equal(t, domain.KindValidation, le.Kind)
			assert.Equal(t, tc.field, le.Fields[0].Field)
		})
	}
}

func TestPostTransaction_ReferenciasSeReportanJuntas(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.PostTransaction(context.Background(), ledger.PostRequest{
		Date:            day,
		TransactionType: "transfer",
		Transfers: []ledger.TransferInput{{
			SourceAccountID: "ghost", DestinationAccountID: accClosed, MaterialID: matFlour,
			Amount: d(5), Source: entity.AccountTotalSource(),
		}},
	})
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindNotFound, le.Kind)
	assert.True(t, le.HasKind(domain.KindInactiveAccount))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, fe := range le.Fields {
		require.NotNil(t, fe.Index)
		assert.Equal(t, 0, *fe.Index)
	}
}

func TestPostTransaction_CuentaArchivada(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 10)
	req := transferReq(b1, 5, 5)
	req.Transfers[0].DestinationAccountID = accClosed

	_, err := f.engine.PostTransaction(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)
	assert.True(t, f.batch(t, b1).Quantity.Equal(d(10)))
}

func TestPostTransaction_Desbalanceada(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	_, err := f.engine.PostTransaction(context.Background(), transferReq(b1, 40, 30))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrImbalancedTransaction)
	le := ledgerErr(t, err)
	assert.Equal(t, "materials["+matFlour+"]", le.Fields[0].Field)
	assert.True(t, le.Fields[0].Available.Equal(d(40)))
	assert.True(t, le.Fields[0].Requested.Equal(d(30)))
}

func TestPostTransaction_AsignacionDebeIrAlDestino(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)
	req := transferReq(b1, 40, 40)
	req.Allocations[0].AccountID = accA

	_, err := f.engine.PostTransaction(context.Background(), req)
	le := ledgerErr(t, err)
	assert.Equal(t, domain.KindImbalanced, le.Kind)
	assert.Equal(t, "batch_allocations[0].account_id", le.Fields[0].Field)
}

func TestPostTransaction_ConsumoSinLotesNuevos(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	out, err := f.engine.PostTransaction(context.Background(), ledger.PostRequest{
		Date:            day,
		TransactionType: "consumption",
		Transfers: []ledger.TransferInput{{
			SourceAccountID: accA, DestinationAccountID: accOut, MaterialID: matFlour,
			Amount: d(15), Source: entity.BatchSource(b1),
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, out.CreatedBatches)
	assert.True(t, f.batch(t, b1).Quantity.Equal(d(85)))
}

func TestPostFromRequest_SourceBatchIDHeredado(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	out, err := f.engine.PostFromRequest(context.Background(), "user-1", dto.PostTransactionRequest{
		Date:            day,
		TransactionType: "transfer",
		Transfers: []dto.TransferRequest{{
			SourceAccountID: accA, DestinationAccountID: accC, MaterialID: matFlour,
			Amount: d(10), SourceBatchID: &b1,
		}},
		BatchAllocations: []dto.BatchAllocationRequest{{MaterialID: matFlour, Quantity: d(10)}},
	})
	require.NoError(t, err)
	require.Len(t, out.Transfers, 1)
	assert.Equal(t, string(entity.SourceKindBatch), out.Transfers[0].Source.Kind)
	assert.Equal(t, b1, out.Transfers[0].Source.BatchID)
	assert.Equal(t, "user-1", out.CreatedBy)
	require.NotNil(t, out.Allocations[0].TransferIndex, "el vínculo resuelto se persiste")
	assert.Equal(t, 0, *out.Allocations[0].TransferIndex)
}

func TestPostTransaction_ConcurrenteNuncaNegativo(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.PostTransaction(context.Background(), ledger.PostRequest{
				Date:            day,
				TransactionType: "consumption",
				Transfers: []ledger.TransferInput{{
					SourceAccountID: accA, DestinationAccountID: accOut, MaterialID: matFlour,
					Amount: d(15), Source: entity.BatchSource(b1),
				}},
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrInsufficientQuantity) ||
				errors.Is(err, domain.ErrConcurrencyConflict) ||
				errors.Is(err, domain.ErrInvalidInput), "error inesperado: %v", err)
		}()
	}
	wg.Wait()

	b := f.batch(t, b1)
	assert.False(t, b.Quantity.IsNegative())
	assert.LessOrEqual(t, ok, 6)
	assert.True(t, b.Quantity.Equal(d(100-int64(15*ok))), "cantidad %s tras %d éxitos", b.Quantity, ok)
}

func TestPostTransaction_ConcurrenteAgotaSinErroresDeValidacion(t *testing.T) {
	f := newFixture(t)
	b1 := f.purchase(t, accA, 100)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.PostTransaction(context.Background(), consumeReq(b1, 10))
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			kind := domain.KindOf(err)
			assert.Contains(t, []domain.ErrorKind{domain.KindInsufficientQuantity, domain.KindConcurrencyConflict}, kind, "error inesperado: %v", err)
		}()
	}
	wg.Wait()

	b := f.batch(t, b1)
	assert.LessOrEqual(t, ok, 10)
	assert.True(t, b.Quantity.Equal(d(100-int64(10*ok))), "cantidad %s tras %d éxitos", b.Quantity, ok)
	if ok == 10 {
		assert.Equal(t, entity.BatchStatusDepleted, b.Status)
	}
}
