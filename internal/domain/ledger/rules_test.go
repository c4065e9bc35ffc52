package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func transfer(src, dst, material, amount string, source entity.TransferSource) entity.Transfer {
	return entity.Transfer{
		SourceAccountID:      src,
		DestinationAccountID: dst,
		MaterialID:           material,
		Amount:               d(amount),
		Source:               source,
	}
}

func links(t entity.TransactionType, transfers []entity.Transfer, allocs []entity.BatchAllocation) []int {
	out := make([]int, len(allocs))
	for i, a := range allocs {
		out[i] = ledger.LinkAllocation(t, transfers, a)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Balance y conservación
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeBalance_TransferenciaConLoteNuevo_Balanceada(t *testing.T) {
	trs := []entity.Transfer{transfer("A", "C", "M", "40", entity.BatchSource("B1"))}
	allocs := []entity.BatchAllocation{{MaterialID: "M", AccountID: "C", Quantity: d("40")}}

	b := ledger.ComputeBalance(trs, allocs, links(entity.TransactionTypeTransfer, trs, allocs))
	require.Len(t, b.Materials, 1)
	assert.True(t, b.Materials[0].Leaving.Equal(d("40")))
	assert.True(t, b.Materials[0].Arriving.Equal(d("40")))
	assert.True(t, b.Balanced())
	assert.Empty(t, ledger.CheckConservation(entity.TransactionTypeTransfer, b))
}

func TestComputeBalance_TotalDeCuentaSinLote_Balanceada(t *testing.T) {
	trs := []entity.Transfer{transfer("A", "C", "M", "15", entity.AccountTotalSource())}

	b := ledger.ComputeBalance(trs, nil, nil)
	assert.True(t, b.Balanced(), "el total implícito del destino recibe la cantidad")
}

func TestCheckConservation_TransferenciaSinAsignacion_Desbalanceada(t *testing.T) {
	trs := []entity.Transfer{transfer("A", "C", "M", "40", entity.BatchSource("B1"))}

	b := ledger.ComputeBalance(trs, nil, nil)
	errs := ledger.CheckConservation(entity.TransactionTypeTransfer, b)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.KindImbalanced, errs[0].Kind)
	assert.Equal(t, "materials[M]", errs[0].Field)
}

func TestCheckConservation_ReglasPorTipo(t *testing.T) {
	increase := ledger.Balance{Materials: []ledger.MaterialBalance{{MaterialID: "M", Leaving: d("0"), Arriving: d("10")}}}
	decrease := ledger.Balance{Materials: []ledger.MaterialBalance{{MaterialID: "M", Leaving: d("10"), Arriving: d("0")}}}

	cases := []struct {
		name    string
		txType  entity.TransactionType
		balance ledger.Balance
		wantErr bool
	}{
		{"compra aumenta", entity.TransactionTypePurchase, increase, false},
		{"compra disminuye", entity.TransactionTypePurchase, decrease, true},
		{"consumo disminuye", entity.TransactionTypeConsumption, decrease, false},
		{"consumo aumenta", entity.TransactionTypeConsumption, increase, true},
		{"ajuste aumenta", entity.TransactionTypeAdjustment, increase, true},
		{"transferencia disminuye", entity.TransactionTypeTransfer, decrease, true},
		{"producción sin restricción", entity.TransactionTypeProduction, increase, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ledger.CheckConservation(tc.txType, tc.balance)
			if tc.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Trazabilidad de asignaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckTraceability_AsignacionSuperaTransferencia(t *testing.T) {
	trs := []entity.Transfer{transfer("A", "C", "M", "40", entity.BatchSource("B1"))}
	allocs := []entity.BatchAllocation{
		{MaterialID: "M", AccountID: "C", Quantity: d("30")},
		{MaterialID: "M", AccountID: "C", Quantity: d("20")},
	}

	errs := ledger.CheckTraceability(entity.TransactionTypeTransfer, trs, allocs, links(entity.TransactionTypeTransfer, trs, allocs))
	require.Len(t, errs, 1)
	assert.Equal(t, "transfers[0].amount", errs[0].Field)
	require.NotNil(t, errs[0].Index)
	assert.Equal(t, 0, *errs[0].Index)
}

func TestCheckTraceability_CompraRaizSinTransferencia(t *testing.T) {
	allocs := []entity.BatchAllocation{{MaterialID: "M", AccountID: "A", Quantity: d("100")}}

	errs := ledger.CheckTraceability(entity.TransactionTypePurchase, nil, allocs, links(entity.TransactionTypePurchase, nil, allocs))
	assert.Empty(t, errs)
}

func TestCheckTraceability_AjusteSinTransferenciaRechazado(t *testing.T) {
	allocs := []entity.BatchAllocation{{MaterialID: "M", AccountID: "A", Quantity: d("5")}}

	errs := ledger.CheckTraceability(entity.TransactionTypeAdjustment, nil, allocs, []int{-1})
	require.Len(t, errs, 1)
	assert.Equal(t, "batch_allocations[0]", errs[0].Field)
}

func TestAllowsAllocationOnly_SoloCompras(t *testing.T) {
	assert.True(t, ledger.AllowsAllocationOnly(entity.TransactionTypePurchase))
	for _, tt := range []entity.TransactionType{
		entity.TransactionTypeProduction, entity.TransactionTypeTransfer,
		entity.TransactionTypeAdjustment, entity.TransactionTypeConsumption,
	} {
		assert.False(t, ledger.AllowsAllocationOnly(tt), string(tt))
	}
}

func TestLinkAllocation_ProduccionEnlazaPorCuenta(t *testing.T) {
	trs := []entity.Transfer{
		transfer("A", "P", "harina", "10", entity.BatchSource("B1")),
		transfer("A", "P", "azucar", "5", entity.BatchSource("B2")),
	}
	a := entity.BatchAllocation{MaterialID: "torta", AccountID: "P", Quantity: d("12")}

	assert.Equal(t, 0, ledger.LinkAllocation(entity.TransactionTypeProduction, trs, a))
	assert.Equal(t, -1, ledger.LinkAllocation(entity.TransactionTypeTransfer, trs, a))
}

// ──────────────────────────────────────────────────────────────────────────────
// Descuento de lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestDrawdown_AgotaExactamenteEnCero(t *testing.T) {
	b := entity.Batch{ID: "B1", Quantity: d("40"), Status: entity.BatchStatusActive}

	partial, err := ledger.Drawdown(b, d("39.99"))
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusActive, partial.Status)
	assert.True(t, partial.Quantity.Equal(d("0.01")))

	empty, err := ledger.Drawdown(b, d("40"))
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusDepleted, empty.Status)
	assert.True(t, empty.Quantity.IsZero())
}

func TestDrawdown_CantidadInsuficiente(t *testing.T) {
	b := entity.Batch{ID: "B1", Quantity: d("60"), Status: entity.BatchStatusActive}

	_, err := ledger.Drawdown(b, d("70"))
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
}

func TestSourceBatchIDs_SinRepetirEnOrden(t *testing.T) {
	trs := []entity.Transfer{
		transfer("A", "C", "M", "1", entity.BatchSource("B2")),
		transfer("A", "C", "M", "1", entity.AccountTotalSource()),
		transfer("A", "C", "M", "1", entity.BatchSource("B1")),
		transfer("A", "C", "M", "1", entity.BatchSource("B2")),
	}
	assert.Equal(t, []string{"B2", "B1"}, ledger.SourceBatchIDs(trs))
}
