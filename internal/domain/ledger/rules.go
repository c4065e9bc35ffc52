package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// QuantityScale decimales que se almacenan para cantidades (NUMERIC(20,4)).
const QuantityScale int32 = 4

// AllowsAllocationOnly indica los tipos que pueden crear lotes sin transferencias.
// Solo las compras crean lotes raíz; un lote de producción siempre proviene de una
// transferencia de insumos hacia su cuenta.
func AllowsAllocationOnly(t entity.TransactionType) bool {
	return t == entity.TransactionTypePurchase
}

// LinkAllocation devuelve el índice de la transferencia que alimenta la asignación, -1 si no hay.
// Prioridad: TransferIndex explícito; primera transferencia del mismo material (hacia la cuenta
// de la asignación si está definida); en producción, primera transferencia hacia esa cuenta.
func LinkAllocation(t entity.TransactionType, transfers []entity.Transfer, a entity.BatchAllocation) int {
	if a.TransferIndex != nil {
		if *a.TransferIndex >= 0 && *a.TransferIndex < len(transfers) {
			return *a.TransferIndex
		}
		return -1
	}
	for i, tr := range transfers {
		if tr.MaterialID == a.MaterialID && (a.AccountID == "" || tr.DestinationAccountID == a.AccountID) {
			return i
		}
	}
	if t == entity.TransactionTypeProduction {
		for i, tr := range transfers {
			if a.AccountID == "" || tr.DestinationAccountID == a.AccountID {
				return i
			}
		}
	}
	return -1
}

// CheckConservation aplica la regla de conservación del tipo de transacción.
//   - transfer, adjustment: lo que sale == lo que llega, por material
//   - purchase: solo aumentos (llega >= sale)
//   - consumption: solo disminuciones (llega <= sale)
//   - production: sin restricción (transforma materiales)
func CheckConservation(t entity.TransactionType, b Balance) []domain.FieldError {
	var errs []domain.FieldError
	for _, m := range b.Materials {
		var ok bool
		switch t {
		case entity.TransactionTypeTransfer, entity.TransactionTypeAdjustment:
			ok = m.Leaving.Equal(m.Arriving)
		case entity.TransactionTypePurchase:
			ok = m.Arriving.GreaterThanOrEqual(m.Leaving)
		case entity.TransactionTypeConsumption:
			ok = m.Arriving.LessThanOrEqual(m.Leaving)
		default:
			ok = true
		}
		if ok {
			continue
		}
		leaving, arriving := m.Leaving, m.Arriving
		errs = append(errs, domain.FieldError{
			Kind:      domain.KindImbalanced,
			Field:     fmt.Sprintf("materials[%s]", m.MaterialID),
			Message:   fmt.Sprintf("sale %s y llega %s; no permitido para %s", leaving.String(), arriving.String(), t),
			Available: &leaving,
			Requested: &arriving,
		})
	}
	return errs
}

// CheckTraceability exige que cada lote nuevo provenga de una transferencia hacia su cuenta,
// salvo los lotes raíz de compras. Las asignaciones de una transferencia no superan su cantidad.
func CheckTraceability(t entity.TransactionType, transfers []entity.Transfer, allocations []entity.BatchAllocation, links []int) []domain.FieldError {
	var errs []domain.FieldError
	covered := make(map[int]decimal.Decimal)
	for i, a := range allocations {
		l := links[i]
		if l < 0 {
			if t == entity.TransactionTypePurchase {
				continue
			}
			errs = append(errs, domain.FieldError{
				Kind:    domain.KindImbalanced,
				Field:   fmt.Sprintf("batch_allocations[%d]", i),
				Index:   domain.IntPtr(i),
				Message: "el lote no proviene de ninguna transferencia hacia su cuenta",
			})
			continue
		}
		tr := transfers[l]
		if tr.DestinationAccountID != a.AccountID {
			errs = append(errs, domain.FieldError{
				Kind:    domain.KindImbalanced,
				Field:   fmt.Sprintf("batch_allocations[%d].account_id", i),
				Index:   domain.IntPtr(i),
				Message: fmt.Sprintf("la cuenta del lote no es el destino de transfers[%d]", l),
			})
			continue
		}
		if t == entity.TransactionTypeProduction {
			continue
		}
		if tr.MaterialID != a.MaterialID {
			errs = append(errs, domain.FieldError{
				Kind:    domain.KindImbalanced,
				Field:   fmt.Sprintf("batch_allocations[%d].material_id", i),
				Index:   domain.IntPtr(i),
				Message: fmt.Sprintf("el material no coincide con transfers[%d]", l),
			})
			continue
		}
		covered[l] = covered[l].Add(a.Quantity)
	}

	keys := make([]int, 0, len(covered))
	for k := range covered {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, l := range keys {
		amount := transfers[l].Amount
		q := covered[l]
		if q.GreaterThan(amount) {
			errs = append(errs, domain.FieldError{
				Kind:      domain.KindImbalanced,
				Field:     fmt.Sprintf("transfers[%d].amount", l),
				Index:     domain.IntPtr(l),
				Message:   "las asignaciones superan la cantidad transferida",
				Available: &amount,
				Requested: &q,
			})
		}
	}
	return errs
}

// Drawdown descuenta amount del lote. Queda depleted exactamente cuando llega a 0.
func Drawdown(b entity.Batch, amount decimal.Decimal) (entity.Batch, error) {
	if !b.IsActive() {
		return b, fmt.Errorf("lote %s en estado %s: %w", b.ID, b.Status, domain.ErrInvalidInput)
	}
	if amount.GreaterThan(b.Quantity) {
		return b, fmt.Errorf("lote %s: %w", b.ID, domain.ErrInsufficientQuantity)
	}
	b.Quantity = b.Quantity.Sub(amount)
	if b.Quantity.IsZero() {
		b.Status = entity.BatchStatusDepleted
	}
	return b, nil
}

// SourceBatchIDs devuelve los lotes descontados por las transferencias, sin repetir, en orden de uso.
func SourceBatchIDs(transfers []entity.Transfer) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range transfers {
		if !t.Source.IsBatch() || seen[t.Source.BatchID] {
			continue
		}
		seen[t.Source.BatchID] = true
		ids = append(ids, t.Source.BatchID)
	}
	return ids
}
