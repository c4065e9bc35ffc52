package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// MaterialBalance totales de débito (sale de cuentas origen) y crédito (llega a destino) por material.
type MaterialBalance struct {
	MaterialID string
	Leaving    decimal.Decimal
	Arriving   decimal.Decimal
}

// Balanced indica si lo que sale es igual a lo que llega.
func (m MaterialBalance) Balanced() bool {
	return m.Leaving.Equal(m.Arriving)
}

// Balance resumen por material, en orden de primera aparición.
type Balance struct {
	Materials []MaterialBalance
}

// Balanced indica si todos los materiales están balanceados.
func (b Balance) Balanced() bool {
	for _, m := range b.Materials {
		if !m.Balanced() {
			return false
		}
	}
	return true
}

// ComputeBalance calcula los totales por material (servicio de dominio, sin efectos).
// Leaving = suma de transferencias. Arriving = suma de asignaciones de lote más las
// transferencias de total de cuenta que no alimentan ningún lote nuevo (quedan en el total
// implícito del destino). links[i] es la transferencia asociada a allocations[i], -1 si ninguna.
func ComputeBalance(transfers []entity.Transfer, allocations []entity.BatchAllocation, links []int) Balance {
	idx := make(map[string]int)
	var out []MaterialBalance
	get := func(materialID string) *MaterialBalance {
		i, ok := idx[materialID]
		if !ok {
			i = len(out)
			idx[materialID] = i
			out = append(out, MaterialBalance{MaterialID: materialID, Leaving: decimal.Zero, Arriving: decimal.Zero})
		}
		return &out[i]
	}

	fed := make(map[int]bool, len(links))
	for _, l := range links {
		if l >= 0 {
			fed[l] = true
		}
	}

	for i, t := range transfers {
		m := get(t.MaterialID)
		m.Leaving = m.Leaving.Add(t.Amount)
		if !t.Source.IsBatch() && !fed[i] {
			m.Arriving = m.Arriving.Add(t.Amount)
		}
	}
	for _, a := range allocations {
		m := get(a.MaterialID)
		m.Arriving = m.Arriving.Add(a.Quantity)
	}
	return Balance{Materials: out}
}
