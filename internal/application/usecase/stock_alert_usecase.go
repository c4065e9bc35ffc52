package usecase

import (
	"context"
	"sort"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// StockAlertUseCase alertas de reposición: materiales cuyo total activo está bajo su punto de reorden.
type StockAlertUseCase struct {
	materials repository.MaterialRepository
}

// NewStockAlertUseCase construye el caso de uso de alertas.
func NewStockAlertUseCase(materials repository.MaterialRepository) *StockAlertUseCase {
	return &StockAlertUseCase{materials: materials}
}

// LowStock devuelve los materiales bajo reorden ordenados por mayor faltante (prioridad 1 = más urgente).
func (uc *StockAlertUseCase) LowStock(ctx context.Context) ([]dto.LowStockAlertDTO, error) {
	items, err := uc.materials.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlertDTO, 0, len(items))
	for _, item := range items {
		alerts = append(alerts, dto.LowStockAlertDTO{
			MaterialID:    item.MaterialID,
			MaterialName:  item.MaterialName,
			CategoryID:    item.CategoryID,
			UnitOfMeasure: item.UnitOfMeasure,
			ReorderPoint:  item.ReorderPoint,
			CurrentTotal:  item.CurrentTotal,
			Shortfall:     item.ReorderPoint.Sub(item.CurrentTotal),
		})
	}

	// Mayor faltante primero; empate por nombre.
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if !a.Shortfall.Equal(b.Shortfall) {
			return a.Shortfall.GreaterThan(b.Shortfall)
		}
		return a.MaterialName < b.MaterialName
	})
	for i := range alerts {
		alerts[i].Priority = i + 1
	}
	return alerts, nil
}
