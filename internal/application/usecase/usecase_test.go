package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
)

type bumpCounter struct{ n int }

func (b *bumpCounter) Bump(context.Context) error { b.n++; return nil }

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// Cuentas
// ──────────────────────────────────────────────────────────────────────────────

func TestAccountUseCase_DefaultUnicoPorCategoria(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAccountUseCase(memory.NewStore().Accounts())

	first, err := uc.Create(ctx, dto.CreateAccountRequest{Name: "Bodega principal", Category: "stock", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, entity.AccountStatusActive, first.Status)

	_, err = uc.Create(ctx, dto.CreateAccountRequest{Name: "Otra", Category: "stock", IsDefault: true})
	assert.ErrorIs(t, err, domain.ErrDuplicateDefault)

	_, err = uc.Create(ctx, dto.CreateAccountRequest{Name: "Proveedor", Category: "input", IsDefault: true})
	assert.NoError(t, err)
}

func TestAccountUseCase_CategoriaInvalida(t *testing.T) {
	uc := usecase.NewAccountUseCase(memory.NewStore().Accounts())
	_, err := uc.Create(context.Background(), dto.CreateAccountRequest{Name: " ", Category: "limbo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var le *domain.LedgerError
	require.ErrorAs(t, err, &le)
	assert.Len(t, le.Fields, 2)
}

func TestAccountUseCase_Archive(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAccountUseCase(memory.NewStore().Accounts())
	def, err := uc.Create(ctx, dto.CreateAccountRequest{Name: "Principal", Category: "stock", IsDefault: true})
	require.NoError(t, err)
	other, err := uc.Create(ctx, dto.CreateAccountRequest{Name: "Secundaria", Category: "stock"})
	require.NoError(t, err)

	_, err = uc.Archive(ctx, def.ID)
	assert.ErrorIs(t, err, domain.ErrDefaultAccount)

	archived, err := uc.Archive(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AccountStatusArchived, archived.Status)

	again, err := uc.Archive(ctx, other.ID)
	require.NoError(t, err, "archivar dos veces no falla")
	assert.Equal(t, entity.AccountStatusArchived, again.Status)

	_, err = uc.Archive(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active, err := uc.List(ctx, repository.AccountFilter{Status: entity.AccountStatusActive})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, def.ID, active.Items[0].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestMaterialUseCase_Create(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewMaterialUseCase(memory.NewStore().Materials())
	cat, err := uc.CreateCategory(ctx, dto.CreateMaterialCategoryRequest{Name: "Lácteos"})
	require.NoError(t, err)

	m, err := uc.Create(ctx, dto.CreateMaterialRequest{Name: "Leche", CategoryID: cat.ID, UnitOfMeasure: "l", ReorderPoint: dec(50)})
	require.NoError(t, err)
	assert.Equal(t, "Lácteos", m.CategoryName)

	got, err := uc.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leche", got.Name)
	assert.Equal(t, "Lácteos", got.CategoryName)

	_, err = uc.Create(ctx, dto.CreateMaterialRequest{Name: "Queso", CategoryID: "00000000-0000-0000-0000-000000000000", UnitOfMeasure: "kg"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(ctx, dto.CreateMaterialRequest{Name: "Crema", CategoryID: cat.ID, UnitOfMeasure: "l", ReorderPoint: dec(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockAlertUseCase_OrdenPorFaltante(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Materials().CreateCategory(ctx, &entity.MaterialCategory{ID: "cat", Name: "General"}))
	materials := []entity.Material{
		{ID: "m-a", Name: "Azúcar", CategoryID: "cat", UnitOfMeasure: "kg", ReorderPoint: dec(100)},
		{ID: "m-b", Name: "Bolsas", CategoryID: "cat", UnitOfMeasure: "u", ReorderPoint: dec(10)},
		{ID: "m-c", Name: "Cacao", CategoryID: "cat", UnitOfMeasure: "kg", ReorderPoint: dec(5)},
		{ID: "m-d", Name: "Sin alerta", CategoryID: "cat", UnitOfMeasure: "kg"},
	}
	for i := range materials {
		require.NoError(t, store.Materials().Create(ctx, &materials[i]))
	}
	stock := map[string]int64{"m-a": 90, "m-b": 1, "m-c": 20, "m-d": 0}
	for id, qty := range stock {
		require.NoError(t, store.Batches().Create(ctx, &entity.Batch{
			ID: "b-" + id, MaterialID: id, AccountID: "acc", Quantity: decimal.NewFromInt(qty), Unit: "kg", Status: entity.BatchStatusActive,
		}))
	}

	alerts, err := usecase.NewStockAlertUseCase(store.Materials()).LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "m-a", alerts[0].MaterialID)
	assert.True(t, alerts[0].Shortfall.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "m-b", alerts[1].MaterialID)
	assert.Equal(t, 1, alerts[0].Priority)
	assert.Equal(t, 2, alerts[1].Priority)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vencimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchUseCase_ExpireDue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	exp := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Batches().Create(ctx, &entity.Batch{
		ID: "b1", MaterialID: "m", AccountID: "a", Quantity: decimal.NewFromInt(3), Status: entity.BatchStatusActive, ExpirationDate: &exp,
	}))
	bumps := &bumpCounter{}
	uc := usecase.NewBatchUseCase(store.Batches(), bumps, zerolog.Nop())

	res, err := uc.ExpireDue(ctx, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, "2025-02-01", res.AsOf)
	assert.Equal(t, 1, bumps.n)

	res, err = uc.ExpireDue(ctx, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Expired)
	assert.Equal(t, 1, bumps.n, "sin cambios no se invalida la caché")
}
