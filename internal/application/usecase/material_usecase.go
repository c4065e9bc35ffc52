package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// MaterialUseCase catálogo de materiales y categorías.
type MaterialUseCase struct {
	repo repository.MaterialRepository
	now  func() time.Time
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(repo repository.MaterialRepository) *MaterialUseCase {
	return &MaterialUseCase{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateCategory crea una categoría de materiales.
func (uc *MaterialUseCase) CreateCategory(ctx context.Context, in dto.CreateMaterialCategoryRequest) (*dto.MaterialCategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewLedgerError(domain.FieldError{Kind: domain.KindValidation, Field: "name", Message: "nombre requerido"})
	}
	c := &entity.MaterialCategory{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		CreatedAt:   uc.now(),
	}
	if err := uc.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// ListCategories lista las categorías por nombre.
func (uc *MaterialUseCase) ListCategories(ctx context.Context) ([]dto.MaterialCategoryResponse, error) {
	list, err := uc.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MaterialCategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

// Create crea un material. La categoría debe existir y el punto de reorden no puede ser negativo.
func (uc *MaterialUseCase) Create(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	var errs []domain.FieldError
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.UnitOfMeasure)
	if name == "" {
		errs = append(errs, domain.FieldError{Kind: domain.KindValidation, Field: "name", Message: "nombre requerido"})
	}
	if unit == "" {
		errs = append(errs, domain.FieldError{Kind: domain.KindValidation, Field: "unit_of_measure", Message: "unidad requerida"})
	}
	if in.ReorderPoint != nil && in.ReorderPoint.LessThan(decimal.Zero) {
		errs = append(errs, domain.FieldError{Kind: domain.KindValidation, Field: "reorder_point", Message: "el punto de reorden no puede ser negativo"})
	}
	if len(errs) > 0 {
		return nil, domain.NewLedgerError(errs...)
	}

	category, err := uc.repo.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.NewLedgerError(domain.FieldError{
			Kind: domain.KindNotFound, Field: "category_id", Message: fmt.Sprintf("la categoría %s no existe", in.CategoryID),
		})
	}

	now := uc.now()
	m := &entity.Material{
		ID:            uuid.New().String(),
		Name:          name,
		CategoryID:    category.ID,
		UnitOfMeasure: unit,
		ReorderPoint:  in.ReorderPoint,
		Description:   in.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	out := dto.NewMaterialResponse(m, category.Name)
	return &out, nil
}

// GetByID obtiene un material con el nombre de su categoría.
func (uc *MaterialUseCase) GetByID(ctx context.Context, id string) (*dto.MaterialResponse, error) {
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("material %s: %w", id, domain.ErrNotFound)
	}
	out := dto.NewMaterialResponse(m, uc.categoryName(ctx, m.CategoryID, nil))
	return &out, nil
}

// List lista materiales, opcionalmente por categoría.
func (uc *MaterialUseCase) List(ctx context.Context, filter repository.MaterialFilter) (*dto.MaterialListResponse, error) {
	page := dto.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.NewMaterialResponse(m, uc.categoryName(ctx, m.CategoryID, names)))
	}
	return &dto.MaterialListResponse{
		Items: items,
		Page:  page.Meta(0),
	}, nil
}

func (uc *MaterialUseCase) categoryName(ctx context.Context, id string, memo map[string]string) string {
	if n, ok := memo[id]; ok {
		return n
	}
	c, err := uc.repo.GetCategory(ctx, id)
	name := ""
	if err == nil && c != nil {
		name = c.Name
	}
	if memo != nil {
		memo[id] = name
	}
	return name
}

func toCategoryResponse(c *entity.MaterialCategory) *dto.MaterialCategoryResponse {
	return &dto.MaterialCategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}
