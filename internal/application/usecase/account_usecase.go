package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// AccountUseCase registro de cuentas. Las cuentas no se eliminan, se archivan.
type AccountUseCase struct {
	repo repository.AccountRepository
	now  func() time.Time
}

// NewAccountUseCase construye el caso de uso.
func NewAccountUseCase(repo repository.AccountRepository) *AccountUseCase {
	return &AccountUseCase{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Create crea una cuenta activa. A lo sumo una cuenta por defecto por categoría.
func (uc *AccountUseCase) Create(ctx context.Context, in dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	name := strings.TrimSpace(in.Name)
	category := entity.AccountCategory(in.Category)
	var errs []domain.FieldError
	if name == "" {
		errs = append(errs, domain.FieldError{Kind: domain.KindValidation, Field: "name", Message: "nombre requerido"})
	}
	if !category.Valid() {
		errs = append(errs, domain.FieldError{Kind: domain.KindValidation, Field: "category", Message: "use stock, input u output"})
	}
	if len(errs) > 0 {
		return nil, domain.NewLedgerError(errs...)
	}

	if in.IsDefault {
		cur, err := uc.repo.GetDefault(ctx, category)
		if err != nil {
			return nil, err
		}
		if cur != nil {
			return nil, fmt.Errorf("categoría %s ya tiene %q: %w", category, cur.Name, domain.ErrDuplicateDefault)
		}
	}

	now := uc.now()
	account := &entity.Account{
		ID:          uuid.New().String(),
		Name:        name,
		Category:    category,
		Description: in.Description,
		IsDefault:   in.IsDefault,
		Status:      entity.AccountStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	out := dto.NewAccountResponse(account)
	return &out, nil
}

// GetByID obtiene una cuenta.
func (uc *AccountUseCase) GetByID(ctx context.Context, id string) (*dto.AccountResponse, error) {
	account, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("cuenta %s: %w", id, domain.ErrNotFound)
	}
	out := dto.NewAccountResponse(account)
	return &out, nil
}

// List lista cuentas filtradas por categoría y estado.
func (uc *AccountUseCase) List(ctx context.Context, filter repository.AccountFilter) (*dto.AccountListResponse, error) {
	page := dto.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AccountResponse, 0, len(list))
	for _, a := range list {
		items = append(items, dto.NewAccountResponse(a))
	}
	return &dto.AccountListResponse{
		Items: items,
		Page:  page.Meta(0),
	}, nil
}

// Archive archiva la cuenta. Las cuentas por defecto no se archivan; archivar dos veces no falla.
func (uc *AccountUseCase) Archive(ctx context.Context, id string) (*dto.AccountResponse, error) {
	account, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("cuenta %s: %w", id, domain.ErrNotFound)
	}
	if account.IsDefault {
		return nil, fmt.Errorf("cuenta %s: %w", account.Name, domain.ErrDefaultAccount)
	}
	if account.Status != entity.AccountStatusArchived {
		if err := uc.repo.UpdateStatus(ctx, id, entity.AccountStatusArchived); err != nil {
			return nil, err
		}
		account.Status = entity.AccountStatusArchived
		account.UpdatedAt = uc.now()
	}
	out := dto.NewAccountResponse(account)
	return &out, nil
}
