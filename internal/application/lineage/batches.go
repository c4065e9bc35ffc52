package lineage

import (
	"context"
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lookup"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// GetBatch detalle del lote con nombres de material y cuenta.
func (r *Resolver) GetBatch(ctx context.Context, id string) (*dto.BatchResponse, error) {
	b, err := r.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
	}
	names := lookup.New(r.accounts, r.materials)
	out := dto.NewBatchResponse(b, names.MaterialName(ctx, b.MaterialID), names.AccountName(ctx, b.AccountID))
	return &out, nil
}

// ListBatches lista lotes filtrados, en orden de creación.
func (r *Resolver) ListBatches(ctx context.Context, filter repository.BatchFilter) (*dto.BatchListResponse, error) {
	page := dto.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := r.batches.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := lookup.New(r.accounts, r.materials)
	items := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, dto.NewBatchResponse(b, names.MaterialName(ctx, b.MaterialID), names.AccountName(ctx, b.AccountID)))
	}
	return &dto.BatchListResponse{
		Items: items,
		Page:  page.Meta(len(items)),
	}, nil
}
