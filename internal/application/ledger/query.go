package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lookup"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// GetTransaction devuelve la transacción hidratada con nombres, lotes creados y balance.
func (e *Engine) GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	tx, err := e.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
	}
	return e.hydrate(ctx, lookup.New(e.accounts, e.materials), tx)
}

// ListTransactions lista transacciones, más recientes primero.
func (e *Engine) ListTransactions(ctx context.Context, filter repository.TransactionFilter) (*dto.TransactionListResponse, error) {
	page := dto.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := e.transactions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := lookup.New(e.accounts, e.materials)
	items := make([]dto.TransactionResponse, 0, len(list))
	for _, tx := range list {
		out, err := e.hydrate(ctx, names, tx)
		if err != nil {
			return nil, err
		}
		items = append(items, *out)
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  page.Meta(len(items)),
	}, nil
}

func (e *Engine) hydrate(ctx context.Context, names *lookup.Names, tx *entity.Transaction) (*dto.TransactionResponse, error) {
	out := &dto.TransactionResponse{
		ID:             tx.ID,
		Date:           tx.Date.Format(dto.DateLayout),
		ReferenceID:    tx.ReferenceID,
		Description:    tx.Description,
		Type:           string(tx.Type),
		Status:         tx.Status,
		CreatedBy:      tx.CreatedBy,
		CreatedAt:      tx.CreatedAt,
		PostedAt:       tx.PostedAt,
		Transfers:      make([]dto.TransferResponse, 0, len(tx.Transfers)),
		Allocations:    make([]dto.AllocationResponse, 0, len(tx.Allocations)),
		CreatedBatches: []dto.BatchResponse{},
	}

	var sourceIDs []string
	for _, t := range tx.Transfers {
		if t.Source.IsBatch() {
			sourceIDs = append(sourceIDs, t.Source.BatchID)
		}
	}
	sourceLots := make(map[string]string)
	if len(sourceIDs) > 0 {
		sources, err := e.batches.GetMany(ctx, sourceIDs)
		if err != nil {
			return nil, err
		}
		for _, b := range sources {
			sourceLots[b.ID] = b.LotNumber
		}
	}
	for _, t := range tx.Transfers {
		out.Transfers = append(out.Transfers, dto.TransferResponse{
			ID:                     t.ID,
			Position:               t.Position,
			SourceAccountID:        t.SourceAccountID,
			SourceAccountName:      names.AccountName(ctx, t.SourceAccountID),
			DestinationAccountID:   t.DestinationAccountID,
			DestinationAccountName: names.AccountName(ctx, t.DestinationAccountID),
			MaterialID:             t.MaterialID,
			MaterialName:           names.MaterialName(ctx, t.MaterialID),
			Amount:                 t.Amount,
			Unit:                   t.Unit,
			Source:                 dto.NewSourceDTO(t.Source),
			SourceBatchLot:         sourceLots[t.Source.BatchID],
		})
	}

	var createdIDs []string
	links := make([]int, len(tx.Allocations))
	for i, a := range tx.Allocations {
		links[i] = -1
		if a.TransferIndex != nil {
			links[i] = *a.TransferIndex
		}
		if a.CreatedBatchID != nil {
			createdIDs = append(createdIDs, *a.CreatedBatchID)
		}
		out.Allocations = append(out.Allocations, dto.AllocationResponse{
			ID:             a.ID,
			Position:       a.Position,
			MaterialID:     a.MaterialID,
			MaterialName:   names.MaterialName(ctx, a.MaterialID),
			AccountID:      a.AccountID,
			TransferIndex:  a.TransferIndex,
			Quantity:       a.Quantity,
			Unit:           a.Unit,
			LotNumber:      a.LotNumber,
			CreatedBatchID: a.CreatedBatchID,
		})
	}
	if len(createdIDs) > 0 {
		created, err := e.batches.GetMany(ctx, createdIDs)
		if err != nil {
			return nil, err
		}
		for _, b := range created {
			out.CreatedBatches = append(out.CreatedBatches,
				dto.NewBatchResponse(b, names.MaterialName(ctx, b.MaterialID), names.AccountName(ctx, b.AccountID)))
		}
	}

	balance := ledger.ComputeBalance(tx.Transfers, tx.Allocations, links)
	out.Balance = dto.BalanceSummaryDTO{
		Balanced:  balance.Balanced(),
		Indicator: "Unbalanced",
		Materials: make([]dto.MaterialBalanceDTO, 0, len(balance.Materials)),
	}
	if out.Balance.Balanced {
		out.Balance.Indicator = "Balanced"
	}
	for _, m := range balance.Materials {
		out.Balance.Materials = append(out.Balance.Materials, dto.MaterialBalanceDTO{
			MaterialID:   m.MaterialID,
			MaterialName: names.MaterialName(ctx, m.MaterialID),
			Leaving:      m.Leaving,
			Arriving:     m.Arriving,
			Balanced:     m.Balanced(),
		})
	}
	return out, nil
}
