package ledger

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// PostFromRequest adapta el request HTTP al motor PostTransaction(ctx, PostRequest).
func (e *Engine) PostFromRequest(ctx context.Context, userID string, in dto.PostTransactionRequest) (*dto.TransactionResponse, error) {
	return e.PostTransaction(ctx, FromDTO(userID, in))
}

// SaveDraftFromRequest adapta el request HTTP a SaveDraft.
func (e *Engine) SaveDraftFromRequest(ctx context.Context, userID string, in dto.PostTransactionRequest) (*dto.TransactionResponse, error) {
	return e.SaveDraft(ctx, FromDTO(userID, in))
}

// FromDTO convierte el modelo de transporte al del motor. El origen de cada transferencia se
// toma de source o, si no viene, del campo heredado source_batch_id (vacío = total de cuenta).
func FromDTO(userID string, in dto.PostTransactionRequest) PostRequest {
	req := PostRequest{
		Date:            in.Date,
		TransactionType: in.TransactionType,
		ReferenceID:     in.ReferenceID,
		Description:     in.Description,
		CreatedBy:       userID,
	}
	for _, t := range in.Transfers {
		req.Transfers = append(req.Transfers, TransferInput{
			SourceAccountID:      t.SourceAccountID,
			DestinationAccountID: t.DestinationAccountID,
			MaterialID:           t.MaterialID,
			Amount:               t.Amount,
			Unit:                 t.Unit,
			Source:               sourceFromDTO(t),
		})
	}
	for _, a := range in.BatchAllocations {
		req.Allocations = append(req.Allocations, AllocationInput{
			MaterialID:       a.MaterialID,
			AccountID:        a.AccountID,
			TransferIndex:    a.TransferIndex,
			Quantity:         a.Quantity,
			Unit:             a.Unit,
			LotNumber:        a.LotNumber,
			ExpirationDate:   a.ExpirationDate,
			QualityGrade:     a.QualityGrade,
			StorageCondition: a.StorageCondition,
			Location:         a.Location,
		})
	}
	return req
}

func sourceFromDTO(t dto.TransferRequest) entity.TransferSource {
	if t.Source != nil {
		return entity.TransferSource{Kind: entity.SourceKind(t.Source.Kind), BatchID: t.Source.BatchID}
	}
	if t.SourceBatchID != nil && *t.SourceBatchID != "" {
		return entity.BatchSource(*t.SourceBatchID)
	}
	return entity.AccountTotalSource()
}
