package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// SaveDraft guarda la transacción como borrador sin tocar lotes. Solo valida fecha, tipo y forma;
// las referencias se validan al contabilizar.
func (e *Engine) SaveDraft(ctx context.Context, req PostRequest) (*dto.TransactionResponse, error) {
	date, txType, err := validateShape(req)
	if err != nil {
		return nil, err
	}
	now := e.now()
	tx := &entity.Transaction{
		ID:          uuid.New().String(),
		Date:        date,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Type:        txType,
		Status:      entity.TransactionStatusDraft,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
	}
	for i, in := range req.Transfers {
		tx.Transfers = append(tx.Transfers, entity.Transfer{
			ID:                   uuid.New().String(),
			TransactionID:        tx.ID,
			Position:             i,
			SourceAccountID:      in.SourceAccountID,
			DestinationAccountID: in.DestinationAccountID,
			MaterialID:           in.MaterialID,
			Amount:               in.Amount,
			Unit:                 in.Unit,
			Source:               in.Source,
		})
	}
	for i, in := range req.Allocations {
		a := entity.BatchAllocation{
			ID:               uuid.New().String(),
			TransactionID:    tx.ID,
			Position:         i,
			MaterialID:       in.MaterialID,
			AccountID:        in.AccountID,
			TransferIndex:    in.TransferIndex,
			Quantity:         in.Quantity,
			Unit:             in.Unit,
			LotNumber:        in.LotNumber,
			QualityGrade:     in.QualityGrade,
			StorageCondition: in.StorageCondition,
			Location:         in.Location,
		}
		if in.ExpirationDate != "" {
			t, ok := parseDate(in.ExpirationDate)
			if !ok {
				return nil, domain.NewLedgerError(fieldErr(domain.KindValidation,
					fmt.Sprintf("batch_allocations[%d].expiration_date", i), domain.IntPtr(i), "fecha de vencimiento inválida"))
			}
			a.ExpirationDate = &t
		}
		tx.Allocations = append(tx.Allocations, a)
	}

	err = e.txRunner.Run(ctx, func(txRepo repository.TransactionRepository, _ repository.BatchRepository) error {
		return txRepo.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("transaction_id", tx.ID).Msg("borrador guardado")
	return e.GetTransaction(ctx, tx.ID)
}

// PostDraft contabiliza un borrador con validación completa contra el estado actual.
func (e *Engine) PostDraft(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	cur, err := e.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
	}
	if cur.Status != entity.TransactionStatusDraft {
		return nil, fmt.Errorf("transacción %s en estado %s: %w", id, cur.Status, domain.ErrImmutableTransaction)
	}
	return e.post(ctx, requestFromDraft(cur), id)
}

// VoidDraft anula un borrador. Lo contabilizado no se anula: se corrige con otra transacción.
func (e *Engine) VoidDraft(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	err := e.txRunner.Run(ctx, func(txRepo repository.TransactionRepository, _ repository.BatchRepository) error {
		cur, err := txRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("transacción %s: %w", id, domain.ErrNotFound)
		}
		if cur.Status != entity.TransactionStatusDraft {
			return fmt.Errorf("transacción %s en estado %s: %w", id, cur.Status, domain.ErrImmutableTransaction)
		}
		return txRepo.MarkVoid(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("transaction_id", id).Msg("borrador anulado")
	return e.GetTransaction(ctx, id)
}

func requestFromDraft(tx *entity.Transaction) PostRequest {
	req := PostRequest{
		Date:            tx.Date.Format(dto.DateLayout),
		TransactionType: string(tx.Type),
		ReferenceID:     tx.ReferenceID,
		Description:     tx.Description,
		CreatedBy:       tx.CreatedBy,
	}
	for _, t := range tx.Transfers {
		req.Transfers = append(req.Transfers, TransferInput{
			ID:                   t.ID,
			SourceAccountID:      t.SourceAccountID,
			DestinationAccountID: t.DestinationAccountID,
			MaterialID:           t.MaterialID,
			Amount:               t.Amount,
			Unit:                 t.Unit,
			Source:               t.Source,
		})
	}
	for _, a := range tx.Allocations {
		in := AllocationInput{
			ID:               a.ID,
			MaterialID:       a.MaterialID,
			AccountID:        a.AccountID,
			TransferIndex:    a.TransferIndex,
			Quantity:         a.Quantity,
			Unit:             a.Unit,
			LotNumber:        a.LotNumber,
			QualityGrade:     a.QualityGrade,
			StorageCondition: a.StorageCondition,
			Location:         a.Location,
		}
		if a.ExpirationDate != nil {
			in.ExpirationDate = a.ExpirationDate.Format(dto.DateLayout)
		}
		req.Allocations = append(req.Allocations, in)
	}
	return req
}
