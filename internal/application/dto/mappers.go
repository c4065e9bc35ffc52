package dto

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// DateLayout formato de fechas de negocio (transacciones, vencimientos).
const DateLayout = "2006-01-02"

// NewBatchResponse convierte un lote con los nombres ya resueltos.
func NewBatchResponse(b *entity.Batch, materialName, accountName string) BatchResponse {
	out := BatchResponse{
		ID:                       b.ID,
		MaterialID:               b.MaterialID,
		MaterialName:             materialName,
		AccountID:                b.AccountID,
		AccountName:              accountName,
		Quantity:                 b.Quantity,
		InitialQuantity:          b.InitialQuantity,
		Unit:                     b.Unit,
		Status:                   b.Status,
		LotNumber:                b.LotNumber,
		QualityGrade:             b.QualityGrade,
		StorageCondition:         b.StorageCondition,
		Location:                 b.Location,
		OriginatingTransactionID: b.OriginatingTransactionID,
		SourceBatchIDs:           b.SourceBatchIDs,
		CreatedAt:                b.CreatedAt,
		UpdatedAt:                b.UpdatedAt,
	}
	if out.SourceBatchIDs == nil {
		out.SourceBatchIDs = []string{}
	}
	if b.ExpirationDate != nil {
		s := b.ExpirationDate.Format(DateLayout)
		out.ExpirationDate = &s
	}
	return out
}

// NewAccountResponse convierte una cuenta.
func NewAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Name:        a.Name,
		Category:    string(a.Category),
		Description: a.Description,
		IsDefault:   a.IsDefault,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// NewMaterialResponse convierte un material.
func NewMaterialResponse(m *entity.Material, categoryName string) MaterialResponse {
	return MaterialResponse{
		ID:            m.ID,
		Name:          m.Name,
		CategoryID:    m.CategoryID,
		CategoryName:  categoryName,
		UnitOfMeasure: m.UnitOfMeasure,
		ReorderPoint:  m.ReorderPoint,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// NewTransactionSummary cabecera de transacción para vistas de genealogía.
func NewTransactionSummary(t *entity.Transaction) *TransactionSummaryDTO {
	return &TransactionSummaryDTO{
		ID:          t.ID,
		Date:        t.Date.Format(DateLayout),
		ReferenceID: t.ReferenceID,
		Description: t.Description,
		Type:        string(t.Type),
	}
}

// NewSourceDTO convierte la variante de origen al formato de respuesta.
func NewSourceDTO(s entity.TransferSource) TransferSourceDTO {
	return TransferSourceDTO{Kind: string(s.Kind), BatchID: s.BatchID}
}
