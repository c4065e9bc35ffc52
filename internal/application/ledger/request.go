package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// PostRequest entrada del motor. Date y TransactionType llegan como texto y se validan aquí
// porque el orden de validación forma parte del contrato.
type PostRequest struct {
	Date            string
	TransactionType string
	ReferenceID     string
	Description     string
	CreatedBy       string
	Transfers       []TransferInput
	Allocations     []AllocationInput
}

// TransferInput línea de transferencia solicitada. ID vacío = se genera.
type TransferInput struct {
	ID                   string
	SourceAccountID      string
	DestinationAccountID string
	MaterialID           string
	Amount               decimal.Decimal
	Unit                 string
	Source               entity.TransferSource
}

// AllocationInput lote a crear. AccountID vacío = destino de la transferencia asociada.
type AllocationInput struct {
	ID               string
	MaterialID       string
	AccountID        string
	TransferIndex    *int
	Quantity         decimal.Decimal
	Unit             string
	LotNumber        string
	ExpirationDate   string
	QualityGrade     string
	StorageCondition string
	Location         string
}
