package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostTransactionRequest entrada para contabilizar (o guardar como borrador) una transacción.
type PostTransactionRequest struct {
	Date             string                   `json:"date"`
	ReferenceID      string                   `json:"reference_id"`
	Description      string                   `json:"description"`
	TransactionType  string                   `json:"transaction_type"`
	Transfers        []TransferRequest        `json:"transfers"`
	BatchAllocations []BatchAllocationRequest `json:"batch_allocations"`
}

// TransferSourceDTO origen explícito de una transferencia: {"kind":"batch","batch_id":...} o {"kind":"account_total"}.
type TransferSourceDTO struct {
	Kind    string `json:"kind"`
	BatchID string `json:"batch_id,omitempty"`
}

// TransferRequest línea de transferencia. Acepta source o el campo heredado source_batch_id.
type TransferRequest struct {
	SourceAccountID      string             `json:"source_account_id"`
	DestinationAccountID string             `json:"destination_account_id"`
	MaterialID           string             `json:"material_id"`
	Amount               decimal.Decimal    `json:"amount"`
	Unit                 string             `json:"unit"`
	Source               *TransferSourceDTO `json:"source,omitempty"`
	SourceBatchID        *string            `json:"source_batch_id,omitempty"`
}

// BatchAllocationRequest instrucción de crear un lote nuevo.
type BatchAllocationRequest struct {
	MaterialID       string          `json:"material_id"`
	AccountID        string          `json:"account_id,omitempty"`
	TransferIndex    *int            `json:"transfer_index,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit,omitempty"`
	LotNumber        string          `json:"lot_number,omitempty"`
	ExpirationDate   string          `json:"expiration_date,omitempty"`
	QualityGrade     string          `json:"quality_grade,omitempty"`
	StorageCondition string          `json:"storage_condition,omitempty"`
	Location         string          `json:"location,omitempty"`
}

// TransferResponse transferencia con nombres resueltos.
type TransferResponse struct {
	ID                     string            `json:"id"`
	Position               int               `json:"position"`
	SourceAccountID        string            `json:"source_account_id"`
	SourceAccountName      string            `json:"source_account_name"`
	DestinationAccountID   string            `json:"destination_account_id"`
	DestinationAccountName string            `json:"destination_account_name"`
	MaterialID             string            `json:"material_id"`
	MaterialName           string            `json:"material_name"`
	Amount                 decimal.Decimal   `json:"amount"`
	Unit                   string            `json:"unit"`
	Source                 TransferSourceDTO `json:"source"`
	SourceBatchLot         string            `json:"source_batch_lot,omitempty"`
}

// AllocationResponse asignación de lote y el lote que creó (si ya se contabilizó).
type AllocationResponse struct {
	ID             string          `json:"id"`
	Position       int             `json:"position"`
	MaterialID     string          `json:"material_id"`
	MaterialName   string          `json:"material_name"`
	AccountID      string          `json:"account_id"`
	TransferIndex  *int            `json:"transfer_index,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	LotNumber      string          `json:"lot_number,omitempty"`
	CreatedBatchID *string         `json:"created_batch_id"`
}

// MaterialBalanceDTO débito / crédito de un material dentro de la transacción.
type MaterialBalanceDTO struct {
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Leaving      decimal.Decimal `json:"leaving"`
	Arriving     decimal.Decimal `json:"arriving"`
	Balanced     bool            `json:"balanced"`
}

// BalanceSummaryDTO indicador Balanced / Unbalanced.
type BalanceSummaryDTO struct {
	Balanced  bool                 `json:"balanced"`
	Indicator string               `json:"indicator"`
	Materials []MaterialBalanceDTO `json:"materials"`
}

// TransactionResponse transacción hidratada.
type TransactionResponse struct {
	ID             string               `json:"id"`
	Date           string               `json:"date"`
	ReferenceID    string               `json:"reference_id"`
	Description    string               `json:"description"`
	Type           string               `json:"transaction_type"`
	Status         string               `json:"status"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	PostedAt       *time.Time           `json:"posted_at,omitempty"`
	Transfers      []TransferResponse   `json:"transfers"`
	Allocations    []AllocationResponse `json:"batch_allocations"`
	CreatedBatches []BatchResponse      `json:"created_batches"`
	Balance        BalanceSummaryDTO    `json:"balance"`
}

// TransactionListResponse lista paginada (más recientes primero).
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
