package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSummaryDTO cabecera de transacción usada en vistas de genealogía.
type TransactionSummaryDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	ReferenceID string `json:"reference_id"`
	Description string `json:"description"`
	Type        string `json:"transaction_type"`
}

// LineageInputDTO lote de entrada consumido por la transacción de origen.
type LineageInputDTO struct {
	BatchID      string          `json:"batch_id"`
	LotNumber    string          `json:"lot_number,omitempty"`
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Unit         string          `json:"unit"`
	AccountID    string          `json:"account_id"`
	AccountName  string          `json:"account_name"`
	Lineage      *LineageView    `json:"lineage,omitempty"` // solo con depth > 1
}

// LineageView genealogía de un lote: transacción de origen, entradas y lote de salida.
type LineageView struct {
	SourceTransaction *TransactionSummaryDTO `json:"source_transaction"`
	InputBatches      []LineageInputDTO      `json:"input_batches"`
	OutputBatch       BatchResponse          `json:"output_batch"`
}

// BatchSummaryDTO lote resumido dentro de una distribución.
type BatchSummaryDTO struct {
	BatchID        string          `json:"batch_id"`
	LotNumber      string          `json:"lot_number,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *string         `json:"expiration_date,omitempty"`
}

// AccountDistributionDTO cantidad activa de un material en una cuenta.
type AccountDistributionDTO struct {
	AccountID     string            `json:"account_id"`
	AccountName   string            `json:"account_name"`
	Category      string            `json:"category"`
	TotalQuantity decimal.Decimal   `json:"total_quantity"`
	BatchCount    int               `json:"batch_count"`
	Batches       []BatchSummaryDTO `json:"batches"`
}

// DistributionResponse distribución de un material entre cuentas.
type DistributionResponse struct {
	MaterialID    string                   `json:"material_id"`
	MaterialName  string                   `json:"material_name"`
	Unit          string                   `json:"unit"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	Accounts      []AccountDistributionDTO `json:"accounts"`
}

// UsageEntryDTO evento de uso de un lote.
type UsageEntryDTO struct {
	Direction      string                `json:"direction"` // in = creación, out = descuento
	Transaction    TransactionSummaryDTO `json:"transaction"`
	TransferID     string                `json:"transfer_id,omitempty"`
	Amount         decimal.Decimal       `json:"amount"`
	Unit           string                `json:"unit"`
	CounterpartID  string                `json:"counterpart_account_id,omitempty"`
	Counterpart    string                `json:"counterpart_account_name,omitempty"`
	CreatedBatches []string              `json:"created_batch_ids"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// UsageHistoryResponse historial de uso con el orden aplicado.
type UsageHistoryResponse struct {
	BatchID string          `json:"batch_id"`
	Order   string          `json:"order"`
	Entries []UsageEntryDTO `json:"entries"`
}

// TrackedMaterialDTO material presente en una cuenta.
type TrackedMaterialDTO struct {
	MaterialID    string          `json:"material_id"`
	MaterialName  string          `json:"material_name"`
	CategoryID    string          `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	Unit          string          `json:"unit"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	BatchCount    int             `json:"batch_count"`
}

// AccountDetailResponse cuenta con sus materiales rastreados.
type AccountDetailResponse struct {
	Account   AccountResponse      `json:"account"`
	Materials []TrackedMaterialDTO `json:"materials"`
}
