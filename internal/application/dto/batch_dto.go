package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchResponse lote con nombres de material y cuenta resueltos.
type BatchResponse struct {
	ID                       string          `json:"id"`
	MaterialID               string          `json:"material_id"`
	MaterialName             string          `json:"material_name,omitempty"`
	AccountID                string          `json:"account_id"`
	AccountName              string          `json:"account_name,omitempty"`
	Quantity                 decimal.Decimal `json:"quantity"`
	InitialQuantity          decimal.Decimal `json:"initial_quantity"`
	Unit                     string          `json:"unit"`
	Status                   string          `json:"status"`
	LotNumber                string          `json:"lot_number,omitempty"`
	ExpirationDate           *string         `json:"expiration_date,omitempty"`
	QualityGrade             string          `json:"quality_grade,omitempty"`
	StorageCondition         string          `json:"storage_condition,omitempty"`
	Location                 string          `json:"location,omitempty"`
	OriginatingTransactionID *string         `json:"originating_transaction_id"`
	SourceBatchIDs           []string        `json:"source_batch_ids"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// BatchListResponse lista paginada de lotes.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// ExpireBatchesResponse resultado de una corrida de vencimiento.
type ExpireBatchesResponse struct {
	AsOf    string `json:"as_of"`
	Expired int    `json:"expired"`
}
