package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de lote.
const (
	BatchStatusActive   = "active"
	BatchStatusDepleted = "depleted" // cantidad llegó a 0 por una transferencia
	BatchStatusExpired  = "expired"  // marcado por el job de vencimiento
)

// Batch representa una cantidad identificada de un material en una cuenta, con su procedencia.
// SourceBatchIDs y OriginatingTransactionID son la arista del grafo de genealogía.
type Batch struct {
	ID                       string
	MaterialID               string
	AccountID                string
	Quantity                 decimal.Decimal
	InitialQuantity          decimal.Decimal
	Unit                     string
	Status                   string
	LotNumber                string
	ExpirationDate           *time.Time
	QualityGrade             string
	StorageCondition         string
	Location                 string
	OriginatingTransactionID *string // nil para lotes raíz
	SourceBatchIDs           []string
	Version                  int64 // token de concurrencia optimista
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// IsActive indica si se puede descontar del lote.
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// Clone devuelve una copia profunda (los slices no se comparten).
func (b Batch) Clone() Batch {
	if b.SourceBatchIDs != nil {
		b.SourceBatchIDs = append([]string(nil), b.SourceBatchIDs...)
	}
	if b.ExpirationDate != nil {
		t := *b.ExpirationDate
		b.ExpirationDate = &t
	}
	if b.OriginatingTransactionID != nil {
		s := *b.OriginatingTransactionID
		b.OriginatingTransactionID = &s
	}
	return b
}
