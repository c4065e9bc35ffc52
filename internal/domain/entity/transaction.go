package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción.
type TransactionType string

const (
	TransactionTypeTransfer    TransactionType = "transfer"    // movimiento entre cuentas
	TransactionTypePurchase    TransactionType = "purchase"    // entrada de material nuevo
	TransactionTypeConsumption TransactionType = "consumption" // salida / consumo
	TransactionTypeAdjustment  TransactionType = "adjustment"  // corrección
	TransactionTypeProduction  TransactionType = "production"  // transformación de insumos en producto
)

// Valid indica si el tipo pertenece al catálogo.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypePurchase, TransactionTypeConsumption,
		TransactionTypeAdjustment, TransactionTypeProduction:
		return true
	}
	return false
}

// Estados de transacción: draft -> posted | void.
const (
	TransactionStatusDraft  = "draft"
	TransactionStatusPosted = "posted"
	TransactionStatusVoid   = "void"
)

// SourceKind discrimina el origen de una transferencia.
type SourceKind string

const (
	SourceKindBatch        SourceKind = "batch"         // descuenta de un lote concreto
	SourceKindAccountTotal SourceKind = "account_total" // total implícito de la cuenta, sin lote
)

// TransferSource es la variante etiquetada del origen: lote o total de cuenta.
type TransferSource struct {
	Kind    SourceKind
	BatchID string // solo con Kind == SourceKindBatch
}

// BatchSource construye un origen de lote.
func BatchSource(batchID string) TransferSource {
	return TransferSource{Kind: SourceKindBatch, BatchID: batchID}
}

// AccountTotalSource construye un origen de total de cuenta.
func AccountTotalSource() TransferSource {
	return TransferSource{Kind: SourceKindAccountTotal}
}

// IsBatch indica si el origen es un lote.
func (s TransferSource) IsBatch() bool {
	return s.Kind == SourceKindBatch
}

// Transfer es una línea de la transacción: material que sale de una cuenta y llega a otra.
// La dirección la dan origen/destino; Amount es siempre positivo.
type Transfer struct {
	ID                   string
	TransactionID        string
	Position             int
	SourceAccountID      string
	DestinationAccountID string
	MaterialID           string
	Amount               decimal.Decimal
	Unit                 string
	Source               TransferSource
}

// BatchAllocation es la instrucción de crear un lote nuevo al contabilizar.
type BatchAllocation struct {
	ID               string
	TransactionID    string
	Position         int
	MaterialID       string
	AccountID        string // resuelta (explícita o por la transferencia asociada)
	TransferIndex    *int
	Quantity         decimal.Decimal
	Unit             string
	LotNumber        string
	ExpirationDate   *time.Time
	QualityGrade     string
	StorageCondition string
	Location         string
	CreatedBatchID   *string // se completa al contabilizar
}

// Transaction agrupa transferencias y asignaciones que se contabilizan de forma atómica.
// Una vez posted es inmutable: la corrección es otra transacción.
type Transaction struct {
	ID          string
	Date        time.Time
	ReferenceID string
	Description string
	Type        TransactionType
	Status      string
	CreatedBy   string
	CreatedAt   time.Time
	PostedAt    *time.Time
	Transfers   []Transfer
	Allocations []BatchAllocation
}

// Clone devuelve una copia profunda.
func (t Transaction) Clone() Transaction {
	t.Transfers = append([]Transfer(nil), t.Transfers...)
	allocs := make([]BatchAllocation, len(t.Allocations))
	for i, a := range t.Allocations {
		if a.TransferIndex != nil {
			v := *a.TransferIndex
			a.TransferIndex = &v
		}
		if a.CreatedBatchID != nil {
			v := *a.CreatedBatchID
			a.CreatedBatchID = &v
		}
		if a.ExpirationDate != nil {
			v := *a.ExpirationDate
			a.ExpirationDate = &v
		}
		allocs[i] = a
	}
	t.Allocations = allocs
	if t.PostedAt != nil {
		v := *t.PostedAt
		t.PostedAt = &v
	}
	return t
}

// BatchDraw es una transferencia que descontó de un lote, con la cabecera de su transacción.
type BatchDraw struct {
	Transfer    Transfer
	Transaction Transaction // sin líneas
}
