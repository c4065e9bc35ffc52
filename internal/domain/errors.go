package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientQuantity  = errors.New("cantidad insuficiente en el lote")
	ErrImbalancedTransaction = errors.New("transacción desbalanceada")
	ErrInactiveAccount       = errors.New("cuenta inactiva")
	ErrConcurrencyConflict   = errors.New("conflicto de concurrencia")
	ErrImmutableTransaction  = errors.New("la transacción ya no es editable")
	ErrDefaultAccount        = errors.New("la cuenta por defecto no se puede archivar")
	ErrDuplicateDefault      = errors.New("ya existe una cuenta por defecto para la categoría")
)

// ErrorKind clasifica un error del libro mayor; viaja tal cual en las respuestas HTTP.
type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindInsufficientQuantity ErrorKind = "INSUFFICIENT_QUANTITY"
	KindImbalanced           ErrorKind = "IMBALANCED_TRANSACTION"
	KindInactiveAccount      ErrorKind = "INACTIVE_ACCOUNT"
	KindConcurrencyConflict  ErrorKind = "CONCURRENCY_CONFLICT"
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:           ErrInvalidInput,
	KindNotFound:             ErrNotFound,
	KindInsufficientQuantity: ErrInsufficientQuantity,
	KindImbalanced:           ErrImbalancedTransaction,
	KindInactiveAccount:      ErrInactiveAccount,
	KindConcurrencyConflict:  ErrConcurrencyConflict,
}

// FieldError describe un problema concreto en un campo del request.
// Index apunta a la transferencia (o asignación) afectada cuando aplica.
type FieldError struct {
	Kind      ErrorKind        `json:"kind"`
	Field     string           `json:"field"`
	Index     *int             `json:"index,omitempty"`
	Message   string           `json:"message"`
	Available *decimal.Decimal `json:"available,omitempty"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
}

// LedgerError agrupa los errores de una misma clase de validación.
// Kind es el de la primera falla; cada FieldError conserva el suyo.
type LedgerError struct {
	Kind   ErrorKind
	Fields []FieldError
}

// NewLedgerError construye un LedgerError a partir de una lista no vacía de fallas.
func NewLedgerError(fields ...FieldError) *LedgerError {
	e := &LedgerError{Fields: fields}
	if len(fields) > 0 {
		e.Kind = fields[0].Kind
	}
	return e
}

// ConflictError devuelve el error de concurrencia sin campo asociado.
func ConflictError(msg string) *LedgerError {
	return NewLedgerError(FieldError{Kind: KindConcurrencyConflict, Message: msg})
}

func (e *LedgerError) Error() string {
	if len(e.Fields) == 0 {
		return string(e.Kind)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
			continue
		}
		parts = append(parts, f.Message)
	}
	return fmt.Sprintf("%s: %s", strings.ToLower(string(e.Kind)), strings.Join(parts, "; "))
}

// Is permite errors.Is(err, domain.ErrInsufficientQuantity) y similares.
func (e *LedgerError) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// HasKind indica si alguna de las fallas es del tipo indicado.
func (e *LedgerError) HasKind(k ErrorKind) bool {
	for _, f := range e.Fields {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// KindOf extrae el ErrorKind de cualquier error del dominio; vacío si no se reconoce.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	for k, s := range kindSentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return ""
}

// IntPtr utilitario para FieldError.Index.
func IntPtr(i int) *int { return &i }
