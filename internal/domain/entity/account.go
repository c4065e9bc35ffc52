package entity

import "time"

// Categorías de cuenta.
type AccountCategory string

const (
	AccountCategoryStock  AccountCategory = "stock"  // existencias propias
	AccountCategoryInput  AccountCategory = "input"  // proveedores / orígenes externos
	AccountCategoryOutput AccountCategory = "output" // consumo / destinos externos
)

// Estados de cuenta.
const (
	AccountStatusActive   = "active"
	AccountStatusArchived = "archived"
)

// Valid indica si la categoría pertenece al catálogo.
func (c AccountCategory) Valid() bool {
	switch c {
	case AccountCategoryStock, AccountCategoryInput, AccountCategoryOutput:
		return true
	}
	return false
}

// Account representa una ubicación lógica que puede contener o recibir material.
// Nunca se elimina; solo se archiva.
type Account struct {
	ID          string
	Name        string
	Category    AccountCategory
	Description string
	IsDefault   bool // a lo sumo una por categoría
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive indica si la cuenta acepta transferencias.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
