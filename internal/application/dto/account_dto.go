package dto

import "time"

// CreateAccountRequest entrada para crear una cuenta.
type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Category    string `json:"category" validate:"required,oneof=stock input output"`
	Description string `json:"description" validate:"max=1000"`
	IsDefault   bool   `json:"is_default"`
}

// AccountResponse salida de una cuenta.
type AccountResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"is_default"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccountListResponse lista paginada de cuentas.
type AccountListResponse struct {
	Items []AccountResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
