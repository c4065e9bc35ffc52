package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialCategoryRequest entrada para crear una categoría de materiales.
type CreateMaterialCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// MaterialCategoryResponse salida de una categoría.
type MaterialCategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateMaterialRequest entrada para crear un material.
type CreateMaterialRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	CategoryID    string           `json:"category_id" validate:"required,uuid"`
	UnitOfMeasure string           `json:"unit_of_measure" validate:"required,max=30"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point"`
	Description   string           `json:"description" validate:"max=1000"`
}

// MaterialResponse salida de un material.
type MaterialResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	CategoryID    string           `json:"category_id"`
	CategoryName  string           `json:"category_name,omitempty"`
	UnitOfMeasure string           `json:"unit_of_measure"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
	Description   string           `json:"description"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// MaterialListResponse lista paginada de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockAlertDTO material bajo el punto de reorden, con el faltante.
type LowStockAlertDTO struct {
	MaterialID    string          `json:"material_id"`
	MaterialName  string          `json:"material_name"`
	CategoryID    string          `json:"category_id"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	CurrentTotal  decimal.Decimal `json:"current_total"`
	Shortfall     decimal.Decimal `json:"shortfall"`
	Priority      int             `json:"priority"` // 1 = más urgente
}
