package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialCategory agrupa materiales del catálogo.
type MaterialCategory struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Material representa un tipo de material rastreable con su unidad de medida.
type Material struct {
	ID            string
	Name          string
	CategoryID    string
	UnitOfMeasure string
	ReorderPoint  *decimal.Decimal // nil = sin alerta de reposición
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
