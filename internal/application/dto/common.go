package dto

import "github.com/jhoicas/Trazabilidad-api/internal/domain"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// NewPage normaliza limit/offset recibidos por query o filtro.
func NewPage(limit, offset int) PageRequest {
	p := PageRequest{Limit: limit, Offset: offset}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultPageLimit
	case p.Limit > maxPageLimit:
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Meta metadatos de la página; total <= 0 lo omite.
func (p PageRequest) Meta(total int) PageResponse {
	r := PageResponse{Limit: p.Limit, Offset: p.Offset}
	if total > 0 {
		r.Total = total
	}
	return r
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. FieldErrors lista cada falla con su tipo e índice.
type ErrorResponse struct {
	Code        string              `json:"code"`
	Message     string              `json:"message"`
	FieldErrors []domain.FieldError `json:"field_errors,omitempty"`
}
