package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// LineageRenderer genera el certificado PDF de una genealogía.
type LineageRenderer interface {
	Generate(view *dto.LineageView) ([]byte, error)
}

// BatchHandler consulta de lotes, genealogía e historial de uso.
type BatchHandler struct {
	handlerBase
	resolver *lineage.Resolver
	pdf      LineageRenderer
}

// NewBatchHandler construye el handler. pdf puede ser nil (la ruta .pdf responde 501).
func NewBatchHandler(resolver *lineage.Resolver, pdf LineageRenderer, log zerolog.Logger) *BatchHandler {
	return &BatchHandler{handlerBase: handlerBase{log: log}, resolver: resolver, pdf: pdf}
}

// List godoc
// @Summary      Listar lotes
// @Tags         batches
// @Produce      json
// @Param        material_id  query  string  false  "Material"
// @Param        account_id   query  string  false  "Cuenta"
// @Param        status       query  string  false  "active | depleted | expired"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.BatchListResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	out, err := h.resolver.ListBatches(c.UserContext(), repository.BatchFilter{
		MaterialID: c.Query("material_id"),
		AccountID:  c.Query("account_id"),
		Status:     c.Query("status"),
		Limit:      c.QueryInt("limit", 20),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener lote
// @Tags         batches
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.resolver.GetBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// Lineage godoc
// @Summary      Genealogía del lote
// @Tags         batches
// @Produce      json
// @Param        id     path   string  true   "ID del lote"
// @Param        depth  query  int     false  "Niveles (máx. 10)"  default(1)
// @Success      200  {object}  dto.LineageView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/lineage [get]
func (h *BatchHandler) Lineage(c *fiber.Ctx) error {
	out, err := h.resolver.ResolveLineage(c.UserContext(), c.Params("id"), c.QueryInt("depth", 1))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// LineagePDF godoc
// @Summary      Certificado de trazabilidad en PDF
// @Tags         batches
// @Produce      application/pdf
// @Param        id     path   string  true   "ID del lote"
// @Param        depth  query  int     false  "Niveles (máx. 10)"  default(3)
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/lineage.pdf [get]
func (h *BatchHandler) LineagePDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "generador PDF no configurado"})
	}
	id := c.Params("id")
	view, err := h.resolver.ResolveLineage(c.UserContext(), id, c.QueryInt("depth", 3))
	if err != nil {
		return h.respondError(c, err)
	}
	doc, err := h.pdf.Generate(view)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="lote_%s.pdf"`, id))
	return c.Send(doc)
}

// Usage godoc
// @Summary      Historial de uso del lote
// @Tags         batches
// @Produce      json
// @Param        id     path   string  true   "ID del lote"
// @Param        order  query  string  false  "asc | desc"  default(asc)
// @Success      200  {object}  dto.UsageHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/usage [get]
func (h *BatchHandler) Usage(c *fiber.Ctx) error {
	out, err := h.resolver.ResolveUsageHistory(c.UserContext(), c.Params("id"), c.Query("order"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}
