package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// DistributionExporter genera el libro de Excel de una distribución.
type DistributionExporter interface {
	Generate(d *dto.DistributionResponse) ([]byte, error)
}

// MaterialHandler catálogo de materiales, alertas de reorden y distribución.
type MaterialHandler struct {
	handlerBase
	uc       *usecase.MaterialUseCase
	alerts   *usecase.StockAlertUseCase
	resolver *lineage.Resolver
	xlsx     DistributionExporter
}

// NewMaterialHandler construye el handler. xlsx puede ser nil.
func NewMaterialHandler(uc *usecase.MaterialUseCase, alerts *usecase.StockAlertUseCase, resolver *lineage.Resolver, xlsx DistributionExporter, log zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{handlerBase: handlerBase{log: log}, uc: uc, alerts: alerts, resolver: resolver, xlsx: xlsx}
}

// CreateCategory godoc
// @Summary      Crear categoría de materiales
// @Tags         materials
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialCategoryRequest  true  "Categoría"
// @Success      201   {object}  dto.MaterialCategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/material-categories [post]
func (h *MaterialHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CreateMaterialCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return h.respondError(c, err)
	}
	out, err := h.uc.CreateCategory(c.UserContext(), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListCategories godoc
// @Summary      Listar categorías de materiales
// @Tags         materials
// @Produce      json
// @Success      200  {array}  dto.MaterialCategoryResponse
// @Router       /api/material-categories [get]
func (h *MaterialHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.uc.ListCategories(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear material
// @Tags         materials
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequest  true  "Material"
// @Success      201   {object}  dto.MaterialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/materials [post]
func (h *MaterialHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return h.respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener material
// @Tags         materials
// @Produce      json
// @Param        id   path  string  true  "ID del material"
// @Success      200  {object}  dto.MaterialResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [get]
func (h *MaterialHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar materiales
// @Tags         materials
// @Produce      json
// @Param        category_id  query  string  false  "Categoría"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MaterialListResponse
// @Router       /api/materials [get]
func (h *MaterialHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), repository.MaterialFilter{
		CategoryID: c.Query("category_id"),
		Limit:      c.QueryInt("limit", 20),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Materiales bajo el punto de reorden
// @Tags         materials
// @Produce      json
// @Success      200  {array}  dto.LowStockAlertDTO
// @Router       /api/materials/low-stock [get]
func (h *MaterialHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.alerts.LowStock(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// Distribution godoc
// @Summary      Distribución del material por cuenta
// @Tags         materials
// @Produce      json
// @Param        id   path  string  true  "ID del material"
// @Success      200  {object}  dto.DistributionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/distribution [get]
func (h *MaterialHandler) Distribution(c *fiber.Ctx) error {
	out, err := h.resolver.ResolveDistribution(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// DistributionXLSX godoc
// @Summary      Distribución del material en Excel
// @Tags         materials
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "ID del material"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/distribution.xlsx [get]
func (h *MaterialHandler) DistributionXLSX(c *fiber.Ctx) error {
	if h.xlsx == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "exportador XLSX no configurado"})
	}
	id := c.Params("id")
	d, err := h.resolver.ResolveDistribution(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	book, err := h.xlsx.Generate(d)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="distribucion_%s.xlsx"`, id))
	return c.Send(book)
}
