package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// AccountHandler registro de cuentas.
type AccountHandler struct {
	handlerBase
	uc       *usecase.AccountUseCase
	resolver *lineage.Resolver
}

// NewAccountHandler construye el handler.
func NewAccountHandler(uc *usecase.AccountUseCase, resolver *lineage.Resolver, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{handlerBase: handlerBase{log: log}, uc: uc, resolver: resolver}
}

// Create godoc
// @Summary      Crear cuenta
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAccountRequest  true  "Cuenta"
// @Success      201   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAccountRequest
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
// @Summary      Cuenta con sus materiales rastreados
// @Tags         accounts
// @Produce      json
// @Param        id   path  string  true  "ID de la cuenta"
// @Success      200  {object}  dto.AccountDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/accounts/{id} [get]
func (h *AccountHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.resolver.AccountMaterials(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar cuentas
// @Tags         accounts
// @Produce      json
// @Param        category  query  string  false  "stock | input | output"
// @Param        status    query  string  false  "active | archived"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AccountListResponse
// @Router       /api/accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), repository.AccountFilter{
		Category: entity.AccountCategory(c.Query("category")),
		Status:   c.Query("status"),
		Limit:    c.QueryInt("limit", 20),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// Archive godoc
// @Summary      Archivar cuenta
// @Tags         accounts
// @Produce      json
// @Param        id   path  string  true  "ID de la cuenta"
// @Success      200  {object}  dto.AccountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/accounts/{id}/archive [post]
func (h *AccountHandler) Archive(c *fiber.Ctx) error {
	out, err := h.uc.Archive(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}
