package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// handlerBase dependencias comunes de los handlers.
type handlerBase struct {
	log zerolog.Logger
}

// TransactionHandler contabilización y consulta de transacciones.
type TransactionHandler struct {
	handlerBase
	engine *ledger.Engine
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(engine *ledger.Engine, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{handlerBase: handlerBase{log: log}, engine: engine}
}

// Post godoc
// @Summary      Contabilizar transacción
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostTransactionRequest  true  "Transferencias y asignaciones de lotes"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Post(c *fiber.Ctx) error {
	var in dto.PostTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.PostFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// SaveDraft godoc
// @Summary      Guardar borrador
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostTransactionRequest  true  "Borrador"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transactions/drafts [post]
func (h *TransactionHandler) SaveDraft(c *fiber.Ctx) error {
	var in dto.PostTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.SaveDraftFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// PostDraft godoc
// @Summary      Contabilizar borrador
// @Tags         transactions
// @Produce      json
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/post [post]
func (h *TransactionHandler) PostDraft(c *fiber.Ctx) error {
	out, err := h.engine.PostDraft(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// Void godoc
// @Summary      Anular borrador
// @Tags         transactions
// @Produce      json
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/void [post]
func (h *TransactionHandler) Void(c *fiber.Ctx) error {
	out, err := h.engine.VoidDraft(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener transacción
// @Tags         transactions
// @Produce      json
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.engine.GetTransaction(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar transacciones (más recientes primero)
// @Tags         transactions
// @Produce      json
// @Param        transaction_type  query  string  false  "Tipo"
// @Param        status            query  string  false  "draft | posted | void"
// @Param        limit             query  int     false  "Límite"  default(20)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransactionListResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	out, err := h.engine.ListTransactions(c.UserContext(), repository.TransactionFilter{
		Type:   entity.TransactionType(c.Query("transaction_type")),
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}
