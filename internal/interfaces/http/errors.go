package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

// Códigos de error fuera de la taxonomía del libro.
const (
	CodeImmutable        = "IMMUTABLE_TRANSACTION"
	CodeDefaultAccount   = "DEFAULT_ACCOUNT"
	CodeDuplicateDefault = "DUPLICATE_DEFAULT"
	CodeInvalidBody      = "INVALID_BODY"
	CodeInternal         = "INTERNAL"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:           fiber.StatusBadRequest,
	domain.KindNotFound:             fiber.StatusNotFound,
	domain.KindInsufficientQuantity: fiber.StatusUnprocessableEntity,
	domain.KindImbalanced:           fiber.StatusUnprocessableEntity,
	domain.KindInactiveAccount:      fiber.StatusUnprocessableEntity,
	domain.KindConcurrencyConflict:  fiber.StatusConflict,
}

// errorResponse traduce un error del dominio a status y cuerpo.
func errorResponse(err error) (int, dto.ErrorResponse) {
	var le *domain.LedgerError
	if errors.As(err, &le) {
		status, ok := kindStatus[le.Kind]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return status, dto.ErrorResponse{Code: string(le.Kind), Message: le.Error(), FieldErrors: le.Fields}
	}
	switch {
	case errors.Is(err, domain.ErrImmutableTransaction):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeImmutable, Message: err.Error()}
	case errors.Is(err, domain.ErrDefaultAccount):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeDefaultAccount, Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicateDefault):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeDuplicateDefault, Message: err.Error()}
	}
	if kind := domain.KindOf(err); kind != "" {
		return kindStatus[kind], dto.ErrorResponse{Code: string(kind), Message: err.Error()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: CodeInternal, Message: "error interno"}
}

// respondError escribe el error; los 500 se registran con el detalle, que no viaja al cliente.
func (h *handlerBase) respondError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidBody, Message: "cuerpo inválido"})
}
