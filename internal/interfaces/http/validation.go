package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

// requestValidate valida las etiquetas `validate` de los DTO de catálogo.
var requestValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return v
}

// validateStruct convierte los errores del validador en un LedgerError VALIDATION
// con el nombre JSON de cada campo.
func validateStruct(in interface{}) error {
	err := requestValidate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Kind:    domain.KindValidation,
			Field:   fe.Field(),
			Message: ruleMessage(fe),
		})
	}
	return domain.NewLedgerError(fields...)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo requerido"
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	case "uuid":
		return "debe ser un uuid"
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	default:
		return fmt.Sprintf("no cumple %s", fe.Tag())
	}
}

func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
