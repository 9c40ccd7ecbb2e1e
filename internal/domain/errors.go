package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidState      = errors.New("estado inválido para la operación")
	ErrIncompleteData    = errors.New("datos incompletos")
	ErrValidationFailure = errors.New("la validación falló")
	ErrMalformedInput    = errors.New("entrada mal formada")
	ErrDeliveryFailed    = errors.New("no se pudo entregar el documento")
	ErrDuplicate         = errors.New("recurso duplicado")
)

// Códigos estables expuestos a los clientes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidState      = "INVALID_STATE"
	CodeIncompleteData    = "INCOMPLETE_DATA"
	CodeValidationFailure = "VALIDATION_FAILURE"
	CodeMalformedInput    = "MALFORMED_INPUT"
	CodeDeliveryFailed    = "DELIVERY_FAILED"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL"
)

// ValidationError transporta la lista de motivos de una validación fallida.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrValidationFailure.Error()
	}
	return ErrValidationFailure.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailure }

// Kind devuelve el código estable asociado al error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrIncompleteData):
		return CodeIncompleteData
	case errors.Is(err, ErrValidationFailure):
		return CodeValidationFailure
	case errors.Is(err, ErrMalformedInput):
		return CodeMalformedInput
	case errors.Is(err, ErrDeliveryFailed):
		return CodeDeliveryFailed
	case errors.Is(err, ErrDuplicate):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// Reasons extrae los motivos de un ValidationError envuelto, si existe.
func Reasons(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reasons
	}
	return nil
}
