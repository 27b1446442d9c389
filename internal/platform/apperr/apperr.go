package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/multierr"
)

// Kind clasifica un error para el reporte hacia afuera.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation_failed"
	KindNotFound        Kind = "not_found"
	KindStore           Kind = "store_failure"
)

// Error conserva el tipo, un mensaje legible y la causa original (si existe).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func Validation(msg string) *Error      { return New(KindValidation, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }

// Store envuelve una falla inesperada del almacenamiento. No se reintenta.
func Store(err error) *Error { return Wrap(KindStore, "store failure", err) }

// KindOf devuelve el tipo del error. Cualquier error sin clasificar cuenta como falla del store.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Is reporta si err es del tipo indicado.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message devuelve el mensaje pensado para el cliente.
// Las fallas de store nunca exponen la causa.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStore {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus mapea el tipo a un status code.
// Forbidden es 403, distinto de 404: no confirma ni niega que el recurso exista.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromValidation junta todos los errores de campo acumulados con multierr en un único
// ValidationFailed. Devuelve nil si no hubo errores.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return Validation(strings.Join(msgs, ", "))
}
