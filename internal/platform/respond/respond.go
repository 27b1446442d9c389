package respond

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pet-registry/internal/platform/apperr"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/metrics"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorBody es lo único que ve el cliente cuando algo falla.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// JSON escribe v con el status indicado. Se serializa antes de escribir el header:
// si v no se puede codificar, el cliente recibe un 500 y no un 2xx vacío.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		Error(w, r, apperr.Store(fmt.Errorf("encode response: %w", err)))
		return
	}
	write(w, status, b)
}

func write(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

// Error es el único camino de salida para errores de los handlers.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	fields := map[string]any{
		"kind":       string(kind),
		"status":     status,
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": chimw.GetReqID(r.Context()),
		"err":        err,
	}
	log := logger.FromContext(r.Context())
	if kind == apperr.KindStore {
		log.Error("request failed", fields)
	} else {
		log.Debug("request rejected", fields)
	}
	metrics.ObserveError(string(kind))

	// ErrorBody siempre se puede codificar.
	b, _ := json.Marshal(ErrorBody{
		Message: apperr.Message(err),
		Error:   string(kind),
	})
	write(w, status, b)
}
