package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"pet-registry/internal/platform/apperr"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/respond"
)

// Recover convierte un panic en un 500 por respond.Error, con el mismo cuerpo y
// métrica que cualquier otra falla. http.ErrAbortHandler se re-lanza.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			respond.Error(w, r, apperr.Store(fmt.Errorf("panic: %v", rec)))
		}()

		next.ServeHTTP(w, r)
	})
}
