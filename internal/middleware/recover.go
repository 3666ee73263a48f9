package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"ganado360/internal/platform/apierror"
	"ganado360/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover reemplaza a chi/middleware.Recoverer: mismo comportamiento, pero el
// panic queda en el log estructurado y la respuesta usa el sobre de error común.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic en handler", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				apierror.WriteMsg(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
