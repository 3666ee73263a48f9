package middleware

import (
	"context"
	"net/http"
	"strings"

	"ganado360/internal/platform/apierror"
	"ganado360/internal/platform/session"
)

type ctxKey string

const userEmailKey ctxKey = "user_email"

// UserEmailHeader identifica al usuario actual (invitaciones). El API remoto lo
// deduce del token; el BFF lo recibe del cliente.
const UserEmailHeader = "X-User-Email"

// EmailResolver obtiene el email del usuario a partir del token (modo dev,
// donde el BFF emite los tokens).
type EmailResolver func(token string) (string, bool)

// AuthContext:
// - Si viene Bearer token => lo deja en el context para reenviarlo al API remoto.
// - El email sale del token si resolve lo reconoce; si no, de X-User-Email.
// - No corta el request; los handlers (o RequireToken) deciden.
func AuthContext(resolve EmailResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r.Header.Get("Authorization"))
			if token != "" {
				ctx = session.WithToken(ctx, token)
			}

			email := r.Header.Get(UserEmailHeader)
			if token != "" && resolve != nil {
				if fromToken, ok := resolve(token); ok {
					email = fromToken
				}
			}
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				ctx = context.WithValue(ctx, userEmailKey, email)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken corta con 401 los requests sin bearer. Se usa solo cuando hay
// API remoto configurado.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.TokenFrom(r.Context()); !ok {
			apierror.WriteMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserEmail(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userEmailKey).(string)
	return v, ok && v != ""
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
