package middlewares

import (
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/coralbridge/internal/http/errors"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

// AdminKeyHeader es el header con la API key de administración.
const AdminKeyHeader = "X-Admin-API-Key"

// KeyVerifier valida la API key presentada. *adminkey.Verifier lo implementa.
type KeyVerifier interface {
	Verify(key string) bool
}

// RequireAdminKey exige una API key válida en X-Admin-API-Key.
// Sin verificador configurado la API de administración queda deshabilitada (503).
func RequireAdminKey(v KeyVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil || isNilVerifier(v) {
				httperrors.WriteError(w, httperrors.ErrAdminDisabled)
				return
			}
			key := strings.TrimSpace(r.Header.Get(AdminKeyHeader))
			if key == "" || !v.Verify(key) {
				logger.From(r.Context()).Warn("admin key rejected", logger.Op("RequireAdminKey"))
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isNilVerifier cubre un *adminkey.Verifier nil guardado en la interfaz.
func isNilVerifier(v KeyVerifier) bool {
	type nilable interface{ Enabled() bool }
	if n, ok := v.(nilable); ok {
		return !n.Enabled()
	}
	return false
}
