package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - CORAL
// =================================================================================

// Domain crea un campo para el dominio de Coral.
func Domain(v string) zap.Field {
	return zap.String("coral_domain", v)
}

// Operation crea un campo para el nombre de la operación GraphQL.
func Operation(v string) zap.Field {
	return zap.String("gql_op", v)
}

// CommentID crea un campo para el ID de un comentario.
func CommentID(v string) zap.Field {
	return zap.String("comment_id", v)
}

// RevisionID crea un campo para el ID de revisión de un comentario.
func RevisionID(v string) zap.Field {
	return zap.String("revision_id", v)
}

// Action crea un campo para la acción de moderación (approve | reject).
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// Queue crea un campo para la cola de moderación.
func Queue(v string) zap.Field {
	return zap.String("queue", v)
}

// TokenStatus crea un campo para el estado del token de API.
func TokenStatus(v string) zap.Field {
	return zap.String("token_status", v)
}

// UserID crea un campo para el ID del usuario del sitio.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
