package coral

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxRemoteDetail es el largo máximo de texto remoto que se expone a la UI.
const MaxRemoteDetail = 200

var (
	// ErrNotConfigured: falta el dominio o el token de API. No se intentó ninguna llamada.
	ErrNotConfigured = errors.New("coral: domain or api token not configured")

	// ErrTransport: no se pudo conectar, timeout, o el cuerpo no es JSON.
	ErrTransport = errors.New("coral: transport failure")
)

// TransportError envuelve la causa de una falla de transporte.
// errors.Is(err, ErrTransport) es true para cualquier TransportError.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("coral: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RemoteError: Coral respondió pero rechazó la operación (auth, permisos,
// revisión desactualizada, validación). Message ya viene truncado.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Op == "" {
		return "coral: " + e.Message
	}
	return fmt.Sprintf("coral: %s: %s", e.Op, e.Message)
}

// NewRemoteError construye un RemoteError truncando el mensaje remoto.
func NewRemoteError(op, msg string) *RemoteError {
	return &RemoteError{Op: op, Message: Truncate(msg, MaxRemoteDetail)}
}

// Truncate corta s a n runas como máximo.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
