package sso

import "strings"

// SecretPrefix es el marcador con el que Coral muestra las claves SSO en su admin.
const SecretPrefix = "ssosec_"

// ResolveSecret normaliza el valor guardado de la clave SSO.
// Si empieza con "ssosec_" se quita exactamente ese prefijo; si no, se devuelve igual.
func ResolveSecret(raw string) string {
	return strings.TrimPrefix(raw, SecretPrefix)
}
