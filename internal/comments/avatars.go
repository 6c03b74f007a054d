package comments

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// Avatars resuelve la foto de un autor: {PhotoURL}/{id}.jpg|png si el archivo
// existe en PhotoPath, si no la foto por defecto.
type Avatars struct {
	path     string
	web      string
	fallback string
	exists   func(string) bool
}

// NewAvatars arma el resolver con la config de display. exists nil = os.Stat.
func NewAvatars(d settings.Display, exists func(string) bool) Avatars {
	if exists == nil {
		exists = fileExists
	}
	def := d.DefaultPhoto
	if def == "" {
		def = settings.DefaultPhoto
	}
	web := d.PhotoURL
	if web == "" {
		web = settings.DefaultPhotoURL
	}
	return Avatars{
		path:     strings.TrimSpace(d.PhotoPath),
		web:      strings.TrimRight(web, "/") + "/",
		fallback: def,
		exists:   exists,
	}
}

// URL devuelve la URL pública de la foto de userID.
func (a Avatars) URL(userID string) string {
	if a.path != "" && safeID(userID) {
		for _, ext := range []string{"jpg", "png"} {
			name := userID + "." + ext
			if a.exists(filepath.Join(a.path, name)) {
				return a.web + name
			}
		}
	}
	return a.Default()
}

// Default es la URL de la foto por defecto.
func (a Avatars) Default() string {
	return a.web + a.fallback
}

// safeID evita que un id remoto se use para salir del directorio de fotos.
func safeID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
