// Package fsstore guarda las preferencias en un archivo YAML plano.
// Pensado para instalaciones de un solo nodo y para desarrollo.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store persiste clave → valor en path. Un mutex serializa Load/Save dentro
// del proceso; entre procesos vale la escritura atómica (tmp + rename).
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path devuelve la ruta del archivo.
func (s *Store) Path() string { return s.path }

// Load lee el archivo. Si no existe devuelve un mapa vacío.
func (s *Store) Load(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save hace read-modify-write de las claves dadas.
func (s *Store) Save(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		cur[k] = v
	}
	data, err := yaml.Marshal(cur)
	if err != nil {
		return fmt.Errorf("fsstore: encode: %w", err)
	}
	return writeAtomic(s.path, data, 0o600)
}

func (s *Store) read() (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fsstore: read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("fsstore: decode %s: %w", s.path, err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// writeAtomic: write tmp → Sync → Close → Chmod → Rename.
// Si rename falla (Windows con destino bloqueado) intenta remove+rename.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsstore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("fsstore: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("fsstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsstore: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fsstore: close temp: %w", err)
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("fsstore: rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
