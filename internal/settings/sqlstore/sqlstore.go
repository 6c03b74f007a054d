// Package sqlstore guarda las preferencias en una tabla clave/valor de MySQL
// (la tabla de preferencias del CMS anfitrión) o SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect elige el driver y la sintaxis de upsert.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// DefaultTable es la tabla de preferencias por defecto.
const DefaultTable = "coral_prefs"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

var ErrBadTable = errors.New("sqlstore: invalid table name")

// Store lee y escribe filas (name, val) en table.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open abre la base con el driver del dialecto y verifica la conexión.
func Open(ctx context.Context, dialect Dialect, dsn, table string) (*Store, error) {
	driver := string(dialect)
	if dialect != MySQL && dialect != SQLite {
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == MySQL {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// sqlite: una sola conexión evita "database is locked" y que :memory: se divida.
		db.SetMaxOpenConns(1)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	s, err := New(db, dialect, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New envuelve un *sql.DB ya abierto.
func New(db *sql.DB, dialect Dialect, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrBadTable, table)
	}
	return &Store{db: db, dialect: dialect, table: table}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema crea la tabla si no existe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case MySQL:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name VARCHAR(191) NOT NULL PRIMARY KEY,
	val  TEXT NOT NULL
) DEFAULT CHARSET=utf8mb4`, s.table)
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name TEXT NOT NULL PRIMARY KEY,
	val  TEXT NOT NULL
)`, s.table)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlstore: ensure schema: %w", err)
	}
	return nil
}

// Load lee todas las filas coral_* de la tabla.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	q := fmt.Sprintf(`SELECT name, val FROM %s WHERE name LIKE 'coral%%'`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}
		// "_" es comodín en LIKE
		if strings.HasPrefix(k, "coral_") {
			out[k] = v
		}
	}
	return out, rows.Err()
}

// Save hace upsert de cada clave dentro de una transacción.
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.upsertSQL())
	if err != nil {
		return fmt.Errorf("sqlstore: prepare: %w", err)
	}
	defer stmt.Close()

	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("sqlstore: upsert %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (s *Store) upsertSQL() string {
	if s.dialect == MySQL {
		return fmt.Sprintf(`INSERT INTO %s (name, val) VALUES (?, ?) ON DUPLICATE KEY UPDATE val = VALUES(val)`, s.table)
	}
	return fmt.Sprintf(`INSERT INTO %s (name, val) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET val = excluded.val`, s.table)
}
