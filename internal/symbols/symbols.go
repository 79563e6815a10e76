// Package symbols provides a SQLite-backed symbol table for the codebase
// being explained. The table maps declaration names to file ranges and
// signatures; it is a rebuildable cache populated by the index command and
// queried by the dependency planner and resolver.
package symbols

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Declaration is one top-level declaration recorded for a file.
type Declaration struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // function, method, type, class, constant, var
	Path      string `json:"path"`
	StartLine int    `json:"start_line"` // 0-based inclusive
	EndLine   int    `json:"end_line"`   // 0-based exclusive
	Signature string `json:"signature,omitempty"`
	Receiver  string `json:"receiver,omitempty"` // for methods
}

// Table is the lookup surface the planner and resolver consume.
type Table interface {
	// Lookup returns all declarations matching a name, across files.
	Lookup(name string) ([]Declaration, error)

	// LookupIn returns declarations matching a name within one file.
	LookupIn(name, path string) ([]Declaration, error)
}

// DB is the SQLite-backed implementation of Table.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the symbol database in the given .lens directory.
// The schema is initialized if the database is new.
func Open(lensDir string) (*DB, error) {
	dbPath := filepath.Join(lensDir, "symbols.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open symbols db: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	d := &DB{db: db, dbPath: dbPath}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return d, nil
}

// OpenMemory opens an in-memory symbol database, used by tests and by
// single-shot runs that index on the fly.
func OpenMemory() (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory symbols db: %w", err)
	}

	d := &DB{db: db, dbPath: ":memory:"}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return d, nil
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS declarations (
		name       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		path       TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end   INTEGER NOT NULL,
		signature  TEXT NOT NULL DEFAULT '',
		receiver   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (name, path, line_start)
	);
	CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);
	CREATE INDEX IF NOT EXISTS idx_declarations_path ON declarations(path);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("create declarations table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// ReplaceFile atomically replaces all declarations recorded for a file.
func (d *DB) ReplaceFile(path string, decls []Declaration) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM declarations WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete declarations for %s: %w", path, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO declarations
		(name, kind, path, line_start, line_end, signature, receiver)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, decl := range decls {
		if _, err := stmt.Exec(decl.Name, decl.Kind, path,
			decl.StartLine, decl.EndLine, decl.Signature, decl.Receiver); err != nil {
			return fmt.Errorf("insert declaration %s: %w", decl.Name, err)
		}
	}

	return tx.Commit()
}

// DeleteFile removes all declarations recorded for a file.
func (d *DB) DeleteFile(path string) error {
	if _, err := d.db.Exec("DELETE FROM declarations WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete declarations for %s: %w", path, err)
	}
	return nil
}

// Lookup returns all declarations matching a name, across files.
func (d *DB) Lookup(name string) ([]Declaration, error) {
	return d.query(`
		SELECT name, kind, path, line_start, line_end, signature, receiver
		FROM declarations WHERE name = ? ORDER BY path, line_start`, name)
}

// LookupIn returns declarations matching a name within one file.
func (d *DB) LookupIn(name, path string) ([]Declaration, error) {
	return d.query(`
		SELECT name, kind, path, line_start, line_end, signature, receiver
		FROM declarations WHERE name = ? AND path = ? ORDER BY line_start`, name, path)
}

// DeclarationsIn returns all declarations recorded for a file, in order.
func (d *DB) DeclarationsIn(path string) ([]Declaration, error) {
	return d.query(`
		SELECT name, kind, path, line_start, line_end, signature, receiver
		FROM declarations WHERE path = ? ORDER BY line_start`, path)
}

// Count returns the number of stored declarations.
func (d *DB) Count() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM declarations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count declarations: %w", err)
	}
	return count, nil
}

func (d *DB) query(q string, args ...any) ([]Declaration, error) {
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query declarations: %w", err)
	}
	defer rows.Close()

	var decls []Declaration
	for rows.Next() {
		var decl Declaration
		if err := rows.Scan(&decl.Name, &decl.Kind, &decl.Path,
			&decl.StartLine, &decl.EndLine, &decl.Signature, &decl.Receiver); err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, decl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate declarations: %w", err)
	}

	return decls, nil
}
