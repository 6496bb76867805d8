package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS overlays (
	name TEXT PRIMARY KEY,
	applied INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS overlay_files (
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	PRIMARY KEY (name, path)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS backed_up_paths (
	path TEXT PRIMARY KEY
) WITHOUT ROWID;
`

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the catalog database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single connection: a result set must be closed before the next query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListOverlays returns every registered overlay with its files.
func (s *SQLiteStore) ListOverlays() ([]Overlay, error) {
	overlays, err := s.queryOverlays()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(overlays))
	for i := range overlays {
		index[overlays[i].Name] = i
	}

	rows, err := s.db.Query("SELECT name, path FROM overlay_files ORDER BY name, path")
	if err != nil {
		return nil, fmt.Errorf("query overlay files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, fmt.Errorf("scan overlay file: %w", err)
		}
		if i, ok := index[name]; ok {
			overlays[i].Files = append(overlays[i].Files, path)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlay files: %w", err)
	}

	return overlays, nil
}

func (s *SQLiteStore) queryOverlays() ([]Overlay, error) {
	rows, err := s.db.Query("SELECT name, applied, created_at FROM overlays ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query overlays: %w", err)
	}
	defer func() { _ = rows.Close() }()

	overlays := []Overlay{}
	for rows.Next() {
		o, err := scanOverlay(rows)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlays: %w", err)
	}
	return overlays, nil
}

// GetOverlay returns a single overlay by name.
func (s *SQLiteStore) GetOverlay(name string) (*Overlay, error) {
	row := s.db.QueryRow("SELECT name, applied, created_at FROM overlays WHERE name = ?", name)
	o, err := scanOverlay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOverlayNotFound, name)
		}
		return nil, err
	}

	rows, err := s.db.Query("SELECT path FROM overlay_files WHERE name = ? ORDER BY path", name)
	if err != nil {
		return nil, fmt.Errorf("query overlay files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan overlay file: %w", err)
		}
		o.Files = append(o.Files, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlay files: %w", err)
	}

	return o, nil
}

// OverlayExists reports whether the overlay is registered.
func (s *SQLiteStore) OverlayExists(name string) (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM overlays WHERE name = ?", name).Scan(&count); err != nil {
		return false, fmt.Errorf("count overlays: %w", err)
	}
	return count > 0, nil
}

// InsertOverlay registers the overlay and its files atomically.
func (s *SQLiteStore) InsertOverlay(overlay *Overlay) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM overlays WHERE name = ?", overlay.Name).Scan(&count); err != nil {
		return fmt.Errorf("count overlays: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateOverlay, overlay.Name)
	}

	if _, err := tx.Exec(
		"INSERT INTO overlays (name, applied, created_at) VALUES (?, ?, ?)",
		overlay.Name, boolToInt(overlay.Applied), overlay.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert overlay: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO overlay_files (name, path) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare file insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, path := range overlay.Files {
		if _, err := stmt.Exec(overlay.Name, path); err != nil {
			return fmt.Errorf("insert overlay file %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit overlay: %w", err)
	}
	return nil
}

// SetApplied updates the applied flag of an overlay.
func (s *SQLiteStore) SetApplied(name string, applied bool) error {
	res, err := s.db.Exec("UPDATE overlays SET applied = ? WHERE name = ?", boolToInt(applied), name)
	if err != nil {
		return fmt.Errorf("update overlay: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update overlay: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOverlayNotFound, name)
	}
	return nil
}

// DeleteOverlay removes the overlay row and its file rows.
func (s *SQLiteStore) DeleteOverlay(name string) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec("DELETE FROM overlay_files WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete overlay files: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM overlays WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete overlay: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// BackedUpPaths returns the backed-up path set.
func (s *SQLiteStore) BackedUpPaths() (map[string]struct{}, error) {
	rows, err := s.db.Query("SELECT path FROM backed_up_paths")
	if err != nil {
		return nil, fmt.Errorf("query backed up paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan backed up path: %w", err)
		}
		set[path] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backed up paths: %w", err)
	}
	return set, nil
}

// AddBackedUpPaths inserts paths into the backed-up set, ignoring duplicates.
func (s *SQLiteStore) AddBackedUpPaths(paths []string) (err error) {
	if len(paths) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO backed_up_paths (path) VALUES (?)")
	if err != nil {
		return fmt.Errorf("prepare backed up insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, path := range paths {
		if _, err := stmt.Exec(path); err != nil {
			return fmt.Errorf("insert backed up path %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit backed up paths: %w", err)
	}
	return nil
}

// RemoveBackedUpPath deletes a path from the backed-up set.
func (s *SQLiteStore) RemoveBackedUpPath(path string) error {
	if _, err := s.db.Exec("DELETE FROM backed_up_paths WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete backed up path %s: %w", path, err)
	}
	return nil
}

// ClearBackedUpPaths deletes every backed-up path row.
func (s *SQLiteStore) ClearBackedUpPaths() error {
	if _, err := s.db.Exec("DELETE FROM backed_up_paths"); err != nil {
		return fmt.Errorf("clear backed up paths: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverlay(row rowScanner) (*Overlay, error) {
	var (
		o       Overlay
		applied int
		created string
	)
	if err := row.Scan(&o.Name, &applied, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan overlay: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", o.Name, err)
	}
	o.Applied = applied != 0
	o.CreatedAt = ts
	o.Files = []string{}
	return &o, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
