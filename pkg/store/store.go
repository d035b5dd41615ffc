// Package store persists per-view state between sessions: the last node
// layout, the viewport and display preferences. Storage problems never stop
// a session; they are reported as *StorageError and treated as no saved
// state.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/strata/pkg/debug"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - layouts, views, preferences
const currentSchemaVersion = 1

// StorageError reports a failed read or write of persisted state.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NodePosition is one node of a saved layout. FX and FY are set for pinned
// nodes.
type NodePosition struct {
	ID     string
	X, Y   float64
	FX, FY *float64
}

// ViewRecord is a saved viewport.
type ViewRecord struct {
	Zoom    float64
	CenterX float64
	CenterY float64
}

// Preferences are per-view display choices.
type Preferences struct {
	Theme   string
	Reading bool
}

// State is everything saved for one view. Nil sections are absent on Load
// and left untouched on Save.
type State struct {
	ViewID string
	Layout []NodePosition
	View   *ViewRecord
	Prefs  *Preferences
}

// Empty reports whether nothing was saved.
func (s State) Empty() bool {
	return len(s.Layout) == 0 && s.View == nil && s.Prefs == nil
}

// ViewID keys persisted state by dataset and view kind.
func ViewID(datasetID, kind string) string {
	return datasetID + "/" + kind
}

// Store is a SQLite database of view state. A nil *Store is valid and
// stores nothing.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path. A file that is not a usable
// database is moved aside to path+".corrupt" and replaced with a fresh one.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "open", Cause: err}
	}

	s, err := open(path)
	if err == nil {
		return s, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, &StorageError{Op: "open", Cause: err}
	}

	aside := path + ".corrupt"
	debug.Log("store: %s unusable (%v), moving to %s", path, err, aside)
	if renameErr := os.Rename(path, aside); renameErr != nil {
		return nil, &StorageError{Op: "open", Cause: errors.Join(err, renameErr)}
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	s, err = open(path)
	if err != nil {
		return nil, &StorageError{Op: "open", Cause: err}
	}
	return s, nil
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; the Saver is the only one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Path returns the database file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the saved state of viewID. Missing state is an empty State
// and no error. On a read failure the State is empty and the error is a
// *StorageError. Rows with non-finite numbers are skipped.
func (s *Store) Load(ctx context.Context, viewID string) (State, error) {
	st := State{ViewID: viewID}
	if s == nil {
		return st, nil
	}

	layout, err := s.loadLayout(ctx, viewID)
	if err != nil {
		return st, &StorageError{Op: "load layout", Cause: err}
	}
	v, err := s.loadView(ctx, viewID)
	if err != nil {
		return st, &StorageError{Op: "load view", Cause: err}
	}
	p, err := s.loadPrefs(ctx, viewID)
	if err != nil {
		return st, &StorageError{Op: "load preferences", Cause: err}
	}
	st.Layout, st.View, st.Prefs = layout, v, p
	return st, nil
}

func (s *Store) loadLayout(ctx context.Context, viewID string) ([]NodePosition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, x, y, fx, fy FROM layouts WHERE view_id = ? ORDER BY node_id`, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NodePosition
	for rows.Next() {
		var p NodePosition
		var fx, fy sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.X, &p.Y, &fx, &fy); err != nil {
			return nil, err
		}
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		if fx.Valid && fy.Valid && finite(fx.Float64) && finite(fy.Float64) {
			x, y := fx.Float64, fy.Float64
			p.FX, p.FY = &x, &y
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadView(ctx context.Context, viewID string) (*ViewRecord, error) {
	var v ViewRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT zoom, center_x, center_y FROM views WHERE view_id = ?`, viewID).
		Scan(&v.Zoom, &v.CenterX, &v.CenterY)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !finite(v.Zoom) || v.Zoom <= 0 || !finite(v.CenterX) || !finite(v.CenterY) {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) loadPrefs(ctx context.Context, viewID string) (*Preferences, error) {
	var p Preferences
	err := s.db.QueryRowContext(ctx,
		`SELECT theme, reading FROM preferences WHERE view_id = ?`, viewID).
		Scan(&p.Theme, &p.Reading)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the non-nil sections of st in one transaction. A non-nil
// Layout replaces the saved layout.
func (s *Store) Save(ctx context.Context, st State) error {
	if s == nil {
		return nil
	}
	if st.ViewID == "" {
		return &StorageError{Op: "save", Cause: errors.New("empty view ID")}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "save", Cause: err}
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if st.Layout != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM layouts WHERE view_id = ?`, st.ViewID); err != nil {
			return &StorageError{Op: "save layout", Cause: err}
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO layouts (view_id, node_id, x, y, fx, fy) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return &StorageError{Op: "save layout", Cause: err}
		}
		defer stmt.Close()
		for _, p := range st.Layout {
			if p.ID == "" || !finite(p.X) || !finite(p.Y) {
				continue
			}
			var fx, fy any
			if p.FX != nil && p.FY != nil {
				fx, fy = *p.FX, *p.FY
			}
			if _, err := stmt.ExecContext(ctx, st.ViewID, p.ID, p.X, p.Y, fx, fy); err != nil {
				return &StorageError{Op: "save layout", Cause: err}
			}
		}
	}
	if v := st.View; v != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO views (view_id, zoom, center_x, center_y, updated_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(view_id) DO UPDATE SET
				zoom = excluded.zoom, center_x = excluded.center_x,
				center_y = excluded.center_y, updated_at = excluded.updated_at`,
			st.ViewID, v.Zoom, v.CenterX, v.CenterY, now); err != nil {
			return &StorageError{Op: "save view", Cause: err}
		}
	}
	if p := st.Prefs; p != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO preferences (view_id, theme, reading, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(view_id) DO UPDATE SET
				theme = excluded.theme, reading = excluded.reading, updated_at = excluded.updated_at`,
			st.ViewID, strings.ToLower(p.Theme), p.Reading, now); err != nil {
			return &StorageError{Op: "save preferences", Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "save", Cause: err}
	}
	return nil
}

// Delete forgets everything saved for viewID.
func (s *Store) Delete(ctx context.Context, viewID string) error {
	if s == nil {
		return nil
	}
	for _, table := range []string{"layouts", "views", "preferences"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE view_id = ?`, viewID); err != nil {
			return &StorageError{Op: "delete", Cause: err}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
