package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Schema is the layout SQLiteSource reads. Any of the tables may be absent.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL DEFAULT '',
	importance REAL NOT NULL DEFAULT 0,
	label      TEXT NOT NULL DEFAULT '',
	x          REAL NOT NULL DEFAULT 0,
	y          REAL NOT NULL DEFAULT 0,
	fx         REAL,
	fy         REAL,
	link       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS edges (
	source   TEXT NOT NULL,
	target   TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	strength REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	timestamp REAL NOT NULL,
	track     INTEGER NOT NULL DEFAULT 0,
	category  TEXT NOT NULL DEFAULT '',
	title     TEXT NOT NULL DEFAULT '',
	related   TEXT -- JSON array of event IDs
);
`

// SQLiteSource reads a dataset from a SQLite database opened read-only.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource returns a source for the database at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

func (s *SQLiteSource) Name() string { return s.path }

// Path implements Watchable.
func (s *SQLiteSource) Path() string { return s.path }

// Fetch implements Source.
func (s *SQLiteSource) Fetch(ctx context.Context, kind string, q Query) (model.Dataset, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return model.Dataset{}, &DataError{Op: "fetch", Source: s.path, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return model.Dataset{}, &DataError{Op: "fetch", Source: s.path, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}

	ds := model.Dataset{ID: strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))}
	if kind != KindTimeline {
		if tables["nodes"] {
			if ds.Nodes, err = readNodes(ctx, db); err != nil {
				return model.Dataset{}, &DataError{Op: "decode", Source: s.path, Cause: err}
			}
		}
		if tables["edges"] {
			if ds.Edges, err = readEdges(ctx, db); err != nil {
				return model.Dataset{}, &DataError{Op: "decode", Source: s.path, Cause: err}
			}
		}
	}
	if kind != KindGraph && tables["events"] {
		if ds.Events, err = readEvents(ctx, db); err != nil {
			return model.Dataset{}, &DataError{Op: "decode", Source: s.path, Cause: err}
		}
	}
	return q.Apply(ds), nil
}

func listTables(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func readNodes(ctx context.Context, db *sql.DB) ([]model.Node, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, category, importance, label, x, y, fx, fy, link
		FROM nodes
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: nodes: %v", ErrMalformed, err)
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		var category string
		var fx, fy sql.NullFloat64
		if err := rows.Scan(&n.ID, &category, &n.Importance, &n.Label, &n.X, &n.Y, &fx, &fy, &n.Link); err != nil {
			return nil, fmt.Errorf("%w: nodes: %v", ErrMalformed, err)
		}
		n.Category = model.ParseCategory(category)
		if fx.Valid && fy.Valid {
			x, y := fx.Float64, fy.Float64
			n.FX, n.FY = &x, &y
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func readEdges(ctx context.Context, db *sql.DB) ([]model.Edge, error) {
	rows, err := db.QueryContext(ctx, `SELECT source, target, label, strength FROM edges ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: edges: %v", ErrMalformed, err)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Label, &e.Strength); err != nil {
			return nil, fmt.Errorf("%w: edges: %v", ErrMalformed, err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func readEvents(ctx context.Context, db *sql.DB) ([]model.TimelineEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, timestamp, track, category, title, related
		FROM events
		ORDER BY timestamp, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: events: %v", ErrMalformed, err)
	}
	defer rows.Close()

	var events []model.TimelineEvent
	for rows.Next() {
		var ev model.TimelineEvent
		var category string
		var related sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Track, &category, &ev.Title, &related); err != nil {
			return nil, fmt.Errorf("%w: events: %v", ErrMalformed, err)
		}
		ev.Category = model.ParseCategory(category)
		if related.Valid && related.String != "" && related.String != "null" {
			if err := json.Unmarshal([]byte(related.String), &ev.Related); err != nil {
				return nil, fmt.Errorf("%w: event %s related: %v", ErrMalformed, ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
