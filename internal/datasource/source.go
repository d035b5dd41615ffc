// Package datasource fetches datasets for strata from a CMS over HTTP, from
// JSON or YAML files, or from a SQLite database, and normalises them.
package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Kinds of collection a source can be asked for.
const (
	KindGraph    = "graph"
	KindTimeline = "timeline"
	KindAll      = "all"
)

// Source kinds reported by Detect.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

var (
	// ErrFetch marks transport failures and non-success responses.
	ErrFetch = errors.New("fetch failed")
	// ErrUnknownKind is returned for a collection kind other than graph,
	// timeline or all.
	ErrUnknownKind = errors.New("unknown collection kind")
)

// Source yields records of one collection kind.
type Source interface {
	// Name identifies the source in errors and dataset IDs.
	Name() string
	// Fetch returns the records of kind matching q. Implementations do not
	// normalise; Load does.
	Fetch(ctx context.Context, kind string, q Query) (model.Dataset, error)
}

// Watchable is implemented by sources backed by a local file.
type Watchable interface {
	Path() string
}

// sqliteMagic is the header of every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// Detect classifies a source spec without opening it.
func Detect(spec string) (string, error) {
	lower := strings.ToLower(spec)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceHTTP, nil
	}
	switch strings.ToLower(filepath.Ext(spec)) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite, nil
	case ".json", ".yaml", ".yml":
		return SourceFile, nil
	}

	f, err := os.Open(spec)
	if err != nil {
		return "", &DataError{Op: "open", Source: spec, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	defer f.Close()
	head := make([]byte, len(sqliteMagic))
	n, _ := io.ReadFull(f, head)
	if n == len(sqliteMagic) && bytes.Equal(head, sqliteMagic) {
		return SourceSQLite, nil
	}
	return SourceFile, nil
}

// Options tune Open.
type Options struct {
	// Kind forces a source kind instead of detecting it.
	Kind        string
	HTTPTimeout time.Duration
}

// Open returns the Source for spec: an http(s) URL, a SQLite database, or a
// JSON/YAML file.
func Open(spec string, opts Options) (Source, error) {
	if spec == "" {
		return nil, &DataError{Op: "open", Cause: fmt.Errorf("%w: no source given", ErrFetch)}
	}
	kind := opts.Kind
	if kind == "" {
		var err error
		if kind, err = Detect(spec); err != nil {
			return nil, err
		}
	}
	switch kind {
	case SourceHTTP:
		return NewHTTPSource(spec, opts.HTTPTimeout), nil
	case SourceSQLite:
		return NewSQLiteSource(spec), nil
	case SourceFile:
		return NewFileSource(spec), nil
	}
	return nil, &DataError{Op: "open", Source: spec, Cause: fmt.Errorf("unknown source kind %q", kind)}
}
