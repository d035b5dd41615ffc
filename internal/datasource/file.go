package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/strata/pkg/model"
)

// FileSource reads a whole dataset from a JSON or YAML document with the
// top-level keys id, nodes, edges and events.
type FileSource struct {
	path string
}

// NewFileSource returns a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

// Path implements Watchable.
func (s *FileSource) Path() string { return s.path }

// Fetch implements Source. The file is re-read on every call.
func (s *FileSource) Fetch(ctx context.Context, kind string, q Query) (model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return model.Dataset{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Dataset{}, &DataError{Op: "fetch", Source: s.path, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}

	ds, err := DecodeDataset(data, filepath.Ext(s.path))
	if err != nil {
		return model.Dataset{}, &DataError{Op: "decode", Source: s.path, Cause: err}
	}
	if ds.ID == "" {
		ds.ID = strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	}
	return q.Apply(only(kind, ds)), nil
}

// DecodeDataset parses a dataset document. ext selects YAML for .yaml and
// .yml; anything else is read as JSON.
func DecodeDataset(data []byte, ext string) (model.Dataset, error) {
	var ds model.Dataset
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return model.Dataset{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	default:
		if err := json.Unmarshal(data, &ds); err != nil {
			return model.Dataset{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return ds, nil
}
