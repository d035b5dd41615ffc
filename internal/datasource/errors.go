package datasource

import (
	"fmt"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Re-exported so callers can test load failures without importing model.
var (
	ErrEmptyDataset = model.ErrEmptyDataset
	ErrMalformed    = model.ErrMalformed
)

// DataError reports a failed fetch, an empty dataset or malformed records.
// It is shown inline and leaves the simulation and renderer idle.
type DataError struct {
	Op     string // open, fetch, decode, normalize
	Source string
	Cause  error
}

func (e *DataError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Cause)
}

func (e *DataError) Unwrap() error {
	return e.Cause
}
