package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/version"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 64 << 20

// DefaultHTTPTimeout applies when NewHTTPSource is given no timeout.
const DefaultHTTPTimeout = 15 * time.Second

// HTTPSource fetches collections from a CMS at {BaseURL}/graph and
// {BaseURL}/timeline. Failures are reported once; there is no retry.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source for base with its own client.
func NewHTTPSource(base string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(base, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return s.BaseURL }

// Endpoint returns the URL fetched for kind and q.
func (s *HTTPSource) Endpoint(kind string, q Query) string {
	u := s.BaseURL + "/" + kind
	if enc := q.Values().Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, kind string, q Query) (model.Dataset, error) {
	endpoint := s.Endpoint(kind, q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Dataset{}, &DataError{Op: "fetch", Source: endpoint, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "strata/"+version.Version)

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		return model.Dataset{}, &DataError{Op: "fetch", Source: endpoint, Cause: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	defer resp.Body.Close()
	debug.Log("datasource: GET %s -> %d in %v", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		cause := fmt.Errorf("%w: %s", ErrFetch, resp.Status)
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			cause = fmt.Errorf("%w: %s: %s", ErrFetch, resp.Status, msg)
		}
		return model.Dataset{}, &DataError{Op: "fetch", Source: endpoint, Cause: cause}
	}

	var ds model.Dataset
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.DecodeContext(ctx, &ds); err != nil {
		return model.Dataset{}, &DataError{Op: "decode", Source: endpoint, Cause: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return only(kind, ds), nil
}

// only keeps the collections belonging to kind.
func only(kind string, ds model.Dataset) model.Dataset {
	switch kind {
	case KindGraph:
		ds.Events = nil
	case KindTimeline:
		ds.Nodes, ds.Edges = nil, nil
	}
	return ds
}
