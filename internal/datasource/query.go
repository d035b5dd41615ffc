package datasource

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Query scopes a fetch. Zero values mean unscoped: no entity, unlimited
// depth, every type and no limit.
type Query struct {
	Kind   string // graph, timeline or all; empty means all
	Entity string
	Depth  int
	Types  []string
	Limit  int
}

func (q Query) kinds() ([]string, error) {
	switch q.Kind {
	case "", KindAll:
		return []string{KindGraph, KindTimeline}, nil
	case KindGraph, KindTimeline:
		return []string{q.Kind}, nil
	}
	return nil, ErrUnknownKind
}

// Values encodes q as URL query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Entity != "" {
		v.Set("entity", q.Entity)
	}
	if q.Depth > 0 {
		v.Set("depth", strconv.Itoa(q.Depth))
	}
	if len(q.Types) > 0 {
		v.Set("types", strings.Join(q.Types, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (q Query) typeSet() map[model.Category]bool {
	if len(q.Types) == 0 {
		return nil
	}
	set := make(map[model.Category]bool, len(q.Types))
	for _, t := range q.Types {
		set[model.ParseCategory(strings.TrimSpace(t))] = true
	}
	return set
}

// Apply scopes a whole dataset locally, the way a CMS scopes its response.
// Nodes are kept when their category is in Types and they lie within Depth
// hops of Entity; events are kept when their category matches and, with an
// Entity set, when they are the entity or relate to it. Limit caps nodes and
// events separately, keeping input order.
func (q Query) Apply(ds model.Dataset) model.Dataset {
	types := q.typeSet()
	out := model.Dataset{ID: ds.ID}

	var within map[string]bool
	if q.Entity != "" {
		within = neighbourhood(ds.Edges, q.Entity, q.Depth)
	}

	keep := make(map[string]bool, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if types != nil && !types[n.Category] {
			continue
		}
		if within != nil && !within[n.ID] {
			continue
		}
		if q.Limit > 0 && len(out.Nodes) >= q.Limit {
			break
		}
		keep[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range ds.Edges {
		if keep[e.Source] && keep[e.Target] {
			out.Edges = append(out.Edges, e)
		}
	}

	for _, ev := range ds.Events {
		if types != nil && !types[ev.Category] {
			continue
		}
		if q.Entity != "" && ev.ID != q.Entity && !contains(ev.Related, q.Entity) && !within[ev.ID] {
			continue
		}
		if q.Limit > 0 && len(out.Events) >= q.Limit {
			break
		}
		out.Events = append(out.Events, ev)
	}
	return out
}

// neighbourhood returns the IDs within depth undirected hops of root. A
// depth of zero or less is unbounded.
func neighbourhood(edges []model.Edge, root string, depth int) map[string]bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	seen := map[string]bool{root: true}
	frontier := []string{root}
	for hop := 0; len(frontier) > 0 && (depth <= 0 || hop < depth); hop++ {
		var next []string
		for _, id := range frontier {
			for _, nb := range adj[id] {
				if !seen[nb] {
					seen[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	return seen
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
