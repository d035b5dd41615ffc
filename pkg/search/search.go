// Package search finds nodes and timeline events by their text with a
// fuzzy subsequence match, so "athns" finds "Athens".
package search

import (
	"math"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Document is the searchable text of one record.
type Document struct {
	ID   string
	Text string
}

// Match is one search hit. Higher scores are better.
type Match struct {
	ID    string
	Text  string
	Score int
}

// NodeDocument is the label of a node followed by its ID when they differ.
func NodeDocument(n model.Node) string {
	label := strings.TrimSpace(n.DisplayLabel())
	if label == n.ID {
		return label
	}
	return label + " (" + n.ID + ")"
}

// EventDocument is the title of an event followed by its ID.
func EventDocument(ev model.TimelineEvent) string {
	title := strings.TrimSpace(ev.Title)
	if title == "" || title == ev.ID {
		return ev.ID
	}
	return title + " (" + ev.ID + ")"
}

// NodeDocuments indexes nodes in dataset order. Nodes without an ID are
// skipped.
func NodeDocuments(nodes []model.Node) []Document {
	docs := make([]Document, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		docs = append(docs, Document{ID: n.ID, Text: NodeDocument(n)})
	}
	return docs
}

// EventDocuments indexes events in dataset order.
func EventDocuments(events []model.TimelineEvent) []Document {
	docs := make([]Document, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		docs = append(docs, Document{ID: ev.ID, Text: EventDocument(ev)})
	}
	return docs
}

type source []Document

func (s source) String(i int) string { return s[i].Text }
func (s source) Len() int            { return len(s) }

// Find returns up to limit matches for query, best first. A document whose
// ID equals the query ignoring case always comes first. limit <= 0 means
// no limit; a blank query matches nothing.
func Find(docs []Document, query string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(docs) == 0 {
		return nil
	}

	var out []Match
	exact := -1
	for i, d := range docs {
		if strings.EqualFold(d.ID, query) {
			exact = i
			out = append(out, Match{ID: d.ID, Text: d.Text, Score: math.MaxInt})
			break
		}
	}
	for _, fm := range fuzzy.FindFrom(query, source(docs)) {
		if fm.Index == exact {
			continue
		}
		d := docs[fm.Index]
		out = append(out, Match{ID: d.ID, Text: d.Text, Score: fm.Score})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
