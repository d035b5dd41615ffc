package ui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/strata/pkg/search"
)

// maxFindHits bounds the matches kept while typing.
const maxFindHits = 8

// startFind opens the find prompt over the records of the current view.
func (m *Model) startFind() {
	if m.kind == KindTimeline {
		m.findDocs = search.EventDocuments(m.ds.Events)
	} else {
		m.findDocs = search.NodeDocuments(m.ds.Nodes)
	}
	m.finding = true
	m.findQuery = ""
	m.findHits = nil
}

func (m *Model) stopFind() {
	m.finding = false
	m.findQuery = ""
	m.findDocs = nil
	m.findHits = nil
}

// handleFindKey edits the query. Enter jumps to the best match, esc
// cancels.
func (m *Model) handleFindKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.stopFind()
		m.setStatus("")
		return
	case tea.KeyEnter:
		hits := m.findHits
		query := m.findQuery
		m.stopFind()
		if len(hits) == 0 {
			m.setStatus("no match for " + query)
			return
		}
		m.jumpTo(hits[0].ID)
		return
	case tea.KeyBackspace:
		if r := []rune(m.findQuery); len(r) > 0 {
			m.findQuery = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.findQuery += " "
	case tea.KeyRunes:
		m.findQuery += string(msg.Runes)
	default:
		return
	}
	m.findHits = search.Find(m.findDocs, m.findQuery, maxFindHits)
}

// findPrompt is the status line while finding.
func (m Model) findPrompt() string {
	p := "/" + m.findQuery
	switch {
	case m.findQuery == "":
	case len(m.findHits) == 0:
		p += "  no match"
	default:
		p += "  → " + m.findHits[0].Text
		if n := len(m.findHits) - 1; n > 0 {
			p += " (+" + strconv.Itoa(n) + ")"
		}
	}
	return p
}

// jumpTo selects id and centres the view on it.
func (m *Model) jumpTo(id string) {
	switch m.kind {
	case KindTimeline:
		ev, ok := m.index.Event(id)
		if !ok {
			m.setStatus("not on the timeline: " + id)
			return
		}
		m.view.CenterX = ev.Timestamp
	default:
		ns, ok := m.snap.ByID()[id]
		if !ok {
			m.setStatus("not laid out yet: " + id)
			return
		}
		m.view.CenterX, m.view.CenterY = ns.X, ns.Y
	}
	m.ctrl.Select(id)
	m.trackSelection()
	m.scheduleView()
	m.setStatus("found " + m.describe(id))
}
