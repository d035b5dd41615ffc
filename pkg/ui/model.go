// Package ui is the interactive terminal session: a fixed-rate frame loop
// that drains the layout engine, advances inertia, renders the current view
// and folds the frame into half-block cells, plus the status bar, key help
// and live dataset reload.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/strata/internal/datasource"
	"github.com/vanderheijden86/strata/pkg/analysis"
	"github.com/vanderheijden86/strata/pkg/config"
	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/export"
	"github.com/vanderheijden86/strata/pkg/interact"
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/render"
	"github.com/vanderheijden86/strata/pkg/search"
	"github.com/vanderheijden86/strata/pkg/spatial"
	"github.com/vanderheijden86/strata/pkg/store"
	"github.com/vanderheijden86/strata/pkg/view"
	"github.com/vanderheijden86/strata/pkg/watcher"
)

// View kinds.
const (
	KindGraph    = export.KindGraph
	KindTimeline = export.KindTimeline
)

// chromeRows is the status bar plus the key help line.
const chromeRows = 2

// wheelStep is the zoom delta of one wheel notch.
const wheelStep = 0.1

// reloadTimeout bounds one dataset reload.
const reloadTimeout = 30 * time.Second

// Sizes for the terminal frame, where a cell is one pixel wide and two
// tall. Exports use the configured sizes instead.
var (
	termGraph = render.GraphOptions{
		NodeBase:     1.5,
		EdgeBase:     0.5,
		ArrowSize:    2,
		Labels:       true,
		LabelMinZoom: 0.5,
	}
	termTimeline = render.TimelineOptions{
		LaneTop:      20,
		LaneHeight:   8,
		MarkerRadius: 2,
		Labels:       true,
	}
)

// Options wires a session together. Only Kind and Config are required; a
// graph session without an Engine shows no layout.
type Options struct {
	Kind     string
	Config   config.Config
	Result   datasource.Result
	LoadErr  error
	Source   datasource.Source
	Query    datasource.Query
	Engine   *layout.Engine
	Renderer *render.Renderer
	Saver    *store.Saver
	Saved    store.State
	Watcher  *watcher.Watcher
}

type frameMsg time.Time

type readyTimeoutMsg struct{}

type fileEventMsg watcher.Event

type reloadMsg struct {
	res datasource.Result
	err error
}

type exportMsg struct {
	path    string
	summary string
	err     error
}

func frameCmd(fps int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// readyTimeoutCmd makes the session usable even if the terminal never
// reports its size.
func readyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return readyTimeoutMsg{}
	})
}

// watchCmd waits for the next watcher event.
func watchCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return fileEventMsg(ev)
	}
}

func reloadCmd(src datasource.Source, q datasource.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		res, err := datasource.Load(ctx, src, q)
		return reloadMsg{res: res, err: err}
	}
}

func exportCmd(s export.Still, path string) tea.Cmd {
	return func() tea.Msg {
		wd, _ := os.Getwd()
		p, summary, err := s.Publish(export.Options{Path: path}, wd, false)
		return exportMsg{path: p, summary: summary, err: err}
	}
}

// Model is the bubbletea model of a session.
type Model struct {
	kind string
	cfg  config.Config

	src        datasource.Source
	query      datasource.Query
	ds         model.Dataset
	index      *spatial.Index
	dataErr    error
	reloading  bool
	reloadNext bool

	engine *layout.Engine
	snap   layout.Snapshot

	view      *view.State
	ctrl      *interact.Controller
	renderer  *render.Renderer
	saver     *store.Saver
	watcher   *watcher.Watcher
	viewID    string
	savedView *store.ViewRecord
	lastView  store.ViewRecord
	fitted    bool

	palette render.Theme
	reading bool
	theme   Theme
	help    help.Model

	lastSelected string
	prevSelected string
	highlight    []string
	communities  map[string]int
	nextRequest  int64
	requests     map[int64]analysis.Request

	frame      string
	markers    []string
	width      int
	height     int
	ready      bool
	showHelp   bool
	helpText   string
	status     string
	statusErr  bool
	lastExport string
	mouseDown  bool

	finding   bool
	findQuery string
	findDocs  []search.Document
	findHits  []search.Match

	now func() time.Time
}

// NewModel builds a session. Saved preferences and viewport from opts.Saved
// are restored; the saved layout is expected to have seeded the engine
// already.
func NewModel(opts Options) Model {
	cfg := opts.Config
	kind := opts.Kind
	if kind != KindTimeline {
		kind = KindGraph
	}

	var v view.State
	if kind == KindTimeline {
		v = cfg.TimelineView(1, 1)
	} else {
		v = cfg.GraphView(1, 1)
	}
	vp := &v

	var pinner interact.Pinner
	if kind == KindGraph && opts.Engine != nil {
		pinner = opts.Engine
	}

	r := opts.Renderer
	if r == nil {
		r = render.NewRenderer(render.Options{Backend: cfg.Render.Backend, Adapter: cfg.Render.Adapter}, 1, 1)
	}

	palette := render.ThemeByName(cfg.Render.Theme)
	reading := false
	if p := opts.Saved.Prefs; p != nil {
		if p.Theme != "" {
			palette = render.ThemeByName(p.Theme)
		}
		reading = p.Reading
	}

	ds := opts.Result.Dataset
	id := ds.ID
	if id == "" && opts.Source != nil {
		id = opts.Source.Name()
	}

	m := Model{
		kind:      kind,
		cfg:       cfg,
		src:       opts.Source,
		query:     opts.Query,
		ds:        ds,
		index:     spatial.Build(ds.Events),
		dataErr:   opts.LoadErr,
		engine:    opts.Engine,
		view:      vp,
		ctrl:      interact.New(vp, pinner, cfg.Interaction.Gestures),
		renderer:  r,
		saver:     opts.Saver,
		watcher:   opts.Watcher,
		viewID:    store.ViewID(id, kind),
		savedView: opts.Saved.View,
		palette:   palette,
		reading:   reading,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
		help:      help.New(),
		requests:  make(map[int64]analysis.Request),
		now:       time.Now,
	}
	if kind == KindGraph && m.engine != nil {
		m.snap, _ = m.engine.Latest()
	}

	switch {
	case opts.LoadErr != nil:
		m.setError(opts.LoadErr)
	case opts.Result.Report.DroppedEdges > 0:
		m.setStatus(fmt.Sprintf("dropped %d dangling edges", opts.Result.Report.DroppedEdges))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(m.cfg.Render.FPS), readyTimeoutCmd()}
	if m.watcher != nil {
		cmds = append(cmds, watchCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case readyTimeoutMsg:
		if !m.ready {
			m.resize(80, 24)
		}
		return m, nil

	case frameMsg:
		m.step()
		return m, frameCmd(m.cfg.Render.FPS)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case fileEventMsg:
		return m.handleFileEvent(watcher.Event(msg))

	case reloadMsg:
		cmd := m.applyReload(msg)
		return m, cmd

	case exportMsg:
		if msg.summary != "" {
			debug.Log("ui: %s", msg.summary)
		}
		if msg.path != "" {
			m.lastExport = msg.path
		}
		if msg.err != nil {
			m.setError(fmt.Errorf("export failed: %w", msg.err))
			return m, nil
		}
		m.setStatus("exported " + msg.path)
		return m, nil
	}
	return m, nil
}

// frameSize is the frame in cells.
func (m *Model) frameSize() (cols, rows int) {
	return max(m.width, 1), max(m.height-chromeRows, 1)
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cols, rows := m.frameSize()
	m.view.Resize(float64(cols), float64(rows*2))
	m.renderer.Resize(cols, rows*2)
	m.help.Width = w
	m.ready = true
	if m.showHelp {
		m.helpText = renderHelp(w, m.palette.Name == render.Dark.Name)
	}
	m.fit()
	m.redraw()
}

// fit frames the data once. A restored viewport wins over fitting.
func (m *Model) fit() {
	if m.fitted {
		return
	}
	if m.savedView != nil {
		m.savedView.Apply(m.view)
		m.savedView = nil
		m.fitted = true
	} else if m.kind == KindTimeline {
		b := m.index.Bounds()
		if b.Empty {
			return
		}
		m.view.FitX(b.Min, b.Max)
		m.fitted = true
	} else {
		minX, minY, maxX, maxY, ok := m.snap.Bounds()
		if !ok {
			return
		}
		m.view.FitRect(minX, minY, maxX, maxY)
		m.fitted = true
	}
	m.lastView = *store.RecordView(*m.view)
}

// step is one frame: drain the engine, advance inertia, redraw.
func (m *Model) step() {
	if m.engine != nil && m.kind == KindGraph {
		for _, ev := range m.engine.Poll() {
			m.handleEngineEvent(ev)
		}
		if s, ok := m.engine.Latest(); ok {
			m.snap = s
		}
	}
	m.ctrl.Step()
	if !m.ready {
		return
	}
	m.fit()
	m.redraw()
	m.scheduleView()
}

func (m *Model) handleEngineEvent(ev layout.Event) {
	switch ev := ev.(type) {
	case layout.TickEvent:
		m.snap = ev.Snapshot
	case layout.EndEvent:
		m.snap = ev.Snapshot
		m.saver.Schedule(store.State{ViewID: m.viewID, Layout: store.LayoutOf(ev.Snapshot)})
	case layout.AnalyticsEvent:
		m.applyAnalytics(ev)
	}
}

func (m *Model) still() export.Still {
	graph, timeline := termGraph, termTimeline
	graph.Labels = graph.Labels && m.cfg.Render.Labels
	timeline.Labels = timeline.Labels && m.cfg.Render.Labels
	return m.decorate(export.Still{
		Kind:     m.kind,
		View:     *m.view,
		Dataset:  m.ds,
		Snapshot: m.snap,
		Index:    m.index,
		Graph:    graph,
		Timeline: timeline,
		Reading:  m.reading,
	})
}

// exportStill is the current view at the configured export size.
func (m *Model) exportStill() export.Still {
	graph := render.DefaultGraphOptions()
	graph.NodeBase, graph.EdgeBase = m.cfg.Render.NodeBase, m.cfg.Render.EdgeBase
	graph.Labels = m.cfg.Render.Labels
	timeline := render.DefaultTimelineOptions()
	timeline.LaneHeight = m.cfg.Render.LaneHeight
	timeline.Labels = m.cfg.Render.Labels
	return m.decorate(export.Still{
		Kind:     m.kind,
		View:     export.Rescale(*m.view, m.cfg.Render.Width, m.cfg.Render.Height),
		Dataset:  m.ds,
		Snapshot: m.snap,
		Index:    m.index,
		Graph:    graph,
		Timeline: timeline,
		Backend:  render.Options{Backend: m.cfg.Render.Backend, Adapter: m.cfg.Render.Adapter},
		Reading:  m.reading,
	})
}

func (m *Model) decorate(s export.Still) export.Still {
	sel := m.ctrl.Selected()
	s.Graph.Theme, s.Timeline.Theme = m.palette, m.palette
	s.Graph.Selected, s.Timeline.Selected = sel, sel
	s.Graph.Highlight = m.highlight
	s.Graph.Communities = m.communities
	return s
}

// redraw renders the view and folds it into cells. Labels are not
// rasterised; they are overlaid as terminal text.
func (m *Model) redraw() {
	cols, rows := m.frameSize()
	scene := m.still().Scene()
	labels := scene.Labels
	scene.Labels = nil
	if err := m.renderer.Draw(scene); err != nil {
		debug.Log("ui: draw failed: %v", err)
	}
	scene.Labels = labels

	m.ctrl.SetTargets(interact.TargetsFromScene(scene))
	m.markers = m.markers[:0]
	for _, mk := range scene.Markers {
		m.markers = append(m.markers, mk.ID)
	}

	f := Blit(m.renderer.Image(), cols, rows)
	f.Overlay(labels, scene.Transform)
	m.frame = f.Render(m.theme.Renderer, TermProfile)
}

func (m *Model) scheduleView() {
	rec := store.RecordView(*m.view)
	if *rec == m.lastView {
		return
	}
	m.lastView = *rec
	m.saver.Schedule(store.State{ViewID: m.viewID, View: rec})
}

func (m *Model) savePrefs() {
	m.saver.Schedule(store.State{
		ViewID: m.viewID,
		Prefs:  &store.Preferences{Theme: m.palette.Name, Reading: m.reading},
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help, keys.Esc):
			m.showHelp = false
		}
		return m, nil
	}
	if m.finding {
		m.handleFindKey(msg)
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.startFind()
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		m.helpText = renderHelp(m.width, m.palette.Name == render.Dark.Name)
	case key.Matches(msg, keys.Left):
		m.ctrl.Key(interact.KeyLeft)
	case key.Matches(msg, keys.Right):
		m.ctrl.Key(interact.KeyRight)
	case key.Matches(msg, keys.Up):
		m.ctrl.Key(interact.KeyUp)
	case key.Matches(msg, keys.Down):
		m.ctrl.Key(interact.KeyDown)
	case key.Matches(msg, keys.ZoomIn):
		m.ctrl.Key(interact.KeyZoomIn)
	case key.Matches(msg, keys.ZoomOut):
		m.ctrl.Key(interact.KeyZoomOut)
	case key.Matches(msg, keys.Home):
		m.ctrl.Key(interact.KeyHome)
	case key.Matches(msg, keys.Fit):
		m.fitted = false
		m.savedView = nil
		m.fit()
	case key.Matches(msg, keys.Theme):
		m.palette = m.palette.Toggle()
		m.savePrefs()
		m.setStatus("theme: " + m.palette.Name)
	case key.Matches(msg, keys.Reading):
		m.reading = !m.reading
		m.savePrefs()
		m.setStatus(onOff("reading mode", m.reading))
	case key.Matches(msg, keys.Reheat):
		if m.graphOnly() {
			m.engine.Reheat(max(m.cfg.Simulation.ReheatAlpha, 0.3))
			m.setStatus("reheated")
		}
	case key.Matches(msg, keys.Release):
		if sel := m.ctrl.Selected(); sel != "" && m.graphOnly() {
			m.ctrl.Release(sel)
			m.setStatus("released " + sel)
		}
	case key.Matches(msg, keys.Next):
		m.selectNext()
	case key.Matches(msg, keys.Open):
		m.openSelected()
	case key.Matches(msg, keys.Path):
		m.requestPath()
	case key.Matches(msg, keys.Central):
		m.request(analysis.Request{Kind: analysis.KindCentrality})
	case key.Matches(msg, keys.Groups):
		if m.communities != nil {
			m.communities = nil
			m.setStatus("communities off")
		} else {
			m.request(analysis.Request{Kind: analysis.KindCommunities})
		}
	case key.Matches(msg, keys.Export):
		path := filepath.Join(config.ExportDir(), export.DefaultFilename(m.kind, export.FormatPNG, m.now()))
		m.setStatus("exporting…")
		return m, exportCmd(m.exportStill(), path)
	case key.Matches(msg, keys.Copy):
		m.copySelection()
	case key.Matches(msg, keys.Esc):
		m.highlight = nil
		m.communities = nil
		m.ctrl.Select("")
		m.trackSelection()
		m.setStatus("")
	}
	return m, nil
}

// graphOnly reports whether graph-only actions are available, and says why
// not in the status bar.
func (m *Model) graphOnly() bool {
	if m.kind != KindGraph || m.engine == nil {
		m.setStatus("only available in the graph view")
		return false
	}
	return true
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	_, rows := m.frameSize()
	if msg.Y >= rows && !m.mouseDown {
		return
	}
	sx, sy := float64(msg.X)+0.5, float64(msg.Y)*2+1
	now := m.now()

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctrl.Wheel(sx, sy, wheelStep)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctrl.Wheel(sx, sy, -wheelStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.kind == KindTimeline {
			if t, ok := m.ctrl.HitTest(sx, sy); ok {
				m.ctrl.Select(t.ID)
			}
		}
		m.mouseDown = true
		m.ctrl.PointerDown(sx, sy, now)
	case msg.Action == tea.MouseActionMotion && m.mouseDown:
		m.ctrl.PointerMove(sx, sy, now)
	case msg.Action == tea.MouseActionRelease && m.mouseDown:
		m.mouseDown = false
		m.ctrl.PointerUp(sx, sy, now)
	}
	m.trackSelection()
}

// trackSelection remembers the previous selection, the start of a path
// request.
func (m *Model) trackSelection() {
	cur := m.ctrl.Selected()
	if cur == m.lastSelected {
		return
	}
	if m.lastSelected != "" {
		m.prevSelected = m.lastSelected
	}
	m.lastSelected = cur
}

// selectNext moves the selection to the next marker on screen.
func (m *Model) selectNext() {
	if len(m.markers) == 0 {
		m.setStatus("nothing on screen")
		return
	}
	ids := append([]string(nil), m.markers...)
	sort.Strings(ids)
	cur := m.ctrl.Selected()
	next := ids[0]
	if i := sort.SearchStrings(ids, cur); cur != "" && i < len(ids) && ids[i] == cur {
		next = ids[(i+1)%len(ids)]
	}
	m.ctrl.Select(next)
	m.trackSelection()
	m.setStatus("selected " + m.describe(next))
}

// describe names an ID by its label or title.
func (m *Model) describe(id string) string {
	if n, ok := m.ds.NodeByID(id); ok {
		return n.DisplayLabel()
	}
	if ev, ok := m.index.Event(id); ok && ev.Title != "" {
		return ev.Title
	}
	return id
}

// linkFor finds the link of a node, or of the first related node with one
// for a timeline event.
func (m *Model) linkFor(id string) string {
	if n, ok := m.ds.NodeByID(id); ok && n.Link != "" {
		return n.Link
	}
	if ev, ok := m.index.Event(id); ok {
		for _, rid := range ev.Related {
			if n, ok := m.ds.NodeByID(rid); ok && n.Link != "" {
				return n.Link
			}
		}
	}
	return ""
}

func (m *Model) openSelected() {
	sel := m.ctrl.Selected()
	if sel == "" {
		m.setStatus("select a node first (tab or click)")
		return
	}
	link := m.linkFor(sel)
	opened, err := openLink(link)
	switch {
	case errors.Is(err, errNoLink):
		m.setStatus(m.describe(sel) + " has no link")
	case err != nil:
		m.setError(err)
	case opened:
		m.setStatus("opened " + link)
	default:
		m.setStatus("copied " + link)
	}
}

func (m *Model) copySelection() {
	text := m.lastExport
	if sel := m.ctrl.Selected(); sel != "" {
		text = sel
		if link := m.linkFor(sel); link != "" {
			text = link
		}
	}
	if text == "" {
		m.setStatus("nothing to copy")
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus("copied " + text)
}

func (m *Model) requestPath() {
	from, to := m.prevSelected, m.ctrl.Selected()
	if from == "" || to == "" || from == to {
		m.setStatus("select two nodes, one after the other, for a path")
		return
	}
	m.request(analysis.Request{Kind: analysis.KindPath, From: from, To: to})
}

func (m *Model) request(req analysis.Request) {
	if !m.graphOnly() {
		return
	}
	m.nextRequest++
	m.requests[m.nextRequest] = req
	m.engine.Send(layout.Analyze{RequestID: m.nextRequest, Request: req})
	m.setStatus(fmt.Sprintf("computing %s…", req.Kind))
}

func (m *Model) applyAnalytics(ev layout.AnalyticsEvent) {
	req, ok := m.requests[ev.RequestID]
	if !ok {
		return
	}
	delete(m.requests, ev.RequestID)
	if ev.Err != nil {
		m.setError(fmt.Errorf("%s: %w", req.Kind, ev.Err))
		return
	}

	res := ev.Result
	switch res.Kind {
	case analysis.KindPath:
		if !res.Found {
			m.highlight = nil
			m.setStatus(fmt.Sprintf("no path between %s and %s", m.describe(req.From), m.describe(req.To)))
			return
		}
		m.highlight = res.Path
		m.setStatus(fmt.Sprintf("path: %s (%d hops)", strings.Join(res.Path, " → "), len(res.Path)-1))

	case analysis.KindCentrality:
		top := analysis.TopN(res.Scores, 3)
		if len(top) == 0 {
			m.setStatus("centrality: empty graph")
			return
		}
		parts := make([]string, len(top))
		for i, r := range top {
			parts[i] = fmt.Sprintf("%s %.2f", m.describe(r.ID), r.Score)
		}
		m.ctrl.Select(top[0].ID)
		m.trackSelection()
		m.setStatus("central: " + strings.Join(parts, ", "))

	case analysis.KindCommunities:
		groups := analysis.Groups(res.Labels)
		m.communities = make(map[string]int, len(res.Labels))
		for i, members := range groups {
			for _, id := range members {
				m.communities[id] = i
			}
		}
		m.setStatus(fmt.Sprintf("%d communities", len(groups)))
	}
}

func (m Model) handleFileEvent(ev watcher.Event) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, watchCmd(m.watcher))
	}
	switch ev.Op {
	case watcher.OpChanged:
		switch {
		case m.src == nil:
		case m.reloading:
			m.reloadNext = true
		default:
			m.reloading = true
			m.setStatus("reloading…")
			cmds = append(cmds, reloadCmd(m.src, m.query))
		}
	case watcher.OpRemoved:
		m.setError(fmt.Errorf("%s was removed", filepath.Base(ev.Path)))
	default:
		if ev.Err != nil {
			m.setError(fmt.Errorf("watching %s: %w", filepath.Base(ev.Path), ev.Err))
		}
	}
	return m, tea.Batch(cmds...)
}

// applyReload swaps in a reloaded dataset. On failure the previous dataset
// stays on screen with the error in the status bar.
func (m *Model) applyReload(msg reloadMsg) tea.Cmd {
	m.reloading = false
	var next tea.Cmd
	if m.reloadNext && m.src != nil {
		m.reloadNext = false
		m.reloading = true
		next = reloadCmd(m.src, m.query)
	}

	if msg.err != nil {
		m.dataErr = msg.err
		m.setError(msg.err)
		return next
	}

	change := datasource.Diff(m.ds, msg.res.Dataset)
	m.ds = msg.res.Dataset
	m.dataErr = nil
	m.index = spatial.Build(m.ds.Events)
	if m.kind == KindGraph && m.engine != nil {
		m.engine.Send(layout.Update{Nodes: m.ds.Nodes, Edges: m.ds.Edges})
	}
	if !change.Empty() {
		m.highlight = nil
		m.communities = nil
	}
	if sel := m.ctrl.Selected(); sel != "" && !m.exists(sel) {
		m.ctrl.Select("")
		m.trackSelection()
	}
	if m.kind == KindTimeline && !m.fitted {
		m.fit()
	}
	m.setStatus("reloaded: " + change.Summary())
	return next
}

func (m *Model) exists(id string) bool {
	if _, ok := m.ds.NodeByID(id); ok {
		return true
	}
	_, ok := m.index.Event(id)
	return ok
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.status, m.statusErr = err.Error(), true
	debug.Log("ui: %v", err)
}

func onOff(what string, on bool) string {
	if on {
		return what + " on"
	}
	return what + " off"
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing…"
	}
	if m.showHelp {
		footer := m.theme.Muted.Render(sourceLine(m.viewID, len(m.ds.Nodes), len(m.ds.Events)) + " · ? or esc to close")
		return m.theme.Overlay.Render(m.helpText) + "\n" + footer
	}
	return m.frame + "\n" + m.statusBar() + "\n" + m.help.View(keys)
}

// statusBar shows the backend, simulation or grid state, zoom, the visible
// count and the latest message. Data errors take the message slot.
func (m Model) statusBar() string {
	badge := m.theme.Badge.Render(m.renderer.Name())
	avail := max(m.width-lipgloss.Width(badge), 0)

	var state string
	if m.kind == KindGraph {
		state = fmt.Sprintf("%s α%.3f", m.snap.Phase, m.snap.Alpha)
	} else {
		state = view.FinestGridInterval(m.view.Zoom).Name
	}
	left := fmt.Sprintf(" %s │ zoom %s │ %d visible ", state, formatZoom(m.view.Zoom), len(m.markers))
	left = truncate(left, avail)

	msg := m.status
	style := m.theme.Info
	if m.finding {
		msg = m.findPrompt()
	} else if m.statusErr {
		style = m.theme.Error
	}
	if m.dataErr != nil && !m.statusErr && !m.finding {
		msg, style = m.dataErr.Error(), m.theme.Error
	}
	room := avail - lipgloss.Width(left)
	msg = padRight(truncate(msg, room), room)

	return badge + m.theme.Bar.Render(left) + style.Render(msg)
}
