package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/strata/internal/datasource"
	_ "github.com/vanderheijden86/strata/internal/ttyguard"
	"github.com/vanderheijden86/strata/pkg/config"
	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/export"
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/render"
	"github.com/vanderheijden86/strata/pkg/spatial"
	"github.com/vanderheijden86/strata/pkg/store"
	"github.com/vanderheijden86/strata/pkg/ui"
	"github.com/vanderheijden86/strata/pkg/version"
	"github.com/vanderheijden86/strata/pkg/view"
	"github.com/vanderheijden86/strata/pkg/watcher"
)

const loadTimeout = 60 * time.Second

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default $XDG_CONFIG_HOME/strata/config.yaml)")

	sourceFlag := flag.String("source", "", "Dataset: http(s) URL, SQLite database, JSON/YAML file or a named source")
	kindFlag := flag.String("kind", "", "View kind: graph or timeline")
	entity := flag.String("entity", "", "Entity to center the query on")
	depth := flag.Int("depth", 0, "Relationship depth around --entity")
	types := flag.String("types", "", "Comma-separated categories to include")
	limit := flag.Int("limit", 0, "Maximum number of records")

	backend := flag.String("backend", "", "Renderer backend: auto, pipeline or canvas")
	exportPath := flag.String("export", "", "Render one frame headlessly to a .png or .svg file")
	exportWizard := flag.Bool("export-wizard", false, "Choose the export format and location interactively")
	width := flag.Int("width", 0, "Export width in pixels")
	height := flag.Int("height", 0, "Export height in pixels")
	ticks := flag.Int("ticks", 300, "Layout ticks to run before a headless graph export")
	zoom := flag.Float64("zoom", 0, "Zoom of a headless export (default: fit the data)")
	center := flag.String("center", "", "Center of a headless export: x or x,y in data units")
	noHooks := flag.Bool("no-hooks", false, "Skip pre/post export hooks")

	robotPath := flag.String("robot-path", "", "Print the shortest path A:B as JSON")
	robotCentrality := flag.Bool("robot-centrality", false, "Print shortest-path centrality as JSON")
	robotCommunities := flag.Bool("robot-communities", false, "Print label-propagation communities as JSON")
	robotComponents := flag.Bool("robot-components", false, "Print connected components as JSON")
	robotMetrics := flag.Bool("robot-metrics", false, "Print timing metrics as JSON after loading")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: strata [options]")
		fmt.Println("\nExplore relationship graphs and deep-time timelines in the terminal.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("strata %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *backend != "" {
		cfg.Render.Backend = *backend
	}
	if *width > 0 {
		cfg.Render.Width = *width
	}
	if *height > 0 {
		cfg.Render.Height = *height
	}

	location, kind := cfg.ResolveSource(*sourceFlag)
	if *kindFlag != "" {
		kind = *kindFlag
	}
	kind, err = normalizeKind(kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if location == "" {
		fmt.Fprintln(os.Stderr, "Error: no dataset; pass --source or set source.default in the config")
		os.Exit(2)
	}

	q := buildQuery(cfg.Source, kind, *entity, *depth, *types, *limit)
	if *robotPath != "" || *robotCentrality || *robotCommunities || *robotComponents {
		// Analytics work on the graph whatever the view kind.
		q.Kind = ui.KindGraph
	}

	src, err := datasource.Open(location, datasource.Options{HTTPTimeout: cfg.Source.HTTPTimeout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	res, loadErr := datasource.Load(loadCtx, src, q)
	cancel()

	robot := robotRequest{
		Path:        *robotPath,
		Centrality:  *robotCentrality,
		Communities: *robotCommunities,
		Components:  *robotComponents,
		Metrics:     *robotMetrics,
	}
	if robot.any() {
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", loadErr)
			os.Exit(1)
		}
		if err := runRobot(ctx, os.Stdout, robot, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *exportPath != "" || *exportWizard {
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", loadErr)
			os.Exit(1)
		}
		opts := export.Options{Path: *exportPath}
		if *exportWizard {
			opts, err = export.RunWizard(kind, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Export cancelled: %v\n", err)
				os.Exit(1)
			}
		}
		h := headless{Ticks: *ticks, Zoom: *zoom, Center: *center, NoHooks: *noHooks}
		path, summary, err := runExport(ctx, cfg, kind, res, opts, h)
		if summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	if err := runSession(ctx, cfg, kind, src, q, res, loadErr); err != nil {
		fmt.Printf("Error running strata: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads an explicit config file strictly and the default one
// leniently.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		// Non-fatal: continue without config
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func normalizeKind(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ui.KindGraph:
		return ui.KindGraph, nil
	case ui.KindTimeline:
		return ui.KindTimeline, nil
	default:
		return "", fmt.Errorf("invalid --kind: %q (expected graph|timeline)", kind)
	}
}

// buildQuery merges flags over the configured query defaults.
func buildQuery(sc config.SourceConfig, kind, entity string, depth int, types string, limit int) datasource.Query {
	q := datasource.Query{
		Kind:   kind,
		Entity: sc.Entity,
		Depth:  sc.Depth,
		Types:  sc.Types,
		Limit:  sc.Limit,
	}
	if entity != "" {
		q.Entity = entity
	}
	if depth > 0 {
		q.Depth = depth
	}
	if t := splitList(types); len(t) > 0 {
		q.Types = t
	}
	if limit > 0 {
		q.Limit = limit
	}
	return q
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseCenter reads "x" or "x,y".
func parseCenter(s string) (x, y float64, hasY bool, err error) {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return 0, 0, false, fmt.Errorf("invalid --center %q (expected x or x,y)", s)
	}
	x, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid --center %q: %w", s, err)
	}
	if len(parts) == 2 {
		y, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("invalid --center %q: %w", s, err)
		}
		hasY = true
	}
	return x, y, hasY, nil
}

// headless holds the view flags of a one-shot export.
type headless struct {
	Ticks   int
	Zoom    float64
	Center  string
	NoHooks bool
}

// buildStill lays out and frames the dataset for a one-shot render.
func buildStill(ctx context.Context, cfg config.Config, kind string, res datasource.Result, h headless) (export.Still, error) {
	w, ht := float64(cfg.Render.Width), float64(cfg.Render.Height)
	ds := res.Dataset

	graph := render.DefaultGraphOptions()
	graph.Theme = render.ThemeByName(cfg.Render.Theme)
	graph.NodeBase, graph.EdgeBase = cfg.Render.NodeBase, cfg.Render.EdgeBase
	graph.Labels = cfg.Render.Labels
	timeline := render.DefaultTimelineOptions()
	timeline.Theme = graph.Theme
	timeline.LaneHeight = cfg.Render.LaneHeight
	timeline.Labels = cfg.Render.Labels

	s := export.Still{
		Kind:     kind,
		Dataset:  ds,
		Graph:    graph,
		Timeline: timeline,
		Backend:  render.Options{Backend: cfg.Render.Backend, Adapter: cfg.Render.Adapter},
	}

	var v view.State
	if kind == ui.KindTimeline {
		s.Index = spatial.Build(ds.Events)
		v = cfg.TimelineView(w, ht)
		if b := s.Index.Bounds(); !b.Empty {
			v.FitX(b.Min, b.Max)
		}
	} else {
		snap, err := settle(ctx, cfg.Simulation, res, h.Ticks)
		if err != nil {
			return s, err
		}
		s.Snapshot = snap
		v = cfg.GraphView(w, ht)
		if minX, minY, maxX, maxY, ok := snap.Bounds(); ok {
			v.FitRect(minX, minY, maxX, maxY)
		}
	}

	if h.Zoom > 0 {
		v.SetZoom(h.Zoom)
	}
	if h.Center != "" {
		x, y, hasY, err := parseCenter(h.Center)
		if err != nil {
			return s, err
		}
		v.CenterX = x
		if hasY && v.Axis == view.AxisBoth {
			v.CenterY = y
		}
	}
	s.View = v
	return s, nil
}

// settle runs the layout for ticks steps and returns the final snapshot.
func settle(ctx context.Context, simCfg layout.Config, res datasource.Result, ticks int) (layout.Snapshot, error) {
	simCfg.TickInterval = 0
	e := layout.NewEngine(simCfg)
	defer e.Close()

	e.Send(layout.Start{Nodes: res.Dataset.Nodes, Edges: res.Dataset.Edges}, layout.Tick{N: max(ticks, 1)})
	for {
		ev, err := e.Next(ctx)
		if err != nil {
			return layout.Snapshot{}, fmt.Errorf("layout: %w", err)
		}
		switch ev := ev.(type) {
		case layout.TickEvent:
			return ev.Snapshot, nil
		case layout.EndEvent:
			return ev.Snapshot, nil
		}
	}
}

// runExport renders one frame and returns its path and the hook summary.
func runExport(ctx context.Context, cfg config.Config, kind string, res datasource.Result, opts export.Options, h headless) (string, string, error) {
	s, err := buildStill(ctx, cfg, kind, res, h)
	if err != nil {
		return "", "", err
	}
	if opts.Path == "" {
		opts.Path = export.DefaultFilename(kind, export.FormatPNG, time.Now())
	}
	wd, _ := os.Getwd()
	return s.Publish(opts, wd, h.NoHooks)
}

// runSession wires the store, engine and watcher into the interactive
// session and tears them down afterwards.
func runSession(ctx context.Context, cfg config.Config, kind string, src datasource.Source, q datasource.Query, res datasource.Result, loadErr error) error {
	opts := ui.Options{
		Kind:    kind,
		Config:  cfg,
		Result:  res,
		LoadErr: loadErr,
		Source:  src,
		Query:   q,
	}

	datasetID := res.Dataset.ID
	if datasetID == "" {
		datasetID = src.Name()
	}
	if !cfg.Store.Disabled {
		if st, err := store.Open(cfg.StorePath()); err != nil {
			debug.Log("store unavailable: %v", err)
		} else {
			defer st.Close()
			saved, err := st.Load(ctx, store.ViewID(datasetID, kind))
			if err != nil {
				debug.Log("loading view state: %v", err)
			}
			opts.Saved = saved
			saver := store.NewSaver(st, cfg.Store.Debounce)
			defer saver.Close()
			opts.Saver = saver
		}
	}

	if kind == ui.KindGraph {
		nodes, seeded := store.Seed(res.Dataset.Nodes, opts.Saved.Layout)
		debug.Log("seeded %d of %d nodes from saved layout", seeded, len(nodes))
		e := layout.NewEngine(cfg.Simulation)
		defer e.Close()
		e.Send(layout.Start{Nodes: nodes, Edges: res.Dataset.Edges})
		opts.Engine = e
	}

	if w, ok := src.(datasource.Watchable); ok && cfg.Source.Watch {
		fw, err := watcher.NewWatcher(w.Path())
		if err == nil {
			err = fw.Start()
		}
		if err != nil {
			debug.Log("live reload disabled: %v", err)
		} else {
			defer fw.Stop()
			opts.Watcher = fw
		}
	}

	return runTUIProgram(ui.NewModel(opts))
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set STRATA_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("STRATA_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
