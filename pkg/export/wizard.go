package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/strata/pkg/config"
)

// WizardConfig is what the export wizard remembers between runs.
type WizardConfig struct {
	Format    string `json:"format"`
	Directory string `json:"directory"`
	Title     string `json:"title,omitempty"`
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard asks for the export format, directory and file name, starting
// from defaults and the answers of the previous run. kind names the view
// being exported and seeds the suggested file name.
func RunWizard(kind string, defaults Options) (Options, error) {
	saved, err := LoadWizardConfig()
	if err != nil {
		saved = nil
	}

	format := strings.ToLower(defaults.Format)
	dir := filepath.Dir(defaults.Path)
	title := defaults.Title
	if saved != nil {
		if format == "" {
			format = saved.Format
		}
		if defaults.Path == "" && saved.Directory != "" {
			dir = saved.Directory
		}
		if title == "" {
			title = saved.Title
		}
	}
	if format == "" {
		format = FormatPNG
	}
	if defaults.Path == "" && (dir == "" || dir == ".") {
		dir = config.ExportDir()
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Export format").
				Options(
					huh.NewOption("PNG (rendered frame)", FormatPNG),
					huh.NewOption("SVG (vector scene)", FormatSVG),
				).
				Value(&format),
			huh.NewInput().
				Title("Output directory").
				Value(&dir).
				Placeholder(config.ExportDir()),
			huh.NewInput().
				Title("Title (optional)").
				Description("Written into SVG documents").
				Value(&title),
		),
	)
	if err := form.Run(); err != nil {
		return defaults, err
	}

	name := filepath.Base(defaults.Path)
	if defaults.Path == "" {
		name = DefaultFilename(kind, format, time.Now())
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + "." + format
	filename := name
	form = newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("File name").
				Value(&filename).
				Placeholder(name),
		),
	)
	if err := form.Run(); err != nil {
		return defaults, err
	}
	if strings.TrimSpace(filename) == "" {
		filename = name
	}

	out := Options{
		Path:   filepath.Join(dir, filename),
		Format: format,
		Title:  title,
	}
	if err := SaveWizardConfig(&WizardConfig{Format: format, Directory: dir, Title: title}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save export settings: %v\n", err)
	}
	return out.Resolve()
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration. It returns
// nil without error when nothing was saved.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
