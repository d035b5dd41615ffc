package ui

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-runewidth"
)

// EnvNoBrowser disables opening links; the link is only copied.
const EnvNoBrowser = "STRATA_NO_BROWSER"

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// truncate truncates s to maxWidth cells.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// padRight pads s with spaces on the right to width cells.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// formatZoom prints a zoom factor compactly across its huge range.
func formatZoom(z float64) string {
	switch {
	case z == 0 || math.IsNaN(z):
		return "0"
	case z >= 0.01 && z < 1000:
		return fmt.Sprintf("%.2fx", z)
	default:
		return fmt.Sprintf("%.1ex", z)
	}
}

var errNoLink = errors.New("no link")

// openerCommand returns the platform URL opener invocation.
func openerCommand(goos, link string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return "xdg-open", []string{link}
	}
}

// openLink copies link to the clipboard and opens it with the system
// opener unless STRATA_NO_BROWSER is set. Only http(s) and file links are
// opened.
func openLink(link string) (opened bool, err error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return false, errNoLink
	}
	u, err := url.Parse(link)
	if err != nil {
		return false, fmt.Errorf("invalid link %q: %w", link, err)
	}
	_ = clipboard.WriteAll(link)

	if os.Getenv(EnvNoBrowser) != "" {
		return false, nil
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return false, fmt.Errorf("refusing to open %q link", u.Scheme)
	}
	name, args := openerCommand(runtime.GOOS, link)
	if err := exec.Command(name, args...).Start(); err != nil {
		return false, fmt.Errorf("opening %s: %w", link, err)
	}
	return true, nil
}
