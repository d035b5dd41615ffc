package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# strata

## Navigation

| Key | Action |
|-----|--------|
| ← → ↑ ↓ / h l k j | Pan |
| + / - | Zoom in / out |
| home | Back to the origin |
| 0 | Fit the data |
| mouse drag | Pan, or drag a node in the graph |
| wheel | Zoom at the pointer |

## Nodes

| Key | Action |
|-----|--------|
| tab | Select the next node |
| / | Find a node or event by name, enter to jump |
| enter | Open the selected node's link |
| x | Release the selected pin |
| double click | Release the clicked node |
| space | Reheat the layout |
| p | Shortest path from the previous selection |
| c | Centrality ranking |
| m | Colour by community |

## View

| Key | Action |
|-----|--------|
| t | Toggle light / dark |
| r | Reading mode (labels only) |
| e | Export the current frame |
| y | Copy the selection or last export path |
| esc | Clear highlights |
| ? | Toggle this help |
| q | Quit |
`

// renderHelp renders the help overlay for a terminal of the given width.
// Rendering errors fall back to the raw markdown.
func renderHelp(width int, dark bool) string {
	wrap := max(min(width-4, 80), 20)
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n ")
}

// sourceLine describes where the dataset came from, for the help footer.
func sourceLine(name string, nodes, events int) string {
	return fmt.Sprintf("%s · %d nodes · %d events", name, nodes, events)
}
