package render

import (
	"image/color"
	"strings"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Theme is the colour set for one appearance.
type Theme struct {
	Name       string
	Background color.RGBA
	BandA      color.RGBA
	BandB      color.RGBA
	Grid       color.RGBA
	Text       color.RGBA
	Subtle     color.RGBA
	Edge       color.RGBA
	Arrow      color.RGBA
	Connection color.RGBA
	Stroke     color.RGBA
	Pinned     color.RGBA
	Highlight  color.RGBA

	categories [7]color.RGBA
}

var (
	// Light is the default theme.
	Light = Theme{
		Name:       "light",
		Background: color.RGBA{0xf9, 0xfa, 0xfb, 0xff},
		BandA:      color.RGBA{0xf3, 0xf4, 0xf6, 0xff},
		BandB:      color.RGBA{0xe9, 0xeb, 0xee, 0xff},
		Grid:       color.RGBA{0xd1, 0xd5, 0xdb, 0xff},
		Text:       color.RGBA{0x11, 0x18, 0x27, 0xff},
		Subtle:     color.RGBA{0x66, 0x66, 0x66, 0xff},
		Edge:       color.RGBA{0x9c, 0xa3, 0xaf, 0xff},
		Arrow:      color.RGBA{0x6b, 0x72, 0x80, 0xff},
		Connection: color.RGBA{0xa5, 0xb4, 0xfc, 0xff},
		Stroke:     color.RGBA{0x37, 0x41, 0x51, 0xff},
		Pinned:     color.RGBA{0xdc, 0x26, 0x26, 0xff},
		Highlight:  color.RGBA{0xf5, 0x9e, 0x0b, 0xff},
		categories: [7]color.RGBA{
			{0x9c, 0xa3, 0xaf, 0xff}, // unknown
			{0x25, 0x63, 0xeb, 0xff}, // person
			{0x7c, 0x3a, 0xed, 0xff}, // organization
			{0x05, 0x96, 0x69, 0xff}, // place
			{0xea, 0x58, 0x0c, 0xff}, // event
			{0xdb, 0x27, 0x77, 0xff}, // work
			{0x0d, 0x94, 0x88, 0xff}, // concept
		},
	}

	// Dark is the low-light theme.
	Dark = Theme{
		Name:       "dark",
		Background: color.RGBA{0x11, 0x18, 0x27, 0xff},
		BandA:      color.RGBA{0x1f, 0x29, 0x37, 0xff},
		BandB:      color.RGBA{0x17, 0x20, 0x2e, 0xff},
		Grid:       color.RGBA{0x37, 0x41, 0x51, 0xff},
		Text:       color.RGBA{0xf9, 0xfa, 0xfb, 0xff},
		Subtle:     color.RGBA{0x9c, 0xa3, 0xaf, 0xff},
		Edge:       color.RGBA{0x4b, 0x55, 0x63, 0xff},
		Arrow:      color.RGBA{0x6b, 0x72, 0x80, 0xff},
		Connection: color.RGBA{0x63, 0x66, 0xf1, 0xff},
		Stroke:     color.RGBA{0xe5, 0xe7, 0xeb, 0xff},
		Pinned:     color.RGBA{0xf8, 0x71, 0x71, 0xff},
		Highlight:  color.RGBA{0xfb, 0xbf, 0x24, 0xff},
		categories: [7]color.RGBA{
			{0x6b, 0x72, 0x80, 0xff},
			{0x60, 0xa5, 0xfa, 0xff},
			{0xa7, 0x8b, 0xfa, 0xff},
			{0x34, 0xd3, 0x99, 0xff},
			{0xfb, 0x92, 0x3c, 0xff},
			{0xf4, 0x72, 0xb6, 0xff},
			{0x2d, 0xd4, 0xbf, 0xff},
		},
	}
)

// ThemeByName returns the named theme, defaulting to Light.
func ThemeByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		return Dark
	default:
		return Light
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == Dark.Name {
		return Light
	}
	return Dark
}

// CategoryColor returns the marker fill for c. Values outside the enum get
// the unknown colour.
func (t Theme) CategoryColor(c model.Category) color.RGBA {
	switch c {
	case model.CategoryPerson:
		return t.categories[1]
	case model.CategoryOrganization:
		return t.categories[2]
	case model.CategoryPlace:
		return t.categories[3]
	case model.CategoryEvent:
		return t.categories[4]
	case model.CategoryWork:
		return t.categories[5]
	case model.CategoryConcept:
		return t.categories[6]
	case model.CategoryUnknown:
		return t.categories[0]
	default:
		return t.categories[0]
	}
}

// communityColors cycles for community colouring; it avoids the theme's
// pinned and highlight hues.
var communityColors = []color.RGBA{
	{0x4e, 0x79, 0xa7, 0xff},
	{0x59, 0xa1, 0x4f, 0xff},
	{0xb0, 0x7a, 0xa1, 0xff},
	{0x76, 0xb7, 0xb2, 0xff},
	{0xed, 0xc9, 0x48, 0xff},
	{0xff, 0x9d, 0xa7, 0xff},
	{0x9c, 0x75, 0x5f, 0xff},
	{0xba, 0xb0, 0xac, 0xff},
}

// CommunityColor returns a stable colour for community index i.
func CommunityColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return communityColors[i%len(communityColors)]
}
