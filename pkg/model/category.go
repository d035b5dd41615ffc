package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of entity kinds. Strings that match no known
// kind decode to CategoryUnknown.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPerson
	CategoryOrganization
	CategoryPlace
	CategoryEvent
	CategoryWork
	CategoryConcept
)

// Categories lists the known kinds in display order, excluding Unknown.
var Categories = []Category{
	CategoryPerson,
	CategoryOrganization,
	CategoryPlace,
	CategoryEvent,
	CategoryWork,
	CategoryConcept,
}

// ParseCategory maps a wire name to a Category.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "people":
		return CategoryPerson
	case "organization", "organisation", "org":
		return CategoryOrganization
	case "place", "location":
		return CategoryPlace
	case "event":
		return CategoryEvent
	case "work":
		return CategoryWork
	case "concept", "idea":
		return CategoryConcept
	default:
		return CategoryUnknown
	}
}

// String returns the wire name.
func (c Category) String() string {
	switch c {
	case CategoryPerson:
		return "person"
	case CategoryOrganization:
		return "organization"
	case CategoryPlace:
		return "place"
	case CategoryEvent:
		return "event"
	case CategoryWork:
		return "work"
	case CategoryConcept:
		return "concept"
	case CategoryUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Glyph is the single-character marker used in legends and terminal output.
func (c Category) Glyph() string {
	switch c {
	case CategoryPerson:
		return "P"
	case CategoryOrganization:
		return "O"
	case CategoryPlace:
		return "L"
	case CategoryEvent:
		return "E"
	case CategoryWork:
		return "W"
	case CategoryConcept:
		return "C"
	case CategoryUnknown:
		return "?"
	default:
		return "?"
	}
}

// IsKnown reports whether c is one of the named kinds.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryPerson, CategoryOrganization, CategoryPlace,
		CategoryEvent, CategoryWork, CategoryConcept:
		return true
	case CategoryUnknown:
		return false
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails; an
// unrecognised name becomes CategoryUnknown.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
