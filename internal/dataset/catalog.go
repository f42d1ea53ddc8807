package dataset

import (
	"slices"

	"covid-dashboard/internal/config"
)

// DefaultAggregate is the canonical name of the whole-world pseudo-location.
const DefaultAggregate = config.DefaultAggregate

// DefaultLocations is the built-in allow-list.
var DefaultLocations = config.DefaultLocations

// AllowList is the set of locations the dashboard restricts itself to.
type AllowList struct {
	aggregate string
	display   map[string]string
}

// NewAllowList builds an allow-list from pairs. An empty pairs slice selects DefaultLocations.
func NewAllowList(pairs []config.LocationPair, aggregate string) AllowList {
	if len(pairs) == 0 {
		pairs = DefaultLocations
	}
	if aggregate == "" {
		aggregate = DefaultAggregate
	}
	display := make(map[string]string, len(pairs))
	for _, p := range pairs {
		display[p.Canonical] = p.Display
	}
	return AllowList{aggregate: aggregate, display: display}
}

func (a AllowList) Allows(canonical string) bool {
	_, ok := a.display[canonical]
	return ok
}

// Catalog maps canonical location names to display names for the locations
// actually present in the dataset. It is immutable once built.
type Catalog struct {
	aggregate   string
	names       []string
	toDisplay   map[string]string
	toCanonical map[string]string
	order       map[string]int
}

// NewCatalog keeps the allow-listed locations found in present. The aggregate
// comes first in Names, the rest follow sorted by display name.
func NewCatalog(allow AllowList, present map[string]bool) *Catalog {
	c := &Catalog{
		aggregate:   allow.aggregate,
		toDisplay:   make(map[string]string),
		toCanonical: make(map[string]string),
		order:       make(map[string]int),
	}

	var others []string
	for canonical, display := range allow.display {
		if !present[canonical] {
			continue
		}
		c.toDisplay[canonical] = display
		c.toCanonical[display] = canonical
		if canonical != allow.aggregate {
			others = append(others, display)
		}
	}
	slices.Sort(others)

	if display, ok := c.toDisplay[allow.aggregate]; ok {
		c.names = append(c.names, display)
	}
	c.names = append(c.names, others...)
	for i, name := range c.names {
		c.order[name] = i
	}
	return c
}

// Names returns display names, aggregate first.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Canonical resolves a display name, falling back to the name itself.
func (c *Catalog) Canonical(display string) string {
	if canonical, ok := c.toCanonical[display]; ok {
		return canonical
	}
	return display
}

// Display resolves a canonical name, falling back to the name itself.
func (c *Catalog) Display(canonical string) string {
	if display, ok := c.toDisplay[canonical]; ok {
		return display
	}
	return canonical
}

func (c *Catalog) Contains(display string) bool {
	_, ok := c.toCanonical[display]
	return ok
}

func (c *Catalog) Aggregate() string {
	return c.aggregate
}

func (c *Catalog) IsAggregate(canonical string) bool {
	return canonical == c.aggregate
}

// Position is the index of display in Names, or -1.
func (c *Catalog) Position(display string) int {
	if i, ok := c.order[display]; ok {
		return i
	}
	return -1
}

func (c *Catalog) Len() int {
	return len(c.names)
}
