package config

import (
	"fmt"
	"strings"
)

// DefaultAggregate is the canonical name of the whole-world pseudo-location.
const DefaultAggregate = "World"

// DefaultLocations is the built-in allow-list: canonical source name to display name.
var DefaultLocations = []LocationPair{
	{Canonical: "World", Display: "Mundo"},
	{Canonical: "Brazil", Display: "Brasil"},
	{Canonical: "United States", Display: "Estados Unidos"},
	{Canonical: "India", Display: "Índia"},
	{Canonical: "Russia", Display: "Rússia"},
	{Canonical: "United Kingdom", Display: "Reino Unido"},
	{Canonical: "France", Display: "França"},
	{Canonical: "Germany", Display: "Alemanha"},
	{Canonical: "Italy", Display: "Itália"},
	{Canonical: "Spain", Display: "Espanha"},
	{Canonical: "China", Display: "China"},
	{Canonical: "Japan", Display: "Japão"},
	{Canonical: "South Korea", Display: "Coreia do Sul"},
	{Canonical: "Canada", Display: "Canadá"},
	{Canonical: "Mexico", Display: "México"},
	{Canonical: "Argentina", Display: "Argentina"},
	{Canonical: "Turkey", Display: "Turquia"},
	{Canonical: "Indonesia", Display: "Indonésia"},
	{Canonical: "Saudi Arabia", Display: "Arábia Saudita"},
	{Canonical: "South Africa", Display: "África do Sul"},
	{Canonical: "Australia", Display: "Austrália"},
}

// parseLocations reads "Canonical=Display" pairs separated by commas.
func parseLocations(value string) ([]LocationPair, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var pairs []LocationPair
	for _, item := range strings.Split(value, ",") {
		canonical, display, ok := strings.Cut(item, "=")
		canonical, display = strings.TrimSpace(canonical), strings.TrimSpace(display)
		if !ok || canonical == "" || display == "" {
			return nil, fmt.Errorf("DATA_LOCATIONS entry %q must look like Canonical=Display", item)
		}
		pairs = append(pairs, LocationPair{Canonical: canonical, Display: display})
	}
	return pairs, nil
}

// AllowedLocations returns Locations, or DefaultLocations when none are set.
func (d DataConfig) AllowedLocations() []LocationPair {
	if len(d.Locations) == 0 {
		return DefaultLocations
	}
	return d.Locations
}

// validateLocations requires unique canonical and display names and an
// aggregate that is one of the pairs.
func validateLocations(pairs []LocationPair, aggregate string) error {
	canonicals := make(map[string]bool, len(pairs))
	displays := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if canonicals[p.Canonical] {
			return fmt.Errorf("DATA_LOCATIONS lists %q more than once", p.Canonical)
		}
		if other, ok := displays[p.Display]; ok {
			return fmt.Errorf("DATA_LOCATIONS display name %q is used by both %q and %q", p.Display, other, p.Canonical)
		}
		canonicals[p.Canonical] = true
		displays[p.Display] = p.Canonical
	}
	if !canonicals[aggregate] {
		return fmt.Errorf("aggregate location %q is not in DATA_LOCATIONS", aggregate)
	}
	return nil
}
