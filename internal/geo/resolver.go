// Package geo maps (country, city) pairs to fixed geographic coordinates.
// Upstream weather providers disagree on free-text city search, so locations
// are resolved once from a local table and every provider receives the same
// coordinates.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"
)

//go:embed cities.json
var citiesJSON []byte

var ErrUnknownCity = errors.New("unknown city")

// Location is an immutable resolved city position.
type Location struct {
	Country string
	City    string
	Lat     float64
	Lon     float64
}

type cityRecord struct {
	Country string  `json:"country"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Resolver holds the city table. It is built once at startup and read-only
// afterwards, so concurrent lookups need no locking.
type Resolver struct {
	cities map[string]map[string]Location
}

func NewResolver() (*Resolver, error) {
	var records []cityRecord
	if err := json.Unmarshal(citiesJSON, &records); err != nil {
		return nil, fmt.Errorf("parse city table: %w", err)
	}

	cities := make(map[string]map[string]Location, len(records))
	for _, rec := range records {
		country := normalizeCountry(rec.Country)
		byCity, ok := cities[country]
		if !ok {
			byCity = make(map[string]Location)
			cities[country] = byCity
		}
		byCity[normalizeCity(rec.Name)] = Location{
			Country: country,
			City:    rec.Name,
			Lat:     rec.Lat,
			Lon:     rec.Lng,
		}
	}

	return &Resolver{cities: cities}, nil
}

// Resolve looks up a city by case-insensitive, whitespace-trimmed
// (country, city) key.
func (r *Resolver) Resolve(country, city string) (Location, error) {
	byCity, ok := r.cities[normalizeCountry(country)]
	if !ok {
		return Location{}, fmt.Errorf("%s/%s: %w", country, city, ErrUnknownCity)
	}

	loc, ok := byCity[normalizeCity(city)]
	if !ok {
		return Location{}, fmt.Errorf("%s/%s: %w", country, city, ErrUnknownCity)
	}

	return loc, nil
}

func normalizeCountry(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
