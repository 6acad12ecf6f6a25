package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cityconnect/api"
)

var ErrPlaceNotFound = errors.New("place not found")

type Geocoder interface {
	Lookup(ctx context.Context, place string) (Coordinate, error)
}

// Nominatim resolves place names with an OSM Nominatim compatible service.
type Nominatim struct {
	client *api.Client
}

func NewNominatim(client *api.Client) *Nominatim {
	return &Nominatim{client: client}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Lookup(ctx context.Context, place string) (Coordinate, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return Coordinate{}, ErrPlaceNotFound
	}

	var results []nominatimResult
	path := "/search?format=json&limit=1&q=" + url.QueryEscape(place)
	if err := n.client.Get(ctx, path, &results); err != nil {
		return Coordinate{}, fmt.Errorf("geocode %q: %w", place, err)
	}
	if len(results) == 0 {
		return Coordinate{}, fmt.Errorf("%q: %w", place, ErrPlaceNotFound)
	}

	c, ok := ParseLocation(results[0].Lat + "," + results[0].Lon)
	if !ok {
		return Coordinate{}, fmt.Errorf("geocode %q: malformed coordinates %q,%q", place, results[0].Lat, results[0].Lon)
	}
	return c, nil
}
