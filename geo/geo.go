// Package geo holds map coordinates, viewports and the device location and
// geocoding collaborators the map controller depends on.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Region is a map viewport: a center plus the visible span in degrees.
type Region struct {
	Center   Coordinate
	LatDelta float64
	LonDelta float64
}

const (
	// CloseSpan is the zoom used when centering on a single point.
	CloseSpan = 0.01
)

// DefaultRegion frames metropolitan France.
var DefaultRegion = Region{
	Center:   Coordinate{Latitude: 46.603354, Longitude: 1.888334},
	LatDelta: 10,
	LonDelta: 10,
}

func Around(c Coordinate) Region {
	return Region{Center: c, LatDelta: CloseSpan, LonDelta: CloseSpan}
}

func (r Region) Contains(c Coordinate) bool {
	return c.Latitude >= r.Center.Latitude-r.LatDelta/2 &&
		c.Latitude <= r.Center.Latitude+r.LatDelta/2 &&
		c.Longitude >= r.Center.Longitude-r.LonDelta/2 &&
		c.Longitude <= r.Center.Longitude+r.LonDelta/2
}

// ParseLocation reads an activity's "lat,lon" location. Anything that is
// not exactly two numbers yields ok == false.
func ParseLocation(s string) (Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: lat, Longitude: lon}, true
}

// MustParse is for literals in tests and defaults.
func MustParse(s string) Coordinate {
	c, ok := ParseLocation(s)
	if !ok {
		panic(fmt.Sprintf("geo: invalid location %q", s))
	}
	return c
}
