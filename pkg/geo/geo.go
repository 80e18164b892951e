// Package geo provides the spatial filter types used to constrain
// Overpass queries: axis-aligned bounding boxes and polygons.
//
// A query is always sent to Overpass as a bounding box. Polygons are
// reduced to their bounding box once, at the call boundary, so the
// query-building code only ever deals with one spatial shape.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// EarthRadius is the approximate radius of the Earth in meters.
const EarthRadius = 6371000.0

// Location represents a geographic coordinate in decimal degrees (WGS84).
type Location struct {
	Latitude  float64
	Longitude float64
}

// ValidateCoords validates latitude and longitude values.
// Returns an error if the coordinates are invalid.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}

// SpatialFilter constrains a query to a geographic region. The two
// implementations are BoundingBox (used as-is) and Polygon (reduced to
// the bounding box of its vertices).
type SpatialFilter interface {
	// Bounds returns the bounding box to use as the Overpass spatial
	// constraint, or an error if the filter is malformed.
	Bounds() (BoundingBox, error)
}

// BoundingBox is an axis-aligned box in decimal degrees.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// NewBoundingBox builds a bounding box from (min-x, min-y, max-x, max-y)
// bounds, i.e. longitude first. This matches the bounds ordering of common
// geometry stacks, where x is longitude and y is latitude.
func NewBoundingBox(minLon, minLat, maxLon, maxLat float64) BoundingBox {
	return BoundingBox{
		MinLat: minLat,
		MinLon: minLon,
		MaxLat: maxLat,
		MaxLon: maxLon,
	}
}

// FromOrbBound converts an orb.Bound into a BoundingBox.
func FromOrbBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}
}

// Validate checks that the box is well-formed: coordinates in WGS84 range
// and min <= max on both axes.
func (b BoundingBox) Validate() error {
	if err := ValidateCoords(b.MinLat, b.MinLon); err != nil {
		return err
	}
	if err := ValidateCoords(b.MaxLat, b.MaxLon); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("invalid bounding box: min latitude %f > max latitude %f", b.MinLat, b.MaxLat)
	}
	if b.MinLon > b.MaxLon {
		return fmt.Errorf("invalid bounding box: min longitude %f > max longitude %f", b.MinLon, b.MaxLon)
	}
	return nil
}

// Bounds implements SpatialFilter. A bounding box is its own bounds.
func (b BoundingBox) Bounds() (BoundingBox, error) {
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// OverpassString renders the box in the (south,west,north,east) ordering
// Overpass QL expects for a bbox filter.
func (b BoundingBox) OverpassString() string {
	coords := []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ToOrb converts the box to an orb.Bound.
func (b BoundingBox) ToOrb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Location {
	return Location{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}

// Polygon is a spatial filter backed by an orb.Polygon. Its bounding box is
// the min/max of the polygon's vertex coordinates.
type Polygon struct {
	Polygon orb.Polygon
}

// NewPolygon wraps an orb.Polygon as a spatial filter.
func NewPolygon(p orb.Polygon) Polygon {
	return Polygon{Polygon: p}
}

// Bounds implements SpatialFilter by deriving the bounding box of the
// polygon's exterior ring.
func (p Polygon) Bounds() (BoundingBox, error) {
	if len(p.Polygon) == 0 || len(p.Polygon[0]) == 0 {
		return BoundingBox{}, fmt.Errorf("polygon has no vertices")
	}
	b := FromOrbBound(p.Polygon.Bound())
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// HaversineDistance calculates the great-circle distance in meters between
// two coordinates.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}
