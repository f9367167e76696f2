// Package geometry computes approximate planar areas for GeoJSON
// polygons. The estimate treats coordinates as planar degrees and
// scales by the equatorial meters-per-degree constant, so it is not
// geodesically accurate; callers depend only on this package, which
// keeps the approximation swappable for a proper geodesic formula.
package geometry

import (
	"encoding/json"
	"math"
)

// Meters per degree of longitude/latitude at the equator.
const metersPerDegree = 111320.0

// Polygon is the subset of a GeoJSON Polygon object this package
// reads. Coordinates holds linear rings of [longitude, latitude]
// positions; only the outer ring is used.
type Polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// PolygonArea returns the approximate area in square meters of the
// outer ring of a raw GeoJSON Polygon. It returns 0 when the input is
// empty, malformed, not a Polygon, or has fewer than 3 vertices.
func PolygonArea(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}

	var polygon Polygon

	if err := json.Unmarshal(raw, &polygon); err != nil {
		return 0
	}

	if polygon.Type != "Polygon" || len(polygon.Coordinates) == 0 {
		return 0
	}

	return RingArea(polygon.Coordinates[0])
}

// RingArea applies the shoelace formula over consecutive vertex pairs
// of a linear ring. GeoJSON rings repeat the first position as the
// last, so the loop stops one short of wrapping around.
func RingArea(ring [][]float64) float64 {
	if len(ring) < 3 {
		return 0
	}

	var sum float64

	for i := 0; i < len(ring)-1; i++ {
		a, b := ring[i], ring[i+1]

		if len(a) < 2 || len(b) < 2 {
			return 0
		}

		sum += a[0]*b[1] - b[0]*a[1]
	}

	areaDegrees := math.Abs(sum) / 2.0

	return areaDegrees * metersPerDegree * metersPerDegree
}
