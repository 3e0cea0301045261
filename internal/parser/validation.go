package parser

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ValidateCoordinate checks a lon/lat pair against geographic bounds.
func ValidateCoordinate(lon, lat float64) error {
	if lat < -90.0 || lat > 90.0 || lon < -180.0 || lon > 180.0 {
		return fmt.Errorf("lon=%f lat=%f (lat must be ±90, lon must be ±180)", lon, lat)
	}
	return nil
}

// ValidateGeometry checks every coordinate of g. A nil geometry is valid.
func ValidateGeometry(g orb.Geometry) error {
	if g == nil {
		return nil
	}
	i := 0
	var bad error
	eachPoint(g, func(p orb.Point) bool {
		if err := ValidateCoordinate(p[0], p[1]); err != nil {
			bad = &ErrInvalidGeometry{
				Type:   g.GeoJSONType(),
				Reason: fmt.Sprintf("coordinate %d invalid: %v", i, err),
			}
			return false
		}
		i++
		return true
	})
	return bad
}

// ValidateFeature validates the geometry of a feature
func ValidateFeature(feature *Feature) error {
	if feature == nil {
		return fmt.Errorf("feature is nil")
	}
	return ValidateGeometry(feature.Geometry)
}

// eachPoint visits the points of g in order until fn returns false.
func eachPoint(g orb.Geometry, fn func(orb.Point) bool) bool {
	switch g := g.(type) {
	case orb.Point:
		return fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			if !fn(p) {
				return false
			}
		}
	case orb.LineString:
		return eachPoint(orb.MultiPoint(g), fn)
	case orb.Ring:
		return eachPoint(orb.MultiPoint(g), fn)
	case orb.MultiLineString:
		for _, ls := range g {
			if !eachPoint(ls, fn) {
				return false
			}
		}
	case orb.Polygon:
		for _, r := range g {
			if !eachPoint(r, fn) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if !eachPoint(p, fn) {
				return false
			}
		}
	case orb.Collection:
		for _, c := range g {
			if !eachPoint(c, fn) {
				return false
			}
		}
	case orb.Bound:
		return fn(g.Min) && fn(g.Max)
	}
	return true
}
