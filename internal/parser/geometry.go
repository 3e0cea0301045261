package parser

import "github.com/paulmach/orb"

// AssembleRings groups Shapefile polygon rings into polygons.
//
// Rings with positive signed area (clockwise, the Shapefile convention for
// exterior rings) each start a polygon. Every other ring is a hole and goes
// to the first polygon, in creation order, whose exterior contains one of
// its vertices; a hole no polygon claims becomes a polygon of its own.
// One polygon yields orb.Polygon, anything else orb.MultiPolygon.
func AssembleRings(rings []orb.Ring) orb.Geometry {
	var (
		polygons []orb.Polygon
		holes    []orb.Ring
	)
	for _, ring := range rings {
		if SignedArea(ring) > 0 {
			polygons = append(polygons, orb.Polygon{ring})
		} else {
			holes = append(holes, ring)
		}
	}

	for _, hole := range holes {
		claimed := false
		for i, polygon := range polygons {
			if RingContainsSome(polygon[0], hole) {
				polygons[i] = append(polygon, hole)
				claimed = true
				break
			}
		}
		if !claimed {
			polygons = append(polygons, orb.Polygon{hole})
		}
	}

	if len(polygons) == 1 {
		return polygons[0]
	}
	return orb.MultiPolygon(polygons)
}

// SignedArea returns the shoelace area of ring, positive when the ring
// winds clockwise in a y-up coordinate system.
func SignedArea(ring orb.Ring) float64 {
	var area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[j][0] * ring[i][1]
		area -= ring[i][0] * ring[j][1]
	}
	return area / 2
}

// RingContainsSome reports whether any vertex of hole lies inside ring or
// on its boundary.
func RingContainsSome(ring, hole orb.Ring) bool {
	for _, p := range hole {
		if ringContains(ring, p) >= 0 {
			return true
		}
	}
	return false
}

// ringContains returns 1 when p is inside ring, 0 when it lies on an edge
// and -1 when it is outside.
func ringContains(ring orb.Ring, p orb.Point) int {
	x, y := p[0], p[1]
	contains := -1
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if segmentContains(pi, pj, p) {
			return 0
		}
		xi, yi := pi[0], pi[1]
		xj, yj := pj[0], pj[1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			contains = -contains
		}
	}
	return contains
}

// segmentContains reports whether p2 lies on the segment p0-p1.
func segmentContains(p0, p1, p2 orb.Point) bool {
	x20, y20 := p2[0]-p0[0], p2[1]-p0[1]
	if x20 == 0 && y20 == 0 {
		return true
	}
	x10, y10 := p1[0]-p0[0], p1[1]-p0[1]
	if x10 == 0 && y10 == 0 {
		return false
	}
	t := (x20*x10 + y20*y10) / (x10*x10 + y10*y10)
	if t < 0 || t > 1 {
		return false
	}
	return x20*y10-y20*x10 == 0
}
