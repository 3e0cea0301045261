package geostream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Bounds is an axis-aligned bounding box in source coordinates.
type Bounds struct {
	MinX float64 // Western edge
	MinY float64 // Southern edge
	MaxX float64 // Eastern edge
	MaxY float64 // Northern edge
}

// ParseBounds parses "minx,miny,maxx,maxy".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	b := Bounds{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return Bounds{}, fmt.Errorf("bbox %q: min exceeds max", s)
	}
	return b, nil
}

// Contains returns true if the point (x, y) is within the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Intersects returns true if the given bounds intersects with this bounds.
// Touching edges count as intersecting.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Extend returns the smallest Bounds covering both b and other.
func (b Bounds) Extend(other Bounds) Bounds {
	if other.MinX < b.MinX {
		b.MinX = other.MinX
	}
	if other.MinY < b.MinY {
		b.MinY = other.MinY
	}
	if other.MaxX > b.MaxX {
		b.MaxX = other.MaxX
	}
	if other.MaxY > b.MaxY {
		b.MaxY = other.MaxY
	}
	return b
}

// Bound converts b to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// geometryBounds returns the bounding box of g. ok is false for a null or
// empty geometry.
func geometryBounds(g orb.Geometry) (Bounds, bool) {
	if g == nil {
		return Bounds{}, false
	}
	bound := g.Bound()
	if bound.IsEmpty() {
		return Bounds{}, false
	}
	return Bounds{MinX: bound.Min[0], MinY: bound.Min[1], MaxX: bound.Max[0], MaxY: bound.Max[1]}, true
}

// rectEpsilon pads every rectangle handed to the R-tree: rtreego rejects
// zero lengths and treats touching rectangles as disjoint.
const rectEpsilon = 0.0001

func (b Bounds) rect() rtreego.Rect {
	padded := b.Expand(rectEpsilon)
	point := rtreego.Point{padded.MinX, padded.MinY}
	lengths := []float64{padded.MaxX - padded.MinX, padded.MaxY - padded.MinY}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}
