package parser

import (
	"testing"

	"github.com/paulmach/orb"
)

var (
	squareCW  = orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	squareCCW = orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
)

// TestSignedArea tests winding detection
func TestSignedArea(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		want float64
	}{
		{"clockwise", squareCW, 100},
		{"counter-clockwise", squareCCW, -100},
		{"triangle", orb.Ring{{0, 0}, {0, 2}, {2, 0}, {0, 0}}, 2},
		{"degenerate", orb.Ring{{1, 1}, {2, 2}, {1, 1}}, 0},
		{"empty", orb.Ring{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedArea(tt.ring); got != tt.want {
				t.Errorf("SignedArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRingContains tests point in ring classification
func TestRingContains(t *testing.T) {
	tests := []struct {
		name  string
		point orb.Point
		want  int
	}{
		{"inside", orb.Point{5, 5}, 1},
		{"outside", orb.Point{15, 5}, -1},
		{"outside below", orb.Point{5, -1}, -1},
		{"vertex", orb.Point{10, 10}, 0},
		{"edge", orb.Point{0, 5}, 0},
		{"edge midpoint", orb.Point{5, 10}, 0},
		{"collinear beyond edge", orb.Point{0, 15}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ringContains(squareCW, tt.point); got != tt.want {
				t.Errorf("ringContains(%v) = %d, want %d", tt.point, got, tt.want)
			}
		})
	}
}

func TestRingContainsSome(t *testing.T) {
	tests := []struct {
		name string
		hole orb.Ring
		want bool
	}{
		{"fully inside", orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 2}}, true},
		{"one vertex inside", orb.Ring{{5, 5}, {20, 5}, {20, 20}, {5, 5}}, true},
		{"touching boundary", orb.Ring{{10, 5}, {20, 5}, {20, 8}, {10, 5}}, true},
		{"disjoint", orb.Ring{{20, 20}, {30, 20}, {30, 30}, {20, 20}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RingContainsSome(squareCW, tt.hole); got != tt.want {
				t.Errorf("RingContainsSome() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAssembleRings tests grouping of exterior rings and holes
func TestAssembleRings(t *testing.T) {
	hole := orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
	farCW := orb.Ring{{20, 20}, {20, 30}, {30, 30}, {30, 20}, {20, 20}}
	farHole := orb.Ring{{22, 22}, {24, 22}, {24, 24}, {22, 22}}
	strayHole := orb.Ring{{50, 50}, {60, 50}, {60, 60}, {50, 50}}

	tests := []struct {
		name  string
		rings []orb.Ring
		want  orb.Geometry
	}{
		{
			name:  "single exterior",
			rings: []orb.Ring{squareCW},
			want:  orb.Polygon{squareCW},
		},
		{
			name:  "exterior with hole",
			rings: []orb.Ring{squareCW, hole},
			want:  orb.Polygon{squareCW, hole},
		},
		{
			name:  "hole listed first",
			rings: []orb.Ring{hole, squareCW},
			want:  orb.Polygon{squareCW, hole},
		},
		{
			name:  "two exteriors",
			rings: []orb.Ring{squareCW, farCW},
			want:  orb.MultiPolygon{{squareCW}, {farCW}},
		},
		{
			name:  "holes go to their own exterior",
			rings: []orb.Ring{squareCW, farCW, farHole, hole},
			want:  orb.MultiPolygon{{squareCW, hole}, {farCW, farHole}},
		},
		{
			name:  "unclaimed hole becomes a polygon",
			rings: []orb.Ring{squareCW, strayHole},
			want:  orb.MultiPolygon{{squareCW}, {strayHole}},
		},
		{
			name:  "only a hole",
			rings: []orb.Ring{squareCCW},
			want:  orb.Polygon{squareCCW},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleRings(tt.rings)
			if !orb.Equal(got, tt.want) {
				t.Errorf("AssembleRings() = %v, want %v", got, tt.want)
			}
		})
	}
}
