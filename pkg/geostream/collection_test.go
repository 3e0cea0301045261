package geostream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/beetlebugorg/geostream/internal/parser"
	"github.com/paulmach/orb"
)

func namedFeature(name string, g orb.Geometry) *Feature {
	f := parser.NewFeature(g)
	f.Properties = parser.NewPropertyMap(1)
	f.Properties.Set("name", name)
	return f
}

func sampleCollection() *Collection {
	return NewCollection("sample", []*Feature{
		namedFeature("origin", orb.Point{0, 0}),
		namedFeature("null", nil),
		namedFeature("line", orb.LineString{{5, 5}, {8, 9}}),
		namedFeature("square", orb.Polygon{{{-4, -4}, {-4, -2}, {-2, -2}, {-2, -4}, {-4, -4}}}),
		namedFeature("far", orb.Point{100, 50}),
	})
}

func TestCollectionBounds(t *testing.T) {
	c := sampleCollection()
	want := Bounds{MinX: -4, MinY: -4, MaxX: 100, MaxY: 50}
	if c.Bounds() != want {
		t.Errorf("Bounds() = %+v, want %+v", c.Bounds(), want)
	}
	if c.FeatureCount() != 5 {
		t.Errorf("FeatureCount() = %d, want 5", c.FeatureCount())
	}
	if c.Name() != "sample" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestFeaturesInBounds(t *testing.T) {
	c := sampleCollection()

	tests := []struct {
		name   string
		bounds Bounds
		want   string
	}{
		{"everything", Bounds{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, "origin,line,square,far"},
		{"point on the edge", Bounds{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "origin"},
		{"line bounding box", Bounds{MinX: 6, MinY: 6, MaxX: 7, MaxY: 7}, "line"},
		{"touching polygon corner", Bounds{MinX: -2, MinY: -2, MaxX: -1, MaxY: -1}, "square"},
		{"empty area", Bounds{MinX: 20, MinY: 20, MaxX: 30, MaxY: 30}, ""},
		{"degenerate query", Bounds{MinX: 100, MinY: 50, MaxX: 100, MaxY: 50}, "far"},
		{"inverted query", Bounds{MinX: 10, MinY: 10, MaxX: -10, MaxY: -10}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(names(t, c.FeaturesInBounds(tt.bounds)), ",")
			if got != tt.want {
				t.Errorf("FeaturesInBounds() = %q, want %q", got, tt.want)
			}

			linear := strings.Join(names(t, c.featuresInBoundsLinear(tt.bounds)), ",")
			if tt.bounds.MinX <= tt.bounds.MaxX && linear != tt.want {
				t.Errorf("linear scan = %q, want %q", linear, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "towns.shp", pointShp(threePoints...))
	writeFile(t, dir, "towns.dbf", nameDbf("A", "B", "C"))

	c, err := Load(context.Background(), path, DefaultDecodeOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name() != "towns" {
		t.Errorf("Name() = %q, want towns", c.Name())
	}
	if got := strings.Join(names(t, c.FeaturesInBounds(Bounds{MinX: 1.5, MinY: 1.5, MaxX: 5, MaxY: 5})), ","); got != "B,C" {
		t.Errorf("FeaturesInBounds() = %q, want B,C", got)
	}

	if _, err := Load(context.Background(), dir+"/missing.shp", DefaultDecodeOptions()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/roads.geojson", "roads"},
		{"parcels.shp", "parcels"},
		{"zip:///data/all.zip!layers/lakes.shp", "lakes"},
		{"zip:///data/all.zip", "all"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := collectionName(tt.path); got != tt.want {
				t.Errorf("collectionName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestToGeoJSON(t *testing.T) {
	fc := sampleCollection().ToGeoJSON()
	if len(fc.Features) != 5 {
		t.Fatalf("Expected 5 features, got %d", len(fc.Features))
	}
	if fc.Features[1].Geometry != nil {
		t.Errorf("Expected null geometry, got %v", fc.Features[1].Geometry)
	}
	if fc.Features[3].Properties["name"] != "square" {
		t.Errorf("properties = %v", fc.Features[3].Properties)
	}
	if len(fc.BBox) != 4 || fc.BBox[0] != -4 || fc.BBox[3] != 50 {
		t.Errorf("BBox = %v", fc.BBox)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"geometry":null`)) {
		t.Errorf("Expected null geometry in %s", data)
	}

	empty := NewCollection("empty", nil).ToGeoJSON()
	if empty.BBox != nil {
		t.Errorf("Expected no bbox for an empty collection, got %v", empty.BBox)
	}
}

func TestWriteFeatureCollection(t *testing.T) {
	f := namedFeature("z-first", orb.Point{1, 2})
	f.Properties.Set("a-second", 2.0)

	var buf bytes.Buffer
	if err := WriteFeatureCollection(&buf, []*Feature{f, namedFeature("null", nil)}); err != nil {
		t.Fatalf("WriteFeatureCollection: %v", err)
	}
	want := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{"name":"z-first","a-second":2},"geometry":{"type":"Point","coordinates":[1,2]}},` +
		`{"type":"Feature","properties":{"name":"null"},"geometry":null}]}` + "\n"
	if buf.String() != want {
		t.Errorf("got  %s\nwant %s", buf.String(), want)
	}
}

// createLargeCollection spreads n points over a 10x10 degree area.
func createLargeCollection(n int) *Collection {
	rng := rand.New(rand.NewSource(1))
	features := make([]*Feature, n)
	for i := range features {
		p := orb.Point{-80 + rng.Float64()*10, 30 + rng.Float64()*10}
		features[i] = namedFeature(fmt.Sprintf("f%d", i), p)
	}
	return NewCollection("large", features)
}

func TestFeaturesInBoundsMatchesLinearScan(t *testing.T) {
	c := createLargeCollection(2000)
	viewport := Bounds{MinX: -76, MinY: 33, MaxX: -74, MaxY: 35}

	indexed := names(t, c.FeaturesInBounds(viewport))
	linear := names(t, c.featuresInBoundsLinear(viewport))
	if strings.Join(indexed, ",") != strings.Join(linear, ",") {
		t.Errorf("R-tree returned %d features, linear scan %d", len(indexed), len(linear))
	}
}

// BenchmarkFeaturesInBounds_Rtree benchmarks viewport queries with the R-tree index.
func BenchmarkFeaturesInBounds_Rtree(b *testing.B) {
	c := createLargeCollection(10000)
	viewport := Bounds{MinX: -75.1, MinY: 35, MaxX: -75, MaxY: 35.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.FeaturesInBounds(viewport)
	}
}

// BenchmarkFeaturesInBounds_Linear benchmarks viewport queries with a linear scan.
func BenchmarkFeaturesInBounds_Linear(b *testing.B) {
	c := createLargeCollection(10000)
	c.index = nil
	viewport := Bounds{MinX: -75.1, MinY: 35, MaxX: -75, MaxY: 35.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.FeaturesInBounds(viewport)
	}
}
