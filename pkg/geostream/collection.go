package geostream

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb/geojson"
)

// Collection is a fully decoded file with a spatial index over its features.
//
// Features keep their source order. Features with a null geometry are part
// of the collection but never match a bounds query.
type Collection struct {
	name     string
	features []*Feature
	bounds   Bounds
	index    *spatialIndex
}

// spatialIndex provides O(log n) bounds queries using an R-tree.
type spatialIndex struct {
	rtree *rtreego.Rtree
}

// indexedFeature wraps a feature for R-tree storage.
type indexedFeature struct {
	seq     int
	feature *Feature
	bounds  Bounds
}

// Bounds implements rtreego.Spatial interface.
func (f *indexedFeature) Bounds() rtreego.Rect {
	return f.bounds.rect()
}

// Load decodes the file at path (see Open) into an indexed Collection.
func Load(ctx context.Context, path string, opts DecodeOptions) (*Collection, error) {
	stream, err := Open(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	features, err := Collect(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c := NewCollection(collectionName(path), features)
	opts.logger().Debug().
		Str("path", path).
		Int("features", c.FeatureCount()).
		Msg("collection loaded")
	return c, nil
}

// NewCollection indexes features under name.
func NewCollection(name string, features []*Feature) *Collection {
	c := &Collection{name: name, features: features}
	c.buildSpatialIndex()
	return c
}

func collectionName(path string) string {
	if strings.HasPrefix(path, zipScheme) {
		archive, entry, _ := strings.Cut(strings.TrimPrefix(path, zipScheme), "!")
		if entry == "" {
			entry = archive
		}
		path = entry
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// buildSpatialIndex creates the R-tree and computes the collection bounds.
func (c *Collection) buildSpatialIndex() {
	// 2D, min=25 children, max=50 children
	rtree := rtreego.NewTree(2, 25, 50)

	var bounds *Bounds
	for i, f := range c.features {
		fb, ok := geometryBounds(f.Geometry)
		if !ok {
			continue
		}
		rtree.Insert(&indexedFeature{seq: i, feature: f, bounds: fb})

		if bounds == nil {
			bounds = &fb
		} else {
			*bounds = bounds.Extend(fb)
		}
	}

	c.index = &spatialIndex{rtree: rtree}
	if bounds != nil {
		c.bounds = *bounds
	}
}

// Name returns the collection name, the file name without its extension.
func (c *Collection) Name() string { return c.name }

// Features returns all features in source order.
func (c *Collection) Features() []*Feature { return c.features }

// FeatureCount returns the number of features.
func (c *Collection) FeatureCount() int { return len(c.features) }

// Bounds returns the box covering every non-null geometry. It is the zero
// Bounds when there is none.
func (c *Collection) Bounds() Bounds { return c.bounds }

// FeaturesInBounds returns the features whose geometry bounds intersect b, in
// source order.
func (c *Collection) FeaturesInBounds(b Bounds) []*Feature {
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return nil
	}
	if c.index == nil || c.index.rtree == nil {
		return c.featuresInBoundsLinear(b)
	}

	// the padded rectangles over-select; the exact test below settles it
	spatials := c.index.rtree.SearchIntersect(b.rect())
	hits := make([]*indexedFeature, 0, len(spatials))
	for _, spatial := range spatials {
		indexed := spatial.(*indexedFeature)
		if b.Intersects(indexed.bounds) {
			hits = append(hits, indexed)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	result := make([]*Feature, len(hits))
	for i, h := range hits {
		result[i] = h.feature
	}
	return result
}

// featuresInBoundsLinear performs linear search when no spatial index exists.
func (c *Collection) featuresInBoundsLinear(b Bounds) []*Feature {
	var result []*Feature
	for _, f := range c.features {
		if fb, ok := geometryBounds(f.Geometry); ok && b.Intersects(fb) {
			result = append(result, f)
		}
	}
	return result
}

// ToGeoJSON converts the collection to an orb FeatureCollection. Property
// order is not preserved by orb's map based properties.
func (c *Collection) ToGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.features {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		gf.BBox = f.BBox
		gf.ExtraMembers = f.ExtraMembers
		if f.Properties != nil {
			gf.Properties = f.Properties.Map()
		}
		fc.Append(gf)
	}
	if c.index != nil && c.index.rtree.Size() > 0 {
		fc.BBox = geojson.NewBBox(c.bounds.Bound())
	}
	return fc
}

// WriteFeatureCollection writes features as a GeoJSON FeatureCollection,
// keeping property order.
func WriteFeatureCollection(w io.Writer, features []*Feature) error {
	fw := NewFeatureWriter(w, false)
	for _, f := range features {
		if err := fw.Write(f); err != nil {
			return err
		}
	}
	return fw.Close()
}
