package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func main() {
	// Load the whole file into an indexed collection
	coll, err := geostream.Load(context.Background(), "roads.geojson", geostream.DefaultDecodeOptions())
	if err != nil {
		log.Fatal(err)
	}

	bounds := coll.Bounds()
	fmt.Printf("Collection: %s (%d features)\n", coll.Name(), coll.FeatureCount())
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.MinX, bounds.MinY,
		bounds.MaxX, bounds.MaxY)

	// Define viewport (Boston Harbor area)
	viewport := geostream.Bounds{
		MinX: -71.1, MaxX: -71.0,
		MinY: 42.3, MaxY: 42.4,
	}

	// Query R-tree index for visible features (O(log n))
	features := coll.FeaturesInBounds(viewport)

	fmt.Printf("Visible features: %d\n", len(features))

	for _, feature := range features {
		fmt.Printf("  %v: %s\n", feature.ID, feature.Geometry.GeoJSONType())
	}
}
