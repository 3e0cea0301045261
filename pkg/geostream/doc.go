// Package geostream decodes GeoJSON and Shapefile data as streams of features.
//
// Decoding is incremental: bytes are consumed as they arrive and each feature
// is delivered as soon as its last byte has been read, so memory use is bounded
// by the largest single feature rather than by the file.
//
// # Basic Usage
//
//	stream, err := geostream.Open(ctx, "parcels.shp", geostream.DefaultDecodeOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for f := range stream.C() {
//	    fmt.Println(f.Properties.Get("NAME"))
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Open dispatches on the file name:
//
//	roads.geojson, roads.json         GeoJSON FeatureCollection
//	parcels.shp                       shapes joined with parcels.dbf when present
//	zip://parcels.zip!parcels.shp     shapefile pair read from a zip archive
//
// # Building Blocks
//
// The decoders can also be driven directly from any io.Reader:
//
//	shapes := geostream.DecodeShapes(ctx, shpFile, opts)
//	attrs := geostream.DecodeAttributes(ctx, dbfFile, opts)
//	features := geostream.Join(ctx, shapes, attrs)
//
// Join pairs the two streams record by record and ends with the shorter one.
//
// # Spatial Queries
//
// Load collects a whole file into a Collection indexed by an R-tree:
//
//	coll, err := geostream.Load(ctx, "parcels.shp", opts)
//	visible := coll.FeaturesInBounds(geostream.Bounds{MinX: -71.5, MinY: 42.0, MaxX: -71.0, MaxY: 42.5})
//
// Collections can be kept in a CollectionCache and loaded in bulk with
// LoadFilesParallel.
package geostream
