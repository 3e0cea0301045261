package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func safeLoad(path string) (*geostream.Collection, error) {
	opts := geostream.DefaultDecodeOptions()
	opts.ValidateGeometry = true

	coll, err := geostream.Load(context.Background(), path, opts)
	if err == nil {
		return coll, nil
	}

	var (
		syntaxErr   *geostream.SyntaxError
		shapeErr    *geostream.ErrUnsupportedShapeType
		recordErr   *geostream.ErrInvalidRecord
		geometryErr *geostream.ErrInvalidGeometry
	)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("file not found: %s", path)
	case errors.Is(err, geostream.ErrUnsupportedFormat):
		return nil, fmt.Errorf("not a GeoJSON or Shapefile: %s", path)
	case errors.As(err, &syntaxErr):
		log.Printf("Bad JSON at line %d, column %d", syntaxErr.Line, syntaxErr.Column)
	case errors.As(err, &shapeErr):
		log.Printf("Shape type %v is not supported", shapeErr.Type)
	case errors.As(err, &recordErr):
		log.Printf("Corrupt record %d: %s", recordErr.Record, recordErr.Reason)
	case errors.As(err, &geometryErr):
		log.Printf("Coordinates out of range: %s", geometryErr.Reason)
	case errors.Is(err, geostream.ErrInvalidHeader):
		log.Printf("Unreadable header")
	}
	return nil, err
}

func main() {
	coll, err := safeLoad("parcels.shp")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}

	fmt.Printf("Successfully loaded: %s\n", coll.Name())
	fmt.Printf("Features: %d\n", coll.FeatureCount())

	// Try a file that does not exist
	_, err = safeLoad("nonexistent.geojson")
	if err != nil {
		log.Printf("Expected error: %v", err)
	}
}
