package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func main() {
	ctx := context.Background()

	shp, err := os.Open("parcels.shp")
	if err != nil {
		log.Fatal(err)
	}
	defer shp.Close()

	dbf, err := os.Open("parcels.dbf")
	if err != nil {
		log.Fatal(err)
	}
	defer dbf.Close()

	opts := geostream.DefaultDecodeOptions()
	opts.WithLocation = true

	// Each decoder runs on its own goroutine; Join pairs record i of the
	// .shp with record i of the .dbf
	shapes := geostream.DecodeShapes(ctx, shp, opts)
	attrs := geostream.DecodeAttributes(ctx, dbf, opts)
	features := geostream.Join(ctx, shapes, attrs)
	defer features.Close()

	fw := geostream.NewFeatureWriter(os.Stdout, true)
	for {
		f, ok := features.Next(ctx)
		if !ok {
			break
		}
		if err := fw.Write(f); err != nil {
			log.Fatal(err)
		}
	}
	if err := features.Err(); err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d features\n", fw.Count())
}
