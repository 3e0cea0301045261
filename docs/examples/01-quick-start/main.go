package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func main() {
	ctx := context.Background()

	// Open a shapefile; parcels.dbf next to it supplies the attributes
	stream, err := geostream.Open(ctx, "parcels.shp", geostream.DefaultDecodeOptions())
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	// Features arrive while the file is still being read
	count := 0
	for f := range stream.C() {
		count++
		if count <= 5 {
			name, _ := f.Properties.Get("NAME")
			fmt.Printf("%d: %v %T\n", count, name, f.Geometry)
		}
	}
	if err := stream.Err(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Features: %d\n", count)
}
