package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func printFeatureDetails(i int, feature *geostream.Feature) {
	fmt.Printf("Feature %d\n", i)

	if feature.Properties == nil {
		fmt.Println("  (no attributes)")
		return
	}

	// Fields keep the column order of the table
	feature.Properties.Range(func(name string, v interface{}) bool {
		switch v := v.(type) {
		case nil:
			fmt.Printf("  %s: <blank>\n", name)
		case float64:
			fmt.Printf("  %s: %g\n", name, v)
		case bool:
			fmt.Printf("  %s: %t\n", name, v)
		case time.Time:
			fmt.Printf("  %s: %s\n", name, v.Format("2006-01-02"))
		default:
			fmt.Printf("  %s: %q\n", name, v)
		}
		return true
	})
}

func main() {
	stream, err := geostream.Open(context.Background(), "parcels.shp", geostream.DefaultDecodeOptions())
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	// Print details for first few features
	count := 0
	for f := range stream.C() {
		printFeatureDetails(count, f)
		count++
		if count >= 5 {
			break
		}
	}
}
