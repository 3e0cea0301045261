package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/beetlebugorg/geostream/pkg/geostream"
)

func main() {
	paths, err := filepath.Glob("data/*.shp")
	if err != nil {
		log.Fatal(err)
	}

	opts := geostream.DefaultLoadOptions()
	opts.Workers = 4
	opts.Progress = func(loaded, total int) {
		fmt.Printf("\rLoading: %d/%d", loaded, total)
	}

	set, errs := geostream.LoadFilesParallel(context.Background(), paths, opts)
	fmt.Println()
	for _, err := range errs {
		log.Printf("Skipped: %v", err)
	}

	fmt.Printf("Collections: %d, features: %d\n", len(set.Collections), set.FeatureCount())
	if b, ok := set.Bounds(); ok {
		fmt.Printf("Coverage: [%.4f,%.4f] to [%.4f,%.4f]\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
	}

	// Keep loaded collections around under a 256MB budget
	cache := geostream.NewCollectionCache(256 * 1024 * 1024)
	for _, c := range set.Collections {
		if err := cache.Add(c.Name(), c); err != nil {
			log.Printf("Not cached: %v", err)
		}
	}

	stats := cache.Stats()
	fmt.Printf("Cached: %d collections, ~%d KB\n", stats.CollectionCount, stats.UsedMemory/1024)
}
