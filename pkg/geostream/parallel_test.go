package geostream

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/paulmach/orb"
)

func writeDatasets(t *testing.T) (dir string, paths []string) {
	t.Helper()
	dir = t.TempDir()
	for i, name := range []string{"a", "b", "c", "d"} {
		p := orb.Point{float64(i), float64(-i)}
		paths = append(paths, writeFile(t, dir, name+".shp", pointShp(p, p)))
		writeFile(t, dir, name+".dbf", nameDbf(name, name))
	}
	return dir, paths
}

func TestLoadFilesParallel(t *testing.T) {
	_, paths := writeDatasets(t)

	var (
		mu       sync.Mutex
		progress []int
	)
	opts := DefaultLoadOptions()
	opts.Workers = 3
	opts.Progress = func(loaded, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(paths) {
			t.Errorf("total = %d, want %d", total, len(paths))
		}
		progress = append(progress, loaded)
	}

	set, errs := LoadFilesParallel(context.Background(), paths, opts)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(set.Collections) != 4 {
		t.Fatalf("Expected 4 collections, got %d", len(set.Collections))
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if set.Collections[i].Name() != want {
			t.Errorf("collection %d = %s, want %s", i, set.Collections[i].Name(), want)
		}
	}
	if set.FeatureCount() != 8 {
		t.Errorf("FeatureCount() = %d, want 8", set.FeatureCount())
	}

	b, ok := set.Bounds()
	want := Bounds{MinX: 0, MinY: -3, MaxX: 3, MaxY: 0}
	if !ok || b != want {
		t.Errorf("Bounds() = %+v, %v, want %+v", b, ok, want)
	}

	if len(progress) != 4 || progress[3] != 4 {
		t.Errorf("progress = %v", progress)
	}
}

func TestLoadFilesParallelErrors(t *testing.T) {
	dir, paths := writeDatasets(t)
	broken := filepath.Join(dir, "broken.geojson")
	if err := os.WriteFile(broken, []byte(`{"features":[}`), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.shp")
	all := append([]string{broken}, append(paths, missing)...)

	t.Run("skip errors", func(t *testing.T) {
		opts := DefaultLoadOptions()
		opts.SkipErrors = true

		set, errs := LoadFilesParallel(context.Background(), all, opts)
		if len(errs) != 2 {
			t.Fatalf("Expected 2 errors, got %v", errs)
		}
		if len(set.Collections) != 4 {
			t.Errorf("Expected 4 collections, got %d", len(set.Collections))
		}
		var sawMissing bool
		for _, err := range errs {
			if errors.Is(err, os.ErrNotExist) {
				sawMissing = true
			}
		}
		if !sawMissing {
			t.Errorf("Expected os.ErrNotExist among %v", errs)
		}
	})

	t.Run("stop on first error", func(t *testing.T) {
		opts := DefaultLoadOptions()
		opts.SkipErrors = false
		opts.Workers = 1

		set, errs := LoadFilesParallel(context.Background(), all, opts)
		if set != nil {
			t.Errorf("Expected nil set, got %d collections", len(set.Collections))
		}
		if len(errs) != 1 {
			t.Fatalf("Expected exactly one error, got %v", errs)
		}
	})
}

func TestLoadFilesParallelEmpty(t *testing.T) {
	set, errs := LoadFilesParallel(context.Background(), nil, DefaultLoadOptions())
	if errs != nil || set == nil || len(set.Collections) != 0 {
		t.Errorf("Expected empty set, got %v, %v", set, errs)
	}
	if _, ok := set.Bounds(); ok {
		t.Error("Expected no bounds for an empty set")
	}
}
