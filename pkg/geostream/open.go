package geostream

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for file names it cannot dispatch.
var ErrUnsupportedFormat = errors.New("unsupported file format")

const zipScheme = "zip://"

// Open decodes the file at path.
//
// Paths ending in .geojson or .json are read as GeoJSON. A .shp path is
// joined with the .dbf next to it; without one, features have null
// properties. A path of the form zip://archive.zip!layer.shp reads the
// layer (and its .dbf) straight from the archive; the layer may be omitted
// to use the first .shp or .geojson entry.
func Open(ctx context.Context, path string, opts DecodeOptions) (*Stream[*Feature], error) {
	if strings.HasPrefix(path, zipScheme) {
		return openZip(ctx, path, opts)
	}

	switch ext(path) {
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return newStream(ctx, opts.buffer(), forward(DecodeGeoJSON(ctx, f, opts)), closer(f)), nil

	case ".shp":
		shp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		shapes := DecodeShapes(ctx, shp, opts)
		dbfPath, ok := siblingDbf(path)
		if !ok {
			opts.logger().Debug().Str("path", path).Msg("no attribute table, properties stay null")
			return newStream(ctx, opts.buffer(), forward(shapes), closer(shp)), nil
		}
		dbf, err := os.Open(dbfPath)
		if err != nil {
			shapes.Close()
			shp.Close()
			return nil, err
		}
		attrs := DecodeAttributes(ctx, dbf, opts)
		return newStream(ctx, opts.buffer(), forward(Join(ctx, shapes, attrs)), closer(shp), closer(dbf)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// openZip handles zip://archive!entry paths.
func openZip(ctx context.Context, path string, opts DecodeOptions) (*Stream[*Feature], error) {
	archivePath, entry, _ := strings.Cut(strings.TrimPrefix(path, zipScheme), "!")
	if archivePath == "" {
		return nil, fmt.Errorf("invalid zip URL format: %s (expected zip://path!entry)", path)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	layer := findZipEntry(r.File, entry)
	if layer == nil {
		r.Close()
		if entry == "" {
			return nil, fmt.Errorf("no .shp or .geojson layer in zip: %s", archivePath)
		}
		return nil, fmt.Errorf("file not found in zip: %s", entry)
	}

	rc, err := layer.Open()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("open zip entry: %w", err)
	}

	switch ext(layer.Name) {
	case ".geojson", ".json":
		return newStream(ctx, opts.buffer(), forward(DecodeGeoJSON(ctx, rc, opts)), closer(rc), closer(r)), nil

	case ".shp":
		shapes := DecodeShapes(ctx, rc, opts)
		dbfEntry := findZipEntry(r.File, strings.TrimSuffix(layer.Name, filepath.Ext(layer.Name))+".dbf")
		if dbfEntry == nil {
			return newStream(ctx, opts.buffer(), forward(shapes), closer(rc), closer(r)), nil
		}
		drc, err := dbfEntry.Open()
		if err != nil {
			shapes.Close()
			rc.Close()
			r.Close()
			return nil, fmt.Errorf("open zip entry: %w", err)
		}
		attrs := DecodeAttributes(ctx, drc, opts)
		return newStream(ctx, opts.buffer(), forward(Join(ctx, shapes, attrs)), closer(rc), closer(drc), closer(r)), nil
	}

	rc.Close()
	r.Close()
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, layer.Name)
}

// findZipEntry returns the entry called name, matching the extension without
// regard to case. An empty name selects the first decodable layer.
func findZipEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if name == "" {
			switch ext(f.Name) {
			case ".shp", ".geojson", ".json":
				return f
			}
			continue
		}
		if sameFile(f.Name, name) {
			return f
		}
	}
	return nil
}

func sameFile(a, b string) bool {
	ea, eb := filepath.Ext(a), filepath.Ext(b)
	return strings.TrimSuffix(a, ea) == strings.TrimSuffix(b, eb) && strings.EqualFold(ea, eb)
}

// siblingDbf looks for the attribute table of a .shp file.
func siblingDbf(shpPath string) (string, bool) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, candidate := range []string{base + ".dbf", base + ".DBF"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// forward re-emits the items of src, closing it when done.
func forward[T any](src *Stream[T]) producer[T] {
	return func(ctx context.Context, emit func(T) error) error {
		defer src.Close()
		for {
			v, ok := src.Next(ctx)
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return src.Err()
			}
			if err := emit(v); err != nil {
				return err
			}
		}
	}
}

func closer(c io.Closer) func() {
	return func() { c.Close() }
}
