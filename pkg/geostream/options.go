package geostream

import (
	"runtime"

	"github.com/rs/zerolog"
)

// DecodeOptions configures decoding behavior.
type DecodeOptions struct {
	// WithLocation attaches the byte range of the source object (GeoJSON) or
	// record body (Shapefile) to every feature.
	WithLocation bool

	// ChunkSize is the read size used to feed the decoders. If 0, defaults
	// to 64 KiB.
	ChunkSize int

	// Buffer is the number of decoded items a stream holds before its
	// producer blocks.
	Buffer int

	// ValidateGeometry rejects coordinates outside lon ±180, lat ±90 with a
	// *ErrInvalidGeometry error.
	ValidateGeometry bool

	// Logger receives debug events. A nil Logger disables logging.
	Logger *zerolog.Logger
}

const defaultChunkSize = 64 * 1024

// DefaultDecodeOptions returns default options.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		WithLocation:     false,
		ChunkSize:        defaultChunkSize,
		Buffer:           64,
		ValidateGeometry: false,
	}
}

func (o DecodeOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return o.ChunkSize
}

func (o DecodeOptions) buffer() int {
	if o.Buffer < 0 {
		return 0
	}
	return o.Buffer
}

func (o DecodeOptions) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// LoadOptions controls parallel loading behavior and error handling.
type LoadOptions struct {
	// Decode is applied to every file.
	Decode DecodeOptions

	// Workers specifies the number of parallel loader goroutines.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors causes loading to continue even when individual files fail.
	// Failed files are skipped and errors are collected.
	// When false, the first error stops loading and is returned.
	SkipErrors bool

	// Progress is an optional callback called after each file is processed,
	// successfully or not, with the number of files processed so far.
	Progress func(loaded, total int)
}

// DefaultLoadOptions returns load options with sensible defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Decode:     DefaultDecodeOptions(),
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}
