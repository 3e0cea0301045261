package geostream

import (
	"encoding/json"
	"fmt"
	"io"
)

const collectionHeader = `{"type":"FeatureCollection","features":[`

// FeatureWriter writes features one at a time, either wrapped in a GeoJSON
// FeatureCollection or as newline-delimited features.
//
// The first write error is kept and returned by every later call.
type FeatureWriter struct {
	w      io.Writer
	ndjson bool
	count  int
	err    error
}

// NewFeatureWriter returns a writer producing a FeatureCollection, or one
// feature per line when ndjson is set.
func NewFeatureWriter(w io.Writer, ndjson bool) *FeatureWriter {
	return &FeatureWriter{w: w, ndjson: ndjson}
}

// Write appends one feature.
func (fw *FeatureWriter) Write(f *Feature) error {
	if fw.err != nil {
		return fw.err
	}
	b, err := json.Marshal(f)
	if err != nil {
		fw.err = fmt.Errorf("feature %d: %w", fw.count, err)
		return fw.err
	}

	switch {
	case fw.ndjson:
		b = append(b, '\n')
	case fw.count == 0:
		fw.write(collectionHeader)
	default:
		fw.write(",")
	}
	if fw.err == nil {
		_, fw.err = fw.w.Write(b)
	}
	if fw.err == nil {
		fw.count++
	}
	return fw.err
}

// Close terminates the FeatureCollection. It does not close the underlying
// writer.
func (fw *FeatureWriter) Close() error {
	if fw.err != nil || fw.ndjson {
		return fw.err
	}
	if fw.count == 0 {
		fw.write(collectionHeader)
	}
	fw.write("]}\n")
	return fw.err
}

// Count returns the number of features written.
func (fw *FeatureWriter) Count() int { return fw.count }

func (fw *FeatureWriter) write(s string) {
	if fw.err == nil {
		_, fw.err = io.WriteString(fw.w, s)
	}
}
