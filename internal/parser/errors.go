package parser

import (
	"errors"
	"fmt"
)

// ErrStackUnderflow signals a pop on an empty frame stack. Valid input never
// triggers it; seeing it means the extractor's transition table is wrong.
var ErrStackUnderflow = errors.New("geojson: pop on empty frame stack")

// ErrInvalidHeader indicates a file header that cannot drive record framing.
var ErrInvalidHeader = errors.New("invalid file header")

// SyntaxError reports a byte the GeoJSON extractor does not accept in its
// current state. Line and Column are 1-based, Offset is 0-based.
type SyntaxError struct {
	Char   byte
	Line   int
	Column int
	Offset int64
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("geojson: unexpected char %q at %d:%d (offset %d)",
		e.Char, e.Line, e.Column, e.Offset)
}

// ErrUnsupportedShapeType indicates a shape code without a decoder
type ErrUnsupportedShapeType struct {
	Type ShapeType
}

func (e *ErrUnsupportedShapeType) Error() string {
	if e.Type.known() {
		return fmt.Sprintf("shapefile: geometry type %v parsing not implemented", e.Type)
	}
	return fmt.Sprintf("shapefile: unknown geometry type %d", int32(e.Type))
}

// ErrInvalidRecord indicates a record body inconsistent with its own counts
type ErrInvalidRecord struct {
	Record uint32
	Reason string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("shapefile: record %d: %s", e.Record, e.Reason)
}

// ErrInvalidGeometry indicates a coordinate outside geographic bounds
type ErrInvalidGeometry struct {
	Type   string
	Reason string
}

func (e *ErrInvalidGeometry) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("invalid geometry (%s): %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}
