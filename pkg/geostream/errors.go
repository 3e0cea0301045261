package geostream

import "github.com/beetlebugorg/geostream/internal/parser"

// Errors ending a stream. Match them with errors.Is and errors.As.
var (
	// ErrInvalidHeader reports a Shapefile or DBF header that cannot frame
	// records.
	ErrInvalidHeader  = parser.ErrInvalidHeader
	ErrStackUnderflow = parser.ErrStackUnderflow
)

type (
	// SyntaxError reports the first byte of a GeoJSON document the
	// extractor rejected.
	SyntaxError = parser.SyntaxError

	// ErrUnsupportedShapeType reports a Z, M, MultiPatch or unknown shape
	// code.
	ErrUnsupportedShapeType = parser.ErrUnsupportedShapeType

	ErrInvalidRecord   = parser.ErrInvalidRecord
	ErrInvalidGeometry = parser.ErrInvalidGeometry
)
