package parser

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	shpHeaderSize       = 100
	shpRecordHeaderSize = 8
	shpFileCode         = 9994
)

// ShapeType is the geometry code of a Shapefile and of each of its records.
type ShapeType int32

// Shape types defined by the ESRI Shapefile Technical Description.
const (
	ShapeNull        ShapeType = 0
	ShapePoint       ShapeType = 1
	ShapePolyLine    ShapeType = 3
	ShapePolygon     ShapeType = 5
	ShapeMultiPoint  ShapeType = 8
	ShapePointZ      ShapeType = 11
	ShapePolyLineZ   ShapeType = 13
	ShapePolygonZ    ShapeType = 15
	ShapeMultiPointZ ShapeType = 18
	ShapePointM      ShapeType = 21
	ShapePolyLineM   ShapeType = 23
	ShapePolygonM    ShapeType = 25
	ShapeMultiPointM ShapeType = 28
	ShapeMultiPatch  ShapeType = 31
)

var shapeTypeNames = map[ShapeType]string{
	ShapeNull:        "Null",
	ShapePoint:       "Point",
	ShapePolyLine:    "PolyLine",
	ShapePolygon:     "Polygon",
	ShapeMultiPoint:  "MultiPoint",
	ShapePointZ:      "PointZ",
	ShapePolyLineZ:   "PolyLineZ",
	ShapePolygonZ:    "PolygonZ",
	ShapeMultiPointZ: "MultiPointZ",
	ShapePointM:      "PointM",
	ShapePolyLineM:   "PolyLineM",
	ShapePolygonM:    "PolygonM",
	ShapeMultiPointM: "MultiPointM",
	ShapeMultiPatch:  "MultiPatch",
}

func (t ShapeType) String() string {
	if name, ok := shapeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ShapeType(%d)", int32(t))
}

func (t ShapeType) known() bool {
	_, ok := shapeTypeNames[t]
	return ok
}

// ShapefileHeader is the fixed 100-byte .shp file header.
type ShapefileHeader struct {
	FileCode   int32
	FileLength int64 // bytes
	Version    int32
	ShapeType  ShapeType
	XMin, YMin float64
	XMax, YMax float64
	ZMin, ZMax float64
	MMin, MMax float64
}

// RecordHeader precedes every record body.
type RecordHeader struct {
	RecordNumber  uint32
	ContentLength int // bytes
}

type shpPhase uint8

const (
	shpPhaseFileHeader shpPhase = iota
	shpPhaseRecordHeader
	shpPhaseRecordBody
)

// ShapeDecoder turns a .shp byte stream into Features with null
// properties, one per record. Records are framed by their headers only; the
// file length in the header is not used to detect the end of input.
type ShapeDecoder struct {
	handler      FeatureHandler
	withLocation bool

	framer framer
	phase  shpPhase
	header *ShapefileHeader
	record RecordHeader
	count  int

	err error
}

// NewShapeDecoder returns a decoder calling handler for each record.
// With withLocation set, features carry the byte range of the record body.
func NewShapeDecoder(handler FeatureHandler, withLocation bool) *ShapeDecoder {
	if handler == nil {
		handler = NopFeatureHandler
	}
	return &ShapeDecoder{
		handler:      handler,
		withLocation: withLocation,
		framer:       framer{need: shpHeaderSize},
		phase:        shpPhaseFileHeader,
	}
}

// Write feeds p to the decoder. A record split across calls is held until
// its last byte arrives.
func (d *ShapeDecoder) Write(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err := d.framer.feed(p, d.complete)
	if err != nil {
		d.err = err
	}
	return n, err
}

// Header returns the file header once it has been decoded.
func (d *ShapeDecoder) Header() (ShapefileHeader, bool) {
	if d.header == nil {
		return ShapefileHeader{}, false
	}
	return *d.header, true
}

// Count returns the number of records emitted.
func (d *ShapeDecoder) Count() int { return d.count }

// Pending returns the number of bytes held for an incomplete frame.
func (d *ShapeDecoder) Pending() int { return d.framer.pending() }

func (d *ShapeDecoder) complete(frame []byte) (int, error) {
	switch d.phase {
	case shpPhaseFileHeader:
		h, err := decodeShapefileHeader(frame)
		if err != nil {
			return 0, err
		}
		d.header = &h
		d.phase = shpPhaseRecordHeader
		return shpRecordHeaderSize, nil

	case shpPhaseRecordHeader:
		d.record = decodeRecordHeader(frame)
		if d.record.ContentLength < 4 {
			return 0, &ErrInvalidRecord{
				Record: d.record.RecordNumber,
				Reason: fmt.Sprintf("content length %d bytes cannot hold a shape type", d.record.ContentLength),
			}
		}
		d.phase = shpPhaseRecordBody
		return d.record.ContentLength, nil

	case shpPhaseRecordBody:
		feature, err := d.decodeRecord(frame)
		if err != nil {
			return 0, err
		}
		if d.withLocation {
			feature.Location = &ByteRange{Offset: d.framer.start, Length: int64(len(frame))}
		}
		d.count++
		d.phase = shpPhaseRecordHeader
		if err := d.handler(feature); err != nil {
			return 0, err
		}
		return shpRecordHeaderSize, nil
	}
	return 0, fmt.Errorf("shapefile: invalid decoder phase %d", d.phase)
}

// decodeShapefileHeader reads the main file header.
//
//	Byte 0   File Code    9994   Big
//	Byte 24  File Length  words  Big
//	Byte 28  Version      1000   Little
//	Byte 32  Shape Type          Little
//	Byte 36  Xmin Ymin Xmax Ymax Zmin Zmax Mmin Mmax  Double Little
func decodeShapefileHeader(b []byte) (ShapefileHeader, error) {
	if len(b) < shpHeaderSize {
		return ShapefileHeader{}, fmt.Errorf("shapefile: %w: %d bytes", ErrInvalidHeader, len(b))
	}
	le := binary.LittleEndian
	h := ShapefileHeader{
		FileCode:   int32(binary.BigEndian.Uint32(b[0:4])),
		FileLength: int64(binary.BigEndian.Uint32(b[24:28])) * 2,
		Version:    int32(le.Uint32(b[28:32])),
		ShapeType:  ShapeType(le.Uint32(b[32:36])),
		XMin:       float64At(b, 36),
		YMin:       float64At(b, 44),
		XMax:       float64At(b, 52),
		YMax:       float64At(b, 60),
		ZMin:       float64At(b, 68),
		ZMax:       float64At(b, 76),
		MMin:       float64At(b, 84),
		MMax:       float64At(b, 92),
	}
	if h.FileCode != shpFileCode {
		return h, fmt.Errorf("shapefile: %w: file code %d", ErrInvalidHeader, h.FileCode)
	}
	return h, nil
}

// decodeRecordHeader reads record number and content length, both big-endian.
func decodeRecordHeader(b []byte) RecordHeader {
	return RecordHeader{
		RecordNumber:  binary.BigEndian.Uint32(b[0:4]),
		ContentLength: int(binary.BigEndian.Uint32(b[4:8])) * 2,
	}
}

func (d *ShapeDecoder) decodeRecord(b []byte) (*Feature, error) {
	r := shapeRecord{num: d.record.RecordNumber, b: b}
	typ := ShapeType(binary.LittleEndian.Uint32(b[0:4]))

	var (
		g   orb.Geometry
		err error
	)
	switch typ {
	case ShapeNull:
	case ShapePoint:
		g, err = r.point()
	case ShapeMultiPoint:
		g, err = r.multiPoint()
	case ShapePolyLine:
		g, err = r.polyLine()
	case ShapePolygon:
		g, err = r.polygon()
	default:
		return nil, &ErrUnsupportedShapeType{Type: typ}
	}
	if err != nil {
		return nil, err
	}
	return NewFeature(g), nil
}

// shapeRecord is a record body with bounds-checked little-endian readers.
type shapeRecord struct {
	num uint32
	b   []byte
}

func (r shapeRecord) need(n int, what string) error {
	if n > len(r.b) || n < 0 {
		return &ErrInvalidRecord{
			Record: r.num,
			Reason: fmt.Sprintf("%s needs %d bytes, body has %d", what, n, len(r.b)),
		}
	}
	return nil
}

func (r shapeRecord) uint32At(off int) int {
	return int(binary.LittleEndian.Uint32(r.b[off : off+4]))
}

func (r shapeRecord) pointAt(off int) orb.Point {
	return orb.Point{float64At(r.b, off), float64At(r.b, off+8)}
}

// point: X @4, Y @12
func (r shapeRecord) point() (orb.Geometry, error) {
	if err := r.need(20, "point"); err != nil {
		return nil, err
	}
	return r.pointAt(4), nil
}

// multiPoint: Box @4, NumPoints @36, Points @40
func (r shapeRecord) multiPoint() (orb.Geometry, error) {
	if err := r.need(40, "multipoint header"); err != nil {
		return nil, err
	}
	count := r.uint32At(36)
	if err := r.need(40+16*count, "multipoint points"); err != nil {
		return nil, err
	}
	points := make(orb.MultiPoint, count)
	for i := range points {
		points[i] = r.pointAt(40 + 16*i)
	}
	return points, nil
}

// parts reads the shared PolyLine/Polygon layout: Box @4, NumParts @36,
// NumPoints @40, Parts @44, Points @44+4*NumParts. Each part runs from its
// start index to the next part's start, the last one to NumPoints.
func (r shapeRecord) parts() ([][]orb.Point, error) {
	if err := r.need(44, "part header"); err != nil {
		return nil, err
	}
	numParts := r.uint32At(36)
	numPoints := r.uint32At(40)
	pointsAt := 44 + 4*numParts
	if err := r.need(pointsAt+16*numPoints, "parts and points"); err != nil {
		return nil, err
	}

	points := make([]orb.Point, numPoints)
	for i := range points {
		points[i] = r.pointAt(pointsAt + 16*i)
	}

	parts := make([][]orb.Point, numParts)
	for i := range parts {
		start := r.uint32At(44 + 4*i)
		end := numPoints
		if i+1 < numParts {
			end = r.uint32At(44 + 4*(i+1))
		}
		if start > end || end > numPoints {
			return nil, &ErrInvalidRecord{
				Record: r.num,
				Reason: fmt.Sprintf("part %d spans points [%d, %d) of %d", i, start, end, numPoints),
			}
		}
		parts[i] = points[start:end:end]
	}
	return parts, nil
}

func (r shapeRecord) polyLine() (orb.Geometry, error) {
	parts, err := r.parts()
	if err != nil {
		return nil, err
	}
	lines := make(orb.MultiLineString, len(parts))
	for i, p := range parts {
		lines[i] = orb.LineString(p)
	}
	return lines, nil
}

func (r shapeRecord) polygon() (orb.Geometry, error) {
	parts, err := r.parts()
	if err != nil {
		return nil, err
	}
	rings := make([]orb.Ring, len(parts))
	for i, p := range parts {
		rings[i] = orb.Ring(p)
	}
	return AssembleRings(rings), nil
}

func float64At(b []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off : off+8]))
}
