package parser

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// shpHeader builds a 100-byte main file header.
func shpHeader(typ ShapeType, fileBytes int) []byte {
	h := make([]byte, shpHeaderSize)
	binary.BigEndian.PutUint32(h[0:4], shpFileCode)
	binary.BigEndian.PutUint32(h[24:28], uint32(fileBytes/2))
	binary.LittleEndian.PutUint32(h[28:32], 1000)
	binary.LittleEndian.PutUint32(h[32:36], uint32(typ))
	for i, v := range []float64{1, 1, 3, 3, 0, 0, 0, 0} {
		binary.LittleEndian.PutUint64(h[36+8*i:], math.Float64bits(v))
	}
	return h
}

// buildShp assembles a .shp file from record bodies.
func buildShp(typ ShapeType, bodies ...[]byte) []byte {
	size := shpHeaderSize
	for _, b := range bodies {
		size += shpRecordHeaderSize + len(b)
	}
	out := bytes.NewBuffer(shpHeader(typ, size))
	for i, b := range bodies {
		rh := make([]byte, shpRecordHeaderSize)
		binary.BigEndian.PutUint32(rh[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rh[4:8], uint32(len(b)/2))
		out.Write(rh)
		out.Write(b)
	}
	return out.Bytes()
}

func putFloat(b []byte, off int, v float64) {
	binary.LittleEndian.PutUint64(b[off:], math.Float64bits(v))
}

func nullBody() []byte {
	return make([]byte, 4)
}

func pointBody(x, y float64) []byte {
	b := make([]byte, 20)
	binary.LittleEndian.PutUint32(b[0:4], uint32(ShapePoint))
	putFloat(b, 4, x)
	putFloat(b, 12, y)
	return b
}

func multiPointBody(points ...orb.Point) []byte {
	b := make([]byte, 40+16*len(points))
	binary.LittleEndian.PutUint32(b[0:4], uint32(ShapeMultiPoint))
	binary.LittleEndian.PutUint32(b[36:40], uint32(len(points)))
	for i, p := range points {
		putFloat(b, 40+16*i, p[0])
		putFloat(b, 48+16*i, p[1])
	}
	return b
}

// partsBody builds the PolyLine/Polygon layout.
func partsBody(typ ShapeType, parts ...[]orb.Point) []byte {
	numPoints := 0
	for _, p := range parts {
		numPoints += len(p)
	}
	pointsAt := 44 + 4*len(parts)
	b := make([]byte, pointsAt+16*numPoints)
	binary.LittleEndian.PutUint32(b[0:4], uint32(typ))
	binary.LittleEndian.PutUint32(b[36:40], uint32(len(parts)))
	binary.LittleEndian.PutUint32(b[40:44], uint32(numPoints))
	idx := 0
	for i, part := range parts {
		binary.LittleEndian.PutUint32(b[44+4*i:], uint32(idx))
		for _, p := range part {
			putFloat(b, pointsAt+16*idx, p[0])
			putFloat(b, pointsAt+16*idx+8, p[1])
			idx++
		}
	}
	return b
}

type dbfField struct {
	name   string
	typ    FieldType
	length int
}

// buildDbf assembles a .dbf file; values are left-justified and space padded.
func buildDbf(fields []dbfField, records ...[]string) []byte {
	recordSize := 1
	for _, f := range fields {
		recordSize += f.length
	}
	headerSize := dbfHeaderSize + dbfFieldSize*len(fields) + dbfTerminatorSize

	h := make([]byte, dbfHeaderSize)
	h[0] = 0x03
	h[1], h[2], h[3] = 125, 1, 15
	binary.LittleEndian.PutUint32(h[4:8], uint32(len(records)))
	binary.LittleEndian.PutUint16(h[8:10], uint16(headerSize))
	binary.LittleEndian.PutUint16(h[10:12], uint16(recordSize))

	out := bytes.NewBuffer(h)
	for _, f := range fields {
		d := make([]byte, dbfFieldSize)
		copy(d[0:11], f.name)
		d[11] = byte(f.typ)
		d[16] = byte(f.length)
		out.Write(d)
	}
	out.WriteByte(0x0D)

	for _, rec := range records {
		out.WriteByte(' ')
		for i, f := range fields {
			v := []byte(rec[i])
			cell := bytes.Repeat([]byte{' '}, f.length)
			copy(cell, v)
			out.Write(cell)
		}
	}
	out.WriteByte(0x1A)
	return out.Bytes()
}

// writeChunked feeds data to w in pieces of size n.
func writeChunked(t *testing.T, w interface{ Write([]byte) (int, error) }, data []byte, n int) {
	t.Helper()
	for len(data) > 0 {
		k := n
		if k > len(data) {
			k = len(data)
		}
		if _, err := w.Write(data[:k]); err != nil {
			t.Fatalf("write: %v", err)
		}
		data = data[k:]
	}
}

// jsonOf renders v for comparisons that should ignore slice capacity.
func jsonOf(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
