package geostream

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

// pointShp builds a Point shapefile, one record per point.
func pointShp(points ...orb.Point) []byte {
	const recordSize = 8 + 20
	size := 100 + recordSize*len(points)

	h := make([]byte, 100)
	binary.BigEndian.PutUint32(h[0:4], 9994)
	binary.BigEndian.PutUint32(h[24:28], uint32(size/2))
	binary.LittleEndian.PutUint32(h[28:32], 1000)
	binary.LittleEndian.PutUint32(h[32:36], 1)

	out := bytes.NewBuffer(h)
	for i, p := range points {
		rec := make([]byte, recordSize)
		binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rec[4:8], 10)
		binary.LittleEndian.PutUint32(rec[8:12], 1)
		binary.LittleEndian.PutUint64(rec[12:20], math.Float64bits(p[0]))
		binary.LittleEndian.PutUint64(rec[20:28], math.Float64bits(p[1]))
		out.Write(rec)
	}
	return out.Bytes()
}

// nameDbf builds a table with a single 10-character "name" column.
func nameDbf(names ...string) []byte {
	const fieldLen = 10
	h := make([]byte, 32)
	h[0] = 0x03
	h[1], h[2], h[3] = 125, 1, 15
	binary.LittleEndian.PutUint32(h[4:8], uint32(len(names)))
	binary.LittleEndian.PutUint16(h[8:10], 32+32+1)
	binary.LittleEndian.PutUint16(h[10:12], 1+fieldLen)

	out := bytes.NewBuffer(h)
	field := make([]byte, 32)
	copy(field, "name")
	field[11] = 'C'
	field[16] = fieldLen
	out.Write(field)
	out.WriteByte(0x0D)
	for _, name := range names {
		out.WriteByte(' ')
		cell := bytes.Repeat([]byte{' '}, fieldLen)
		copy(cell, name)
		out.Write(cell)
	}
	out.WriteByte(0x1A)
	return out.Bytes()
}

var threePoints = []orb.Point{{1, 1}, {2, 2}, {3, 3}}

func writeFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// writeZip stores files in a new archive and returns its path.
func writeZip(t testing.TB, dir, name string, files map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entry, data := range files {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("zip create %s: %v", entry, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return writeFile(t, dir, name, buf.Bytes())
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func names(t *testing.T, features []*Feature) []string {
	t.Helper()
	out := make([]string, len(features))
	for i, f := range features {
		v, _ := f.Properties.Get("name")
		s, _ := v.(string)
		out[i] = s
	}
	return out
}
