package parser

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	dbfHeaderSize     = 32
	dbfFieldSize      = 32
	dbfTerminatorSize = 1
	dbfFieldNameSize  = 11
)

// headerRemainder is the number of header bytes after the descriptor
// table: the 0x0D terminator plus any padding a writer reserved.
func (h DbfHeader) headerRemainder() int {
	return int(h.HeaderSize) - dbfHeaderSize - h.FieldCount*dbfFieldSize
}

// FieldType is the one-letter dBASE field type code.
type FieldType byte

// Field types read by AttributeDecoder.
const (
	FieldCharacter FieldType = 'C'
	FieldDate      FieldType = 'D'
	FieldNumeric   FieldType = 'N'
	FieldLogical   FieldType = 'L'
	FieldMemo      FieldType = 'M'
	FieldFloat     FieldType = 'F'
)

func (t FieldType) String() string { return string(rune(t)) }

// DbfHeader is the fixed 32-byte .dbf table header.
type DbfHeader struct {
	Version     byte
	LastUpdate  time.Time
	RecordCount uint32
	HeaderSize  uint16
	RecordSize  uint16
	FieldCount  int
}

// FieldDescriptor describes one column. Offset is the position of the
// field inside a record; offset 0 holds the deletion flag.
type FieldDescriptor struct {
	Name         string
	Type         FieldType
	Offset       int
	Length       int
	DecimalCount int
}

// PropertiesHandler receives every attribute record an AttributeDecoder
// completes. Returning an error aborts the decoder with that error.
type PropertiesHandler func(*PropertyMap) error

// NopPropertiesHandler discards records. Decoders built with a nil handler use it.
func NopPropertiesHandler(*PropertyMap) error { return nil }

type dbfPhase uint8

const (
	dbfPhaseHeader dbfPhase = iota
	dbfPhaseFields
	dbfPhaseTerminator
	dbfPhaseRecord
)

// AttributeDecoder turns a .dbf byte stream into one PropertyMap per
// record. Records repeat until the input ends; the header record count is
// informational only and a trailing partial record (such as the 0x1A end
// marker) is ignored.
type AttributeDecoder struct {
	handler PropertiesHandler

	framer framer
	phase  dbfPhase
	header *DbfHeader
	fields []FieldDescriptor
	count  int

	err error
}

// NewAttributeDecoder returns a decoder calling handler for each record.
func NewAttributeDecoder(handler PropertiesHandler) *AttributeDecoder {
	if handler == nil {
		handler = NopPropertiesHandler
	}
	return &AttributeDecoder{
		handler: handler,
		framer:  framer{need: dbfHeaderSize},
		phase:   dbfPhaseHeader,
	}
}

// Write feeds p to the decoder.
func (d *AttributeDecoder) Write(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err := d.framer.feed(p, d.complete)
	if err != nil {
		d.err = err
	}
	return n, err
}

// Header returns the table header once it has been decoded.
func (d *AttributeDecoder) Header() (DbfHeader, bool) {
	if d.header == nil {
		return DbfHeader{}, false
	}
	return *d.header, true
}

// Fields returns the field descriptor table once it has been decoded.
func (d *AttributeDecoder) Fields() []FieldDescriptor {
	fields := make([]FieldDescriptor, len(d.fields))
	copy(fields, d.fields)
	return fields
}

// Count returns the number of records emitted.
func (d *AttributeDecoder) Count() int { return d.count }

// Pending returns the number of bytes held for an incomplete frame.
func (d *AttributeDecoder) Pending() int { return d.framer.pending() }

func (d *AttributeDecoder) complete(frame []byte) (int, error) {
	switch d.phase {
	case dbfPhaseHeader:
		h, err := decodeDbfHeader(frame)
		if err != nil {
			return 0, err
		}
		d.header = &h
		d.phase = dbfPhaseFields
		return h.FieldCount * dbfFieldSize, nil

	case dbfPhaseFields:
		d.fields = decodeFieldDescriptors(frame)
		d.phase = dbfPhaseTerminator
		return d.header.headerRemainder(), nil

	case dbfPhaseTerminator:
		d.phase = dbfPhaseRecord
		return int(d.header.RecordSize), nil

	case dbfPhaseRecord:
		props := d.decodeRecord(frame)
		d.count++
		if err := d.handler(props); err != nil {
			return 0, err
		}
		return int(d.header.RecordSize), nil
	}
	return 0, fmt.Errorf("dbf: invalid decoder phase %d", d.phase)
}

// decodeDbfHeader reads the table header.
//
//	0      version
//	1-3    last update, YY MM DD with YY counted from 1900
//	4-7    record count   uint32 LE
//	8-9    header size    uint16 LE
//	10-11  record size    uint16 LE
func decodeDbfHeader(b []byte) (DbfHeader, error) {
	le := binary.LittleEndian
	h := DbfHeader{
		Version:     b[0],
		LastUpdate:  time.Date(1900+int(b[1]), time.Month(b[2]), int(b[3]), 0, 0, 0, 0, time.UTC),
		RecordCount: le.Uint32(b[4:8]),
		HeaderSize:  le.Uint16(b[8:10]),
		RecordSize:  le.Uint16(b[10:12]),
	}
	if h.HeaderSize < dbfHeaderSize+dbfTerminatorSize {
		return h, fmt.Errorf("dbf: %w: header size %d", ErrInvalidHeader, h.HeaderSize)
	}
	if h.RecordSize == 0 {
		return h, fmt.Errorf("dbf: %w: record size 0", ErrInvalidHeader)
	}
	h.FieldCount = (int(h.HeaderSize) - dbfHeaderSize - dbfTerminatorSize) / dbfFieldSize
	return h, nil
}

// decodeFieldDescriptors reads the descriptor table.
//
//	0-10  name, zero filled
//	11    type
//	16    length
//	17    decimal count
func decodeFieldDescriptors(b []byte) []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(b)/dbfFieldSize)
	offset := 1
	for at := 0; at+dbfFieldSize <= len(b); at += dbfFieldSize {
		f := FieldDescriptor{
			Name:         fieldName(b[at : at+dbfFieldNameSize]),
			Type:         FieldType(b[at+11]),
			Offset:       offset,
			Length:       int(b[at+16]),
			DecimalCount: int(b[at+17]),
		}
		fields = append(fields, f)
		offset += f.Length
	}
	return fields
}

// fieldName drops the zero padding and any other control characters.
func fieldName(b []byte) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, string(b))
}

func (d *AttributeDecoder) decodeRecord(b []byte) *PropertyMap {
	props := NewPropertyMap(len(d.fields))
	for _, f := range d.fields {
		end := f.Offset + f.Length
		if end > len(b) {
			end = len(b)
		}
		if f.Offset >= end {
			props.Set(f.Name, nil)
			continue
		}
		props.Set(f.Name, decodeValue(f.Type, b[f.Offset:end]))
	}
	return props
}

func decodeValue(t FieldType, raw []byte) interface{} {
	switch t {
	case FieldCharacter:
		return strings.TrimRightFunc(string(raw), unicode.IsSpace)
	case FieldDate:
		return decodeDate(raw)
	case FieldNumeric, FieldFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return math.NaN()
		}
		return v
	case FieldLogical:
		switch raw[0] {
		case '?':
			return nil
		case 'Y', 'y', 'T', 't':
			return true
		default:
			return false
		}
	case FieldMemo:
		return string(raw)
	default:
		return strings.TrimRightFunc(string(raw), unicode.IsSpace)
	}
}

// decodeDate reads YYYYMMDD. Blank or malformed dates decode to nil.
func decodeDate(raw []byte) interface{} {
	if len(raw) < 8 {
		return nil
	}
	t, err := time.Parse("20060102", string(raw[:8]))
	if err != nil {
		return nil
	}
	return t
}
