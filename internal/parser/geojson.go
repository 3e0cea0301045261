package parser

import (
	"encoding/json"
	"fmt"
)

// FeatureHandler receives every Feature a decoder completes. Returning an
// error aborts the decoder with that error.
type FeatureHandler func(*Feature) error

// NopFeatureHandler discards features. Decoders built with a nil handler use it.
func NopFeatureHandler(*Feature) error { return nil }

// extractorState is the lexical context of the GeoJSON byte automaton.
type extractorState uint8

const (
	stateScanning extractorState = iota
	stateObject
	stateField
	stateAfterColon
	stateArray
	stateString
	stateValue
)

func (s extractorState) String() string {
	switch s {
	case stateScanning:
		return "Scanning"
	case stateObject:
		return "InObject"
	case stateField:
		return "InField"
	case stateAfterColon:
		return "AfterColon"
	case stateArray:
		return "InArray"
	case stateString:
		return "InString"
	case stateValue:
		return "InValue"
	default:
		return "Unknown"
	}
}

// frame is pushed when a container or token opens.
type frame struct {
	state extractorState
	pos   int64
}

// Byte classes. Control bytes collapse onto space, every byte >= 0x80 onto high.
const (
	classSpace byte = ' '
	classHigh  byte = 0x80
)

func classify(c byte) byte {
	if c < classSpace {
		return classSpace
	}
	if c >= classHigh {
		return classHigh
	}
	return c
}

// emitDepth is the number of frames still open when a qualifying object
// closes: the document root and the array holding the features.
const emitDepth = 2

// GeoJSONExtractor finds the objects sitting one array level below the
// document root (the members of a FeatureCollection's "features" array) and
// decodes each one into a Feature as soon as its closing brace arrives.
//
// It is a byte scanner, not a JSON validator: literals are not checked and
// multi-byte UTF-8 sequences pass through strings untouched. Input may be
// split at any byte boundary across Write calls.
type GeoJSONExtractor struct {
	handler      FeatureHandler
	withLocation bool

	state   extractorState
	stack   []frame
	pos     int64
	line    int
	col     int
	escaped bool

	// buf holds the raw text of the object being tracked; tracked reports
	// whether the byte under the automaton was appended to it.
	buf     []byte
	tracked bool

	err error
}

// NewGeoJSONExtractor returns an extractor calling handler for each feature.
// With withLocation set, features carry the byte range of their source text.
func NewGeoJSONExtractor(handler FeatureHandler, withLocation bool) *GeoJSONExtractor {
	if handler == nil {
		handler = NopFeatureHandler
	}
	return &GeoJSONExtractor{
		handler:      handler,
		withLocation: withLocation,
		state:        stateScanning,
		line:         1,
	}
}

// Write feeds p to the automaton. It stops at the first rejected byte and
// returns the number of bytes consumed before it; once failed, the
// extractor keeps returning the same error.
func (x *GeoJSONExtractor) Write(p []byte) (int, error) {
	if x.err != nil {
		return 0, x.err
	}
	for i, c := range p {
		if err := x.put(c); err != nil {
			x.err = err
			return i, err
		}
	}
	return len(p), nil
}

// WriteByte feeds a single byte.
func (x *GeoJSONExtractor) WriteByte(c byte) error {
	_, err := x.Write([]byte{c})
	return err
}

// Line returns the 1-based line of the next byte.
func (x *GeoJSONExtractor) Line() int { return x.line }

// Column returns the 1-based column of the last byte consumed.
func (x *GeoJSONExtractor) Column() int { return x.col }

// Offset returns the number of bytes consumed.
func (x *GeoJSONExtractor) Offset() int64 { return x.pos }

// Depth returns the number of open containers and tokens.
func (x *GeoJSONExtractor) Depth() int { return len(x.stack) }

// Err returns the error that stopped the extractor, if any.
func (x *GeoJSONExtractor) Err() error { return x.err }

func (x *GeoJSONExtractor) put(c byte) error {
	if c == '\n' {
		x.line++
		x.col = 0
	} else {
		x.col++
	}
	x.track(c)

	var err error
	switch {
	case x.escaped:
		x.escaped = false
	case c == '\\':
		x.escaped = true
	default:
		err = x.step(c)
	}
	x.pos++
	return err
}

// track appends c to the object buffer while inside a tracked array. A
// separator comma is skipped while the buffer is still empty.
func (x *GeoJSONExtractor) track(c byte) {
	if len(x.stack) >= emitDepth && !(len(x.buf) == 0 && c == ',') {
		x.buf = append(x.buf, c)
		x.tracked = true
		return
	}
	x.buf = x.buf[:0]
	x.tracked = false
}

func (x *GeoJSONExtractor) step(c byte) error {
	cls := classify(c)
	switch x.state {
	case stateScanning:
		switch cls {
		case classSpace:
		case '{':
			x.push(stateObject)
		case '[':
			x.push(stateArray)
		case '"':
			x.push(stateString)
		case '}', ']', ':', ',', classHigh:
			return x.unexpected(c)
		default:
			x.push(stateValue)
		}

	case stateObject:
		switch cls {
		case classSpace, ',':
		case '}':
			return x.pop()
		case '"':
			x.push(stateField)
		default:
			return x.unexpected(c)
		}

	case stateField:
		if cls == '"' {
			if err := x.pop(); err != nil {
				return err
			}
			x.state = stateAfterColon
		}

	case stateAfterColon:
		switch cls {
		case classSpace:
		case ':':
			x.state = stateScanning
		default:
			return x.unexpected(c)
		}

	case stateArray:
		switch cls {
		case classSpace, ',':
		case ']':
			return x.pop()
		case '{':
			x.push(stateObject)
		case '[':
			x.push(stateArray)
		case '"':
			x.push(stateString)
		case '}', ':', classHigh:
			return x.unexpected(c)
		default:
			x.push(stateValue)
		}

	case stateString:
		if cls == '"' {
			return x.pop()
		}

	case stateValue:
		switch cls {
		case '{', '}', '[', ']', ':', ',', '"', classSpace, classHigh:
			return x.endValue(c)
		}
	}
	return nil
}

// endValue closes a bare literal on its terminator and replays the
// terminator against the parent state at the same position.
func (x *GeoJSONExtractor) endValue(c byte) error {
	if x.tracked {
		x.buf = x.buf[:len(x.buf)-1]
	}
	x.pos--
	err := x.pop()
	x.pos++
	if err != nil {
		return err
	}
	x.track(c)
	return x.step(c)
}

func (x *GeoJSONExtractor) push(s extractorState) {
	if s == stateObject && len(x.stack) == emitDepth {
		// drop anything a sibling non-object value left in the buffer
		x.buf = append(x.buf[:0], '{')
	}
	x.state = s
	x.stack = append(x.stack, frame{state: s, pos: x.pos})
}

func (x *GeoJSONExtractor) pop() error {
	n := len(x.stack)
	if n == 0 {
		return ErrStackUnderflow
	}
	top := x.stack[n-1]
	x.stack = x.stack[:n-1]
	if n > 1 {
		x.state = x.stack[n-2].state
	} else {
		x.state = stateScanning
	}

	if top.state == stateObject && len(x.stack) == emitDepth {
		return x.emit(top.pos, x.pos)
	}
	return nil
}

func (x *GeoJSONExtractor) emit(start, end int64) error {
	feature := &Feature{}
	if err := json.Unmarshal(x.buf, feature); err != nil {
		return fmt.Errorf("geojson: decode object at offset %d: %w", start, err)
	}
	x.buf = x.buf[:0]
	if x.withLocation {
		feature.Location = &ByteRange{Offset: start, Length: end - start + 1}
	}
	return x.handler(feature)
}

func (x *GeoJSONExtractor) unexpected(c byte) error {
	return &SyntaxError{Char: c, Line: x.line, Column: x.col, Offset: x.pos}
}
