package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureType is the GeoJSON type member written on every decoded feature.
const FeatureType = "Feature"

// dateLayout is the JSON rendering of DBF date values.
const dateLayout = "2006-01-02"

// ByteRange locates the bytes of the input that produced a feature.
type ByteRange struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// Feature is one geometry plus attribute record.
//
// Geometry is nil for a null shape. Properties is nil when no attribute
// record has been attached (a bare .shp record) or the source had
// "properties": null. Location is only set when location tracking was
// requested on the decoder.
//
// Features read from GeoJSON keep what orb cannot hold: BBox, any foreign
// members in ExtraMembers, and the source geometry text in RawGeometry when
// it has positions other than x,y pairs. Such a geometry decodes with its
// first two ordinates, or to nil when a position has fewer than two.
type Feature struct {
	Type         string
	ID           interface{}
	BBox         geojson.BBox
	Properties   *PropertyMap
	Geometry     orb.Geometry
	RawGeometry  json.RawMessage
	ExtraMembers geojson.Properties
	Location     *ByteRange
}

// NewFeature returns a Feature of the given geometry without properties.
func NewFeature(g orb.Geometry) *Feature {
	return &Feature{Type: FeatureType, Geometry: g}
}

// SetGeometry replaces the geometry and drops any source geometry text.
func (f *Feature) SetGeometry(g orb.Geometry) {
	f.Geometry = g
	f.RawGeometry = nil
}

// featureMembers are written from the Feature fields, never from ExtraMembers.
var featureMembers = map[string]bool{
	"type":       true,
	"id":         true,
	"bbox":       true,
	"properties": true,
	"geometry":   true,
}

// MarshalJSON writes the feature as a GeoJSON object.
func (f Feature) MarshalJSON() ([]byte, error) {
	typ := f.Type
	if typ == "" {
		typ = FeatureType
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "type", typ); err != nil {
		return nil, err
	}
	if f.ID != nil {
		if err := writeMember(&buf, "id", f.ID); err != nil {
			return nil, err
		}
	}
	if f.BBox != nil {
		if err := writeMember(&buf, "bbox", []float64(f.BBox)); err != nil {
			return nil, err
		}
	}
	if err := writeMember(&buf, "properties", f.Properties); err != nil {
		return nil, err
	}

	buf.WriteString(`,"geometry":`)
	switch {
	case f.RawGeometry != nil:
		if err := json.Compact(&buf, f.RawGeometry); err != nil {
			return nil, fmt.Errorf("geometry: %w", err)
		}
	case f.Geometry != nil:
		g, err := json.Marshal(geojson.NewGeometry(f.Geometry))
		if err != nil {
			return nil, fmt.Errorf("geometry: %w", err)
		}
		buf.Write(g)
	default:
		buf.WriteString("null")
	}

	names := make([]string, 0, len(f.ExtraMembers))
	for name := range f.ExtraMembers {
		if featureMembers[name] || (name == "location" && f.Location != nil) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeMember(&buf, name, f.ExtraMembers[name]); err != nil {
			return nil, err
		}
	}

	if f.Location != nil {
		if err := writeMember(&buf, "location", f.Location); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	key, _ := json.Marshal(name)
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(data)
	return nil
}

// UnmarshalJSON reads a GeoJSON feature object.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	*f = Feature{}
	for name, raw := range members {
		var err error
		switch name {
		case "type":
			err = json.Unmarshal(raw, &f.Type)
		case "id":
			err = json.Unmarshal(raw, &f.ID)
		case "properties":
			err = json.Unmarshal(raw, &f.Properties)
		case "geometry":
			err = f.unmarshalGeometry(raw)
		case "bbox":
			if json.Unmarshal(raw, &f.BBox) == nil {
				break
			}
			f.BBox = nil
			err = f.setExtra(name, raw)
		default:
			err = f.setExtra(name, raw)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (f *Feature) setExtra(name string, raw json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if f.ExtraMembers == nil {
		f.ExtraMembers = make(geojson.Properties)
	}
	f.ExtraMembers[name] = v
	return nil
}

func (f *Feature) unmarshalGeometry(raw json.RawMessage) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	exact, short := xyOnly(generic)
	if !exact {
		f.RawGeometry = append(json.RawMessage(nil), raw...)
	}
	if !short {
		f.Geometry = g.Geometry()
	}
	return nil
}

// xyOnly walks a decoded geometry object. exact reports whether orb renders
// it back unchanged: only type plus coordinates or geometries, every position
// an x,y pair. short reports a position with fewer than two ordinates, which
// orb would fill with zeros.
func xyOnly(v interface{}) (exact, short bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return false, false
	}
	exact = true
	for name := range obj {
		if name != "type" && name != "coordinates" && name != "geometries" {
			exact = false
		}
	}

	if children, ok := obj["geometries"].([]interface{}); ok {
		for _, child := range children {
			e, s := xyOnly(child)
			exact = exact && e
			short = short || s
		}
		return exact, short
	}

	coords, ok := obj["coordinates"].([]interface{})
	if !ok {
		return false, true
	}
	if obj["type"] == "Point" {
		return exact && len(coords) == 2, len(coords) < 2
	}
	e, s := positionsXY(coords)
	return exact && e, s
}

func positionsXY(arr []interface{}) (exact, short bool) {
	if len(arr) == 0 {
		return true, false
	}
	if _, ok := arr[0].(float64); ok {
		return len(arr) == 2, len(arr) < 2
	}
	exact = true
	for _, e := range arr {
		inner, ok := e.([]interface{})
		if !ok {
			return false, short
		}
		ex, sh := positionsXY(inner)
		exact = exact && ex
		short = short || sh
	}
	return exact, short
}

// PropertyMap is an insertion-ordered attribute mapping.
//
// Values are one of string, float64, bool, time.Time, nil, or, for
// properties read from GeoJSON, any nested value encoding/json produces.
type PropertyMap struct {
	keys   []string
	values map[string]interface{}
}

// NewPropertyMap returns an empty map sized for n fields.
func NewPropertyMap(n int) *PropertyMap {
	return &PropertyMap{
		keys:   make([]string, 0, n),
		values: make(map[string]interface{}, n),
	}
}

// Set stores v under name. A new name is appended to the key order; an
// existing name keeps its position.
func (p *PropertyMap) Set(name string, v interface{}) {
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = v
}

// Get returns the value stored under name.
func (p *PropertyMap) Get(name string) (interface{}, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Keys returns the field names in insertion order.
func (p *PropertyMap) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Len returns the number of fields.
func (p *PropertyMap) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Range calls fn for every field in insertion order until fn returns false.
func (p *PropertyMap) Range(fn func(name string, v interface{}) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy, as used by orb's geojson.Properties.
func (p *PropertyMap) Map() map[string]interface{} {
	if p == nil {
		return nil
	}
	m := make(map[string]interface{}, len(p.keys))
	for _, k := range p.keys {
		m[k] = jsonValue(p.values[k])
	}
	return m
}

// MarshalJSON writes the fields in insertion order.
func (p PropertyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(jsonValue(p.values[k]))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its member order.
func (p *PropertyMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	*p = PropertyMap{values: make(map[string]interface{})}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("properties: expected member name, got %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		p.Set(name, v)
	}
	_, err = dec.Token()
	return err
}

// jsonValue maps decoded attribute values onto what encoding/json accepts.
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case time.Time:
		return x.Format(dateLayout)
	}
	return v
}
