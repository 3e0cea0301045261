package geostream

import (
	"context"
	"io"

	"github.com/beetlebugorg/geostream/internal/parser"
)

// Feature is one geometry plus attribute record.
type Feature = parser.Feature

// PropertyMap is an insertion-ordered attribute mapping.
type PropertyMap = parser.PropertyMap

// ByteRange locates the source bytes of a feature.
type ByteRange = parser.ByteRange

// DecodeGeoJSON streams the Feature objects found two containers deep in a
// GeoJSON document, in document order. Invalid JSON ends the stream with a
// *SyntaxError.
func DecodeGeoJSON(ctx context.Context, r io.Reader, opts DecodeOptions) *Stream[*Feature] {
	return newStream(ctx, opts.buffer(), func(ctx context.Context, emit func(*Feature) error) error {
		log := opts.logger().With().Str("format", "geojson").Logger()
		count := 0
		x := parser.NewGeoJSONExtractor(func(f *Feature) error {
			if opts.ValidateGeometry {
				if err := parser.ValidateFeature(f); err != nil {
					return err
				}
			}
			count++
			return emit(f)
		}, opts.WithLocation)

		if err := pump(ctx, r, x, opts.chunkSize()); err != nil {
			log.Debug().Err(err).Int("features", count).Int64("offset", x.Offset()).Msg("decode stopped")
			return err
		}
		if x.Depth() > 0 {
			log.Debug().Int("depth", x.Depth()).Msg("input ended inside a value")
		}
		log.Debug().Int("features", count).Int64("bytes", x.Offset()).Msg("decode finished")
		return nil
	})
}

// DecodeShapes streams one Feature per .shp record. Features carry no
// properties; see Join.
func DecodeShapes(ctx context.Context, r io.Reader, opts DecodeOptions) *Stream[*Feature] {
	return newStream(ctx, opts.buffer(), func(ctx context.Context, emit func(*Feature) error) error {
		log := opts.logger().With().Str("format", "shp").Logger()
		headerLogged := false
		var d *parser.ShapeDecoder
		d = parser.NewShapeDecoder(func(f *Feature) error {
			if !headerLogged {
				if h, ok := d.Header(); ok {
					log.Debug().
						Stringer("shape_type", h.ShapeType).
						Int64("file_length", h.FileLength).
						Floats64("bbox", []float64{h.XMin, h.YMin, h.XMax, h.YMax}).
						Msg("file header")
				}
				headerLogged = true
			}
			if opts.ValidateGeometry {
				if err := parser.ValidateFeature(f); err != nil {
					return err
				}
			}
			return emit(f)
		}, opts.WithLocation)

		if err := pump(ctx, r, d, opts.chunkSize()); err != nil {
			log.Debug().Err(err).Int("records", d.Count()).Msg("decode stopped")
			return err
		}
		if d.Pending() > 0 {
			log.Debug().Int("bytes", d.Pending()).Msg("dropped incomplete record")
		}
		log.Debug().Int("records", d.Count()).Msg("decode finished")
		return nil
	})
}

// DecodeAttributes streams one PropertyMap per .dbf record.
func DecodeAttributes(ctx context.Context, r io.Reader, opts DecodeOptions) *Stream[*PropertyMap] {
	return newStream(ctx, opts.buffer(), func(ctx context.Context, emit func(*PropertyMap) error) error {
		log := opts.logger().With().Str("format", "dbf").Logger()
		headerLogged := false
		var d *parser.AttributeDecoder
		d = parser.NewAttributeDecoder(func(p *PropertyMap) error {
			if !headerLogged {
				if h, ok := d.Header(); ok {
					log.Debug().
						Uint32("records", h.RecordCount).
						Int("fields", h.FieldCount).
						Uint16("record_size", h.RecordSize).
						Msg("table header")
				}
				headerLogged = true
			}
			return emit(p)
		})

		if err := pump(ctx, r, d, opts.chunkSize()); err != nil {
			log.Debug().Err(err).Int("records", d.Count()).Msg("decode stopped")
			return err
		}
		log.Debug().Int("records", d.Count()).Msg("decode finished")
		return nil
	})
}
