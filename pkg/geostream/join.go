package geostream

import (
	"context"
)

// Join pairs shapes and attribute records in lockstep: the n-th feature gets
// the n-th PropertyMap as its properties. Both sides are read for every
// output item, and the result ends as soon as either side ends, so its length
// is the shorter of the two. Both sources are closed when the join ends.
//
// The join ends with the error of the side that ran out, the shape side
// taking precedence when both did.
func Join(ctx context.Context, shapes *Stream[*Feature], attrs *Stream[*PropertyMap]) *Stream[*Feature] {
	return newStream(ctx, 0, func(ctx context.Context, emit func(*Feature) error) error {
		defer shapes.Close()
		defer attrs.Close()

		for {
			f, okShape := shapes.Next(ctx)
			p, okAttr := attrs.Next(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}
			if !okShape {
				if err := shapes.Err(); err != nil || okAttr {
					return err
				}
			}
			if !okAttr {
				return attrs.Err()
			}

			f.Properties = p
			if err := emit(f); err != nil {
				return err
			}
		}
	})
}
