package parser

// framer cuts a byte stream into frames whose sizes are only known one
// frame ahead: each completed frame tells the decoder how many bytes the
// next one needs.
type framer struct {
	buf   []byte
	need  int
	pos   int64 // bytes consumed
	start int64 // offset of the frame being filled
}

// feed consumes p, calling complete for every frame it fills. complete
// returns the size of the next frame. A zero-size frame completes without
// consuming input. Bytes of a frame still incomplete when p runs out stay
// buffered for the next call.
func (f *framer) feed(p []byte, complete func(frame []byte) (int, error)) (int, error) {
	n := 0
	for {
		if f.need > 0 {
			if len(p) == 0 {
				return n, nil
			}
			take := f.need - len(f.buf)
			if take > len(p) {
				take = len(p)
			}
			f.buf = append(f.buf, p[:take]...)
			p = p[take:]
			n += take
			f.pos += int64(take)
			if len(f.buf) < f.need {
				return n, nil
			}
		}

		next, err := complete(f.buf)
		if err != nil {
			return n, err
		}
		f.buf = f.buf[:0]
		f.need = next
		f.start = f.pos
	}
}

// pending reports the number of bytes held for an incomplete frame.
func (f *framer) pending() int { return len(f.buf) }
