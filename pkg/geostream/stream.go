package geostream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Stream is a FIFO of decoded items fed by a producer goroutine.
//
// Items arrive in source order. The channel returned by C is closed when the
// producer stops; Err then reports why, nil meaning the input ended normally.
// Close cancels the producer and must be called once the consumer is done.
type Stream[T any] struct {
	ch     chan T
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
}

// producer runs until its input is exhausted, passing each item to emit.
// emit fails once the stream is cancelled.
type producer[T any] func(ctx context.Context, emit func(T) error) error

func newStream[T any](ctx context.Context, buffer int, run producer[T], cleanup ...func()) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		ch:     make(chan T, buffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		err := run(ctx, func(v T) error {
			select {
			case s.ch <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		for _, fn := range cleanup {
			fn()
		}

		s.mu.Lock()
		if err != nil && !(s.closed && errors.Is(err, context.Canceled)) {
			s.err = err
		}
		s.mu.Unlock()

		close(s.ch)
		close(s.done)
		cancel()
	}()
	return s
}

// C returns the channel items are delivered on.
func (s *Stream[T]) C() <-chan T { return s.ch }

// Next blocks for the next item. It returns false when the stream has ended
// or ctx is done.
func (s *Stream[T]) Next(ctx context.Context) (T, bool) {
	var zero T
	select {
	case v, ok := <-s.ch:
		return v, ok
	case <-ctx.Done():
		return zero, false
	}
}

// Err returns the error that ended the stream, if any. It is only final once
// C has been closed.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer and waits for it to return. Items not yet
// consumed are dropped. Closing an already finished stream is a no-op.
func (s *Stream[T]) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
	return nil
}

// Collect drains s into a slice and closes it.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	defer s.Close()

	var items []T
	for {
		v, ok := s.Next(ctx)
		if !ok {
			break
		}
		items = append(items, v)
	}
	if err := ctx.Err(); err != nil {
		return items, err
	}
	return items, s.Err()
}

// pump feeds r to w in chunks of size n until r is exhausted.
func pump(ctx context.Context, r io.Reader, w io.Writer, n int) error {
	buf := make([]byte, n)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		k, err := r.Read(buf)
		if k > 0 {
			if _, werr := w.Write(buf[:k]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
