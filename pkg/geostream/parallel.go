package geostream

import (
	"context"
	"runtime"
	"sync"
)

// CollectionSet is the result of loading several files.
type CollectionSet struct {
	Collections []*Collection
}

// FeatureCount returns the number of features across all collections.
func (s *CollectionSet) FeatureCount() int {
	n := 0
	for _, c := range s.Collections {
		n += c.FeatureCount()
	}
	return n
}

// Bounds returns the box covering every collection that has one.
func (s *CollectionSet) Bounds() (Bounds, bool) {
	var (
		b     Bounds
		found bool
	)
	for _, c := range s.Collections {
		if c.index == nil || c.index.rtree.Size() == 0 {
			continue
		}
		if !found {
			b, found = c.Bounds(), true
			continue
		}
		b = b.Extend(c.Bounds())
	}
	return b, found
}

// LoadFilesParallel loads files concurrently with a worker pool.
//
// Collections are returned in the order of paths, failed files left out.
// With SkipErrors, every failure is collected and loading continues;
// otherwise the first failure cancels the remaining work and is returned
// alone.
//
// Example:
//
//	set, errs := geostream.LoadFilesParallel(ctx, paths, geostream.LoadOptions{
//	    Workers:    8,
//	    SkipErrors: true,
//	    Progress: func(loaded, total int) {
//	        fmt.Printf("\rLoading: %d/%d", loaded, total)
//	    },
//	})
func LoadFilesParallel(ctx context.Context, paths []string, opts LoadOptions) (*CollectionSet, []error) {
	if len(paths) == 0 {
		return &CollectionSet{Collections: []*Collection{}}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type loadResult struct {
		index      int
		collection *Collection
		err        error
	}

	jobs := make(chan int, len(paths))
	results := make(chan loadResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if err := ctx.Err(); err != nil {
					results <- loadResult{index: index, err: err}
					continue
				}
				coll, err := Load(ctx, paths[index], opts.Decode)
				results <- loadResult{index: index, collection: coll, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	log := opts.Decode.logger()
	loaded := make(map[int]*Collection, len(paths))
	var (
		errs     []error
		firstErr error
		done     int
	)
	for result := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(paths))
		}

		if result.err != nil {
			if firstErr != nil {
				continue
			}
			err := result.err
			log.Warn().Err(err).Str("path", paths[result.index]).Msg("load failed")
			if opts.SkipErrors {
				errs = append(errs, err)
				continue
			}
			firstErr = err
			cancel()
			continue
		}
		loaded[result.index] = result.collection
	}

	if firstErr != nil {
		return nil, []error{firstErr}
	}

	collections := make([]*Collection, 0, len(loaded))
	for i := range paths {
		if c, ok := loaded[i]; ok {
			collections = append(collections, c)
		}
	}
	return &CollectionSet{Collections: collections}, errs
}
