// Package parallel provides chunked fan-out helpers used by split search and
// batch prediction.
package parallel

import (
	"runtime"

	"github.com/sourcegraph/conc"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Workers resolves a configured worker count; n <= 0 means one per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// chunks divides [0, items) into at most workers contiguous ranges.
func chunks(items, workers int) [][2]int {
	workers = Workers(workers)
	if workers > items {
		workers = items
	}
	chunkSize := (items + workers - 1) / workers

	ranges := make([][2]int, 0, workers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// Parallelize divides items into at most workers ranges and executes fn for
// each range (start, end) concurrently. A panic in fn is propagated to the
// caller after all ranges have finished.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	ranges := chunks(items, workers)
	if len(ranges) == 1 {
		fn(0, items)
		return
	}

	var wg conc.WaitGroup
	for _, r := range ranges {
		s, e := r[0], r[1]
		wg.Go(func() { fn(s, e) })
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items does not exceed
// threshold, and through Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, workers, fn)
}

// ParallelizeErr is Parallelize for fallible work. Panics become errors, and
// when several ranges fail the error of the lowest range is returned so the
// result does not depend on scheduling.
func ParallelizeErr(items, workers int, operation string, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	ranges := chunks(items, workers)
	errs := make([]error, len(ranges))

	var wg conc.WaitGroup
	for i, r := range ranges {
		i, s, e := i, r[0], r[1]
		wg.Go(func() {
			errs[i] = errors.SafeExecute(operation, func() error { return fn(s, e) })
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
