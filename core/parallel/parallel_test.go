package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, tc := range []struct {
		name    string
		items   int
		workers int
	}{
		{"single worker", 10, 1},
		{"more workers than items", 3, 8},
		{"uneven split", 101, 4},
		{"cpu default", 1000, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seen := make([]int32, tc.items)
			Parallelize(tc.items, tc.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, n := range seen {
				assert.Equal(t, int32(1), n, "item %d", i)
			}
		})
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, 4, func(int, int) { called = true })
	ParallelizeWithThreshold(0, 10, 4, func(int, int) { called = true })
	assert.False(t, called)
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(5, 10, 4, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeErrReturnsLowestRangeError(t *testing.T) {
	err := ParallelizeErr(100, 4, "test", func(start, end int) error {
		if start >= 50 {
			return errors.NewValueError("test", "late range")
		}
		if start == 25 {
			return errors.NewValueError("test", "early range")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "early range")
}

func TestParallelizeErrRecoversPanics(t *testing.T) {
	err := ParallelizeErr(8, 2, "predict", func(start, end int) error {
		if start == 0 {
			panic("boom")
		}
		return nil
	})
	require.Error(t, err)

	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "predict", panicErr.Operation)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Greater(t, Workers(0), 0)
}
