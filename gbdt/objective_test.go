package gbdt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestSquaredError(t *testing.T) {
	var loss SquaredError
	g, h := loss.Gradient(3, 1)
	assert.Equal(t, 2.0, g)
	assert.Equal(t, 1.0, h)
	assert.Equal(t, 2.0, loss.Loss(3, 1))
	assert.Equal(t, 5.0, loss.Link(5))
	assert.Equal(t, 2.0, loss.BaseScore([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, loss.BaseScore(nil))
}

func TestMultiClassLogLoss(t *testing.T) {
	var loss MultiClassLogLoss
	g, h := loss.Gradient(0, 1)
	assert.Equal(t, -0.5, g)
	assert.Equal(t, 0.25, h)
	g, _ = loss.Gradient(0, 0)
	assert.Equal(t, 0.5, g)

	assert.InDelta(t, math.Log(2), loss.Loss(0, 1), 1e-15)
	assert.Equal(t, 0.0, loss.BaseScore([]float64{0, 1, 2}))
	assert.Equal(t, 0.5, loss.Link(0))

	t.Run("saturated scores stay finite", func(t *testing.T) {
		for _, raw := range []float64{-800, 800} {
			g, h := loss.Gradient(raw, 1)
			assert.False(t, math.IsNaN(g) || math.IsInf(g, 0))
			assert.Greater(t, h, 0.0)
			l := loss.Loss(raw, 0)
			assert.False(t, math.IsNaN(l) || math.IsInf(l, 0))
		}
	})
}

func TestNewLoss(t *testing.T) {
	l, err := NewLoss(ObjectiveSquaredError)
	require.NoError(t, err)
	assert.Equal(t, ObjectiveSquaredError, l.Name())

	l, err = NewLoss(ObjectiveMultiLogLoss)
	require.NoError(t, err)
	assert.Equal(t, ObjectiveMultiLogLoss, l.Name())

	_, err = NewLoss("rank:pairwise")
	assert.True(t, errors.IsInvalidConfig(err))
}
