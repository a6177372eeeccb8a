package gbdt

import (
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Loss supplies first and second derivatives of a per-row loss with respect
// to the raw score.
type Loss interface {
	// Gradient returns the gradient and hessian at raw for target.
	Gradient(raw, target float64) (grad, hess float64)

	// Loss returns the loss value at raw for target.
	Loss(raw, target float64) float64

	// Link maps a raw score to the output scale.
	Link(raw float64) float64

	// BaseScore is the raw score every row starts from.
	BaseScore(targets []float64) float64

	// Name returns the objective name.
	Name() string
}

// SquaredError implements 0.5 * (raw - y)^2.
type SquaredError struct{}

func (SquaredError) Gradient(raw, target float64) (float64, float64) {
	return raw - target, 1
}

func (SquaredError) Loss(raw, target float64) float64 {
	diff := raw - target
	return 0.5 * diff * diff
}

func (SquaredError) Link(raw float64) float64 { return raw }

// BaseScore is the label mean.
func (SquaredError) BaseScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	return sum / float64(len(targets))
}

func (SquaredError) Name() string { return ObjectiveSquaredError }

// minHessian keeps leaf denominators positive when a class probability
// saturates at 0 or 1.
const minHessian = 1e-16

// MultiClassLogLoss is the per-class binary logistic loss used for
// one-vs-rest classification. Targets are 1 for rows of the class the tree
// is fitted for and 0 otherwise.
type MultiClassLogLoss struct{}

func (MultiClassLogLoss) Gradient(raw, target float64) (float64, float64) {
	p := errors.Sigmoid(raw)
	h := p * (1 - p)
	if h < minHessian {
		h = minHessian
	}
	return p - target, h
}

func (MultiClassLogLoss) Loss(raw, target float64) float64 {
	p := errors.ClipValue(errors.Sigmoid(raw), 1e-15, 1-1e-15)
	if target > 0.5 {
		return -errors.StabilizeLog(p)
	}
	return -errors.StabilizeLog(1 - p)
}

func (MultiClassLogLoss) Link(raw float64) float64 { return errors.Sigmoid(raw) }

// BaseScore is 0, i.e. every class starts at probability 0.5.
func (MultiClassLogLoss) BaseScore([]float64) float64 { return 0 }

func (MultiClassLogLoss) Name() string { return ObjectiveMultiLogLoss }

// NewLoss returns the Loss registered under name.
func NewLoss(name string) (Loss, error) {
	switch name {
	case ObjectiveSquaredError:
		return SquaredError{}, nil
	case ObjectiveMultiLogLoss:
		return MultiClassLogLoss{}, nil
	default:
		return nil, errors.NewValidationError("objective", "unknown objective", name)
	}
}
