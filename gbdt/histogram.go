package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/core/dataset"
)

// HistogramBin aggregates the gradient statistics of all node rows sharing
// one distinct feature value.
type HistogramBin struct {
	Value   float64
	Count   int
	SumGrad float64
	SumHess float64
}

// FeatureHistogram is the ordered list of bins of one feature for one node.
type FeatureHistogram struct {
	FeatureIndex int
	Bins         []HistogramBin
}

// buildHistogram groups rows, given in ascending order of feature, into one
// bin per distinct value. bins is reused as backing storage.
func buildHistogram(ds *dataset.Dataset, feature int, rows []int, grad, hess []float64, bins []HistogramBin) FeatureHistogram {
	bins = bins[:0]
	for _, r := range rows {
		v := ds.At(r, feature)
		if n := len(bins); n > 0 && bins[n-1].Value == v {
			b := &bins[n-1]
			b.Count++
			b.SumGrad += grad[r]
			b.SumHess += hess[r]
			continue
		}
		bins = append(bins, HistogramBin{Value: v, Count: 1, SumGrad: grad[r], SumHess: hess[r]})
	}
	return FeatureHistogram{FeatureIndex: feature, Bins: bins}
}

// splitCandidate is the best split of one feature.
type splitCandidate struct {
	Feature   int
	Threshold float64
	Gain      float64
	LeftGrad  float64
	LeftHess  float64
	Valid     bool
}

// splitGain is the regularized Newton gain of splitting (G, H) into
// (GL, HL) and (GR, HR).
func splitGain(leftGrad, leftHess, rightGrad, rightHess, lambda float64) float64 {
	totalGrad := leftGrad + rightGrad
	totalHess := leftHess + rightHess
	return 0.5 * (leftGrad*leftGrad/(leftHess+lambda) +
		rightGrad*rightGrad/(rightHess+lambda) -
		totalGrad*totalGrad/(totalHess+lambda))
}

// leafValue is the Newton step -G/(H+lambda).
func leafValue(sumGrad, sumHess, lambda float64) float64 {
	denom := sumHess + lambda
	if denom <= 0 {
		return 0
	}
	return -sumGrad / denom
}

// midpoint returns a threshold t with lo <= t < hi.
func midpoint(lo, hi float64) float64 {
	t := lo/2 + hi/2
	if t < lo || t >= hi || math.IsInf(t, 0) {
		return lo
	}
	return t
}

// bestSplit scans the bins left to right and keeps the first threshold with
// the highest gain, so among equal gains the lowest threshold wins.
func (h FeatureHistogram) bestSplit(sumGrad, sumHess float64, p treeParams) splitCandidate {
	best := splitCandidate{Feature: h.FeatureIndex}
	var leftGrad, leftHess float64
	for k := 0; k+1 < len(h.Bins); k++ {
		leftGrad += h.Bins[k].SumGrad
		leftHess += h.Bins[k].SumHess
		rightGrad := sumGrad - leftGrad
		rightHess := sumHess - leftHess
		if leftHess < p.MinChildWeight || rightHess < p.MinChildWeight {
			continue
		}
		gain := splitGain(leftGrad, leftHess, rightGrad, rightHess, p.Lambda)
		if math.IsNaN(gain) || gain <= 0 {
			continue
		}
		if !best.Valid || gain > best.Gain {
			best = splitCandidate{
				Feature:   h.FeatureIndex,
				Threshold: midpoint(h.Bins[k].Value, h.Bins[k+1].Value),
				Gain:      gain,
				LeftGrad:  leftGrad,
				LeftHess:  leftHess,
				Valid:     true,
			}
		}
	}
	return best
}

// better reports whether c beats other under the deterministic order:
// higher gain, then lower feature index, then lower threshold.
func (c splitCandidate) better(other splitCandidate) bool {
	if !c.Valid {
		return false
	}
	if !other.Valid {
		return true
	}
	if c.Gain != other.Gain {
		return c.Gain > other.Gain
	}
	if c.Feature != other.Feature {
		return c.Feature < other.Feature
	}
	return c.Threshold < other.Threshold
}
