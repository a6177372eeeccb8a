package gbdt

import (
	"math"
	"reflect"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// predictRow writes the raw score of every output group for row into out.
func (e *Ensemble) predictRow(row []float64, out []float64) {
	for k := range out {
		out[k] = e.BaseScore
	}
	for i := range e.Trees {
		t := &e.Trees[i]
		out[t.Class] += t.Predict(row)
	}
}

// rawScores evaluates every row of X independently, in parallel chunks.
func (e *Ensemble) rawScores(X mat.Matrix, workers int) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != e.NumFeatures {
		return nil, errors.NewDimensionError("Booster.Predict", e.NumFeatures, cols, 1)
	}
	out := mat.NewDense(rows, e.NumClasses, nil)
	err := parallel.ParallelizeErr(rows, workers, "Booster.Predict", func(start, end int) error {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			for _, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return errors.Wrapf(errors.NewNumericalInstabilityError("predict_features", []float64{v}, 0), "row %d", i)
				}
			}
			e.predictRow(row, out.RawRowView(i))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isNilMatrix reports whether X is nil or a nil pointer behind the interface.
func isNilMatrix(X mat.Matrix) bool {
	if X == nil {
		return true
	}
	v := reflect.ValueOf(X)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// emptyInput reports whether X has no rows to predict.
func emptyInput(X mat.Matrix) bool {
	if isNilMatrix(X) {
		return true
	}
	if d, ok := X.(interface{ IsEmpty() bool }); ok && d.IsEmpty() {
		return true
	}
	rows, _ := X.Dims()
	return rows == 0
}

// PredictRaw returns the raw (pre-link) score of every row and output group
// as a rows x numClasses matrix. A matrix without rows yields nil.
func (b *Booster) PredictRaw(X mat.Matrix) (*mat.Dense, error) {
	ens, err := b.snapshot("PredictRaw")
	if err != nil {
		return nil, err
	}
	if emptyInput(X) {
		return nil, nil
	}
	raw, err := ens.rawScores(X, b.cfg.NumWorkers)
	if err != nil {
		return nil, err
	}
	b.recordPredictions(ens, raw)
	return raw, nil
}

// Predict returns one value per row: the regression estimate, or for
// multi-class models the label of the class with the highest score.
func (b *Booster) Predict(X mat.Matrix) ([]float64, error) {
	ens, err := b.snapshot("Predict")
	if err != nil {
		return nil, err
	}
	if emptyInput(X) {
		return []float64{}, nil
	}
	raw, err := ens.rawScores(X, b.cfg.NumWorkers)
	if err != nil {
		return nil, err
	}
	b.recordPredictions(ens, raw)

	rows, _ := raw.Dims()
	preds := make([]float64, rows)
	if ens.Classes == nil {
		loss, err := NewLoss(ens.Objective)
		if err != nil {
			return nil, err
		}
		for i := range preds {
			preds[i] = loss.Link(raw.At(i, 0))
		}
		return preds, nil
	}
	for i := range preds {
		preds[i] = ens.Classes[floats.MaxIdx(raw.RawRowView(i))]
	}
	return preds, nil
}

// PredictProba returns a rows x numClasses matrix holding the sigmoid of
// each class score. Rows are not normalized across classes.
func (b *Booster) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	ens, err := b.snapshot("PredictProba")
	if err != nil {
		return nil, err
	}
	if ens.Classes == nil {
		return nil, errors.NewValueError("Booster.PredictProba", "requires a classification objective, got "+ens.Objective)
	}
	if emptyInput(X) {
		return nil, nil
	}
	raw, err := ens.rawScores(X, b.cfg.NumWorkers)
	if err != nil {
		return nil, err
	}
	b.recordPredictions(ens, raw)
	raw.Apply(func(_, _ int, v float64) float64 { return errors.Sigmoid(v) }, raw)
	return raw, nil
}

func (b *Booster) recordPredictions(ens *Ensemble, raw *mat.Dense) {
	rows, _ := raw.Dims()
	if b.metrics != nil {
		b.metrics.AddPredictions(ens.Objective, rows)
	}
	b.logger.Debug("Prediction finished", log.OperationKey, log.OperationPredict, log.PredsKey, rows)
}
