// Package dataset holds the immutable training matrix used by the booster.
//
// Features are stored row-major together with one label per row. For every
// feature a stable ascending order of the rows is computed once at
// construction, so split search never sorts per node.
package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Dataset is a read-only rows x cols feature matrix with labels.
type Dataset struct {
	features []float64
	labels   []float64
	rows     int
	cols     int
	sorted   [][]int
}

// New copies X and y into a Dataset. X must have at least one row and one
// column, y must have one entry per row, and no value may be NaN or Inf.
func New(X mat.Matrix, y []float64) (*Dataset, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewEmptyDataError("dataset.New")
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("dataset.New", rows, len(y), 0)
	}

	features := make([]float64, rows*cols)
	if raw, ok := X.(mat.RawMatrixer); ok && raw.RawMatrix().Stride == cols {
		copy(features, raw.RawMatrix().Data[:rows*cols])
	} else {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				features[i*cols+j] = X.At(i, j)
			}
		}
	}
	return build(features, append([]float64(nil), y...), rows, cols)
}

// FromRows builds a Dataset from a slice of equally sized rows.
func FromRows(X [][]float64, y []float64) (*Dataset, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, errors.NewEmptyDataError("dataset.FromRows")
	}
	if len(y) != len(X) {
		return nil, errors.NewDimensionError("dataset.FromRows", len(X), len(y), 0)
	}
	cols := len(X[0])
	features := make([]float64, 0, len(X)*cols)
	for _, row := range X {
		if len(row) != cols {
			return nil, errors.NewDimensionError("dataset.FromRows", cols, len(row), 1)
		}
		features = append(features, row...)
	}
	return build(features, append([]float64(nil), y...), len(X), cols)
}

func build(features, labels []float64, rows, cols int) (*Dataset, error) {
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(
				errors.NewNumericalInstabilityError("dataset_features", []float64{v}, 0),
				"row %d, feature %d", i/cols, i%cols)
		}
	}
	for i, v := range labels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(
				errors.NewNumericalInstabilityError("dataset_labels", []float64{v}, 0),
				"row %d", i)
		}
	}

	d := &Dataset{features: features, labels: labels, rows: rows, cols: cols}
	d.sorted = make([][]int, cols)
	parallel.ParallelizeWithThreshold(cols, 1, 0, func(start, end int) {
		column := make([]float64, rows)
		for j := start; j < end; j++ {
			idx := make([]int, rows)
			for i := range idx {
				idx[i] = i
				column[i] = features[i*cols+j]
			}
			floats.ArgsortStable(column, idx)
			d.sorted[j] = idx
		}
	})
	return d, nil
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the number of features.
func (d *Dataset) Cols() int { return d.cols }

// At returns feature j of row i.
func (d *Dataset) At(i, j int) float64 { return d.features[i*d.cols+j] }

// Row returns row i. The slice aliases the dataset and must not be modified.
func (d *Dataset) Row(i int) []float64 {
	return d.features[i*d.cols : (i+1)*d.cols : (i+1)*d.cols]
}

// Label returns the label of row i.
func (d *Dataset) Label(i int) float64 { return d.labels[i] }

// Labels returns the labels. The slice must not be modified.
func (d *Dataset) Labels() []float64 { return d.labels }

// SortedIndex returns the rows in stable ascending order of feature j.
// The slice is shared and must not be modified.
func (d *Dataset) SortedIndex(j int) []int { return d.sorted[j] }

// Matrix returns a rows x cols view of the features.
func (d *Dataset) Matrix() *mat.Dense {
	return mat.NewDense(d.rows, d.cols, d.features)
}

// Classes returns the distinct label values in ascending order.
func (d *Dataset) Classes() []float64 {
	seen := make(map[float64]struct{})
	var classes []float64
	for _, v := range d.labels {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}
