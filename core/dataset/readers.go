package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// CSVOptions controls how ReadCSV interprets its input.
type CSVOptions struct {
	// Header skips the first record.
	Header bool
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// ReadCSV parses a numeric CSV table into a dense matrix. Every record must
// have the same number of fields.
func ReadCSV(r io.Reader, opts CSVOptions) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read csv")
	}
	if opts.Header && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return &mat.Dense{}, nil
	}

	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, record := range records {
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "dataset: csv record %d, field %d", i+1, j+1)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(records), cols, data), nil
}

// ReadNpy reads a 2-D float64 array stored in NumPy .npy format.
func ReadNpy(r io.Reader) (*mat.Dense, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open npy")
	}
	m := &mat.Dense{}
	if err := npy.Read(m); err != nil {
		return nil, errors.Wrap(err, "dataset: read npy matrix")
	}
	return m, nil
}

// ReadNpyVector reads a 1-D float64 array stored in NumPy .npy format.
func ReadNpyVector(r io.Reader) ([]float64, error) {
	var v []float64
	if err := npyio.Read(r, &v); err != nil {
		return nil, errors.Wrap(err, "dataset: read npy vector")
	}
	return v, nil
}

// LoadMatrix reads a feature matrix from a .csv or .npy file.
func LoadMatrix(path string, opts CSVOptions) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return ReadNpy(f)
	case ".csv", ".txt":
		return ReadCSV(f, opts)
	default:
		return nil, errors.NewValueError("dataset.LoadMatrix", "unsupported file extension "+filepath.Ext(path))
	}
}

// LoadVector reads a label vector from a .npy file or from a single-column
// .csv file.
func LoadVector(path string, opts CSVOptions) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return ReadNpyVector(f)
	case ".csv", ".txt":
		m, err := ReadCSV(f, opts)
		if err != nil {
			return nil, err
		}
		rows, cols := m.Dims()
		if rows == 0 {
			return nil, nil
		}
		if cols != 1 {
			return nil, errors.NewDimensionError("dataset.LoadVector", 1, cols, 1)
		}
		return mat.Col(nil, 0, m), nil
	default:
		return nil, errors.NewValueError("dataset.LoadVector", "unsupported file extension "+filepath.Ext(path))
	}
}
