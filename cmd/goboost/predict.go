package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/modelstore"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func runPredict(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		model  string
		xPath  string
		output string
		proba  bool
	)
	fs := newFlagSet("predict", stderr, &common)
	fs.StringVarP(&model, "model", "m", "model.gbdt", "saved model")
	fs.StringVarP(&xPath, "features", "x", "", "feature matrix (.csv or .npy)")
	fs.StringVarP(&output, "output", "o", "", "write predictions here instead of stdout")
	fs.BoolVar(&proba, "proba", false, "write per-class probabilities")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if xPath == "" {
		fs.Usage()
		return errors.New("predict needs --features")
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	store, name, err := resolveModel(cfg, model)
	if err != nil {
		return err
	}
	b, err := modelstore.LoadBooster(ctx, store, name)
	if err != nil {
		return err
	}
	defer b.Dispose()

	X, err := dataset.LoadMatrix(xPath, dataset.CSVOptions{Header: common.header})
	if err != nil {
		return err
	}

	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		w = f
	}
	out := csv.NewWriter(w)

	if proba {
		p, err := b.PredictProba(X)
		if err != nil {
			return err
		}
		if p != nil {
			rows, cols := p.Dims()
			record := make([]string, cols)
			for i := 0; i < rows; i++ {
				for k := 0; k < cols; k++ {
					record[k] = strconv.FormatFloat(p.At(i, k), 'g', -1, 64)
				}
				if err := out.Write(record); err != nil {
					return errors.WithStack(err)
				}
			}
		}
	} else {
		preds, err := b.Predict(X)
		if err != nil {
			return err
		}
		for _, v := range preds {
			if err := out.Write([]string{strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	out.Flush()
	return errors.WithStack(out.Error())
}
