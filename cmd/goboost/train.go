package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/modelstore"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/telemetry"
	"github.com/YuminosukeSato/goboost/viz"
)

func runTrain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common      commonFlags
		xPath       string
		yPath       string
		output      string
		curvePath   string
		treesDir    string
		treesFormat string
		metricsAddr string
		verbose     int
	)
	fs := newFlagSet("train", stderr, &common)
	fs.StringVarP(&xPath, "features", "x", "", "feature matrix (.csv or .npy)")
	fs.StringVarP(&yPath, "labels", "y", "", "label vector (.csv or .npy)")
	fs.StringVarP(&output, "output", "o", "model.gbdt", "where to save the model")
	fs.StringVar(&curvePath, "curve", "", "save the learning curve to this image")
	fs.StringVar(&treesDir, "trees", "", "render every tree into this directory")
	fs.StringVar(&treesFormat, "trees-format", "svg", "tree image format (dot, png, svg, jpg)")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while training")
	fs.IntVar(&verbose, "verbose", 0, "print the training loss every n rounds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if xPath == "" || yPath == "" {
		fs.Usage()
		return errors.New("train needs --features and --labels")
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	csvOpts := dataset.CSVOptions{Header: common.header}
	X, err := dataset.LoadMatrix(xPath, csvOpts)
	if err != nil {
		return err
	}
	y, err := dataset.LoadVector(yPath, csvOpts)
	if err != nil {
		return err
	}

	var history []float64
	opts := []gbdt.Option{gbdt.WithCallbacks(gbdt.RecordEvaluation(&history))}
	if verbose > 0 {
		opts = append(opts, gbdt.WithCallbacks(gbdt.PrintEvaluation(stdout, verbose)))
	}
	if cfg.Metrics.Enabled || metricsAddr != "" {
		addr := metricsAddr
		if addr == "" {
			addr = cfg.Metrics.Addr
		}
		m := telemetry.NewMetrics(cfg.Metrics.Namespace)
		shutdown := m.Expose(addr)
		defer shutdown()
		opts = append(opts, gbdt.WithMetrics(m))
	}

	b, err := gbdt.NewBooster(cfg.Booster, opts...)
	if err != nil {
		return err
	}
	defer b.Dispose()
	if err := b.Train(ctx, X, y); err != nil {
		return err
	}

	store, name, err := resolveModel(cfg, output)
	if err != nil {
		return err
	}
	if err := modelstore.SaveBooster(ctx, store, name, b); err != nil {
		return err
	}

	if curvePath != "" {
		if err := viz.PlotLearningCurve(history, cfg.Booster.Objective, curvePath); err != nil {
			return err
		}
	}
	if treesDir != "" {
		ens, err := b.Ensemble()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(treesDir, 0o755); err != nil {
			return errors.WithStack(err)
		}
		if _, err := viz.RenderTrees(ens, treesDir, "tree", treesFormat, nil); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "trained %d rounds, final training loss %.6f, saved to %s\n", len(history), history[len(history)-1], output)
	return nil
}
