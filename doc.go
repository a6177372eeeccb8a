// Package goboost provides a histogram-based gradient boosted decision tree
// engine for Go, aimed at backend services that train and serve small to
// medium tabular models in-process.
//
// The engine grows depth-limited regression trees with second-order
// (Newton) split gains over exact per-feature histograms. It supports
// squared-error regression and one-vs-rest multi-class classification, and
// persists trained ensembles in a compact versioned binary format.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goboost/gbdt"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := []float64{0, 0, 1, 1}
//
//	    cfg := gbdt.DefaultConfig()
//	    cfg.Iterations = 20
//
//	    booster, err := gbdt.NewBooster(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer booster.Dispose()
//
//	    if err := booster.Train(context.Background(), X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    predictions, err := booster.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Predictions:", predictions)
//	}
//
// # Packages
//
//   - gbdt: Booster, tree builder, objectives, predictor and binary format
//   - core/dataset: Training matrix with per-feature sorted row order
//   - core/model: Booster lifecycle state machine
//   - core/parallel: Parallel helpers used by the tree builder and predictor
//   - metrics: Regression and classification metrics
//   - config: File, environment and map based configuration
//   - modelstore: Filesystem and S3/MinIO model storage
//   - telemetry: Prometheus metrics for training and prediction
//   - viz: Graphviz tree rendering and learning curves
//   - pkg/errors, pkg/log: Error types and structured logging
//
// The goboost command in cmd/goboost wraps training, prediction and model
// inspection for CSV and NumPy inputs.
package goboost
