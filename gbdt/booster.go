// Package gbdt implements gradient boosted decision trees with second order
// (Newton) leaf values, squared error regression, and one-vs-rest
// multi-class classification.
//
// A Booster is created from a Config, trained once or several times, used
// for prediction, serialized, and finally disposed:
//
//	booster, err := gbdt.NewBooster(cfg)
//	if err != nil {
//	    return err
//	}
//	defer booster.Dispose()
//	if err := booster.Train(ctx, X, y); err != nil {
//	    return err
//	}
//	labels, err := booster.Predict(X)
package gbdt

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/model"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

const modelName = "Booster"

// MaxFeatures is the largest number of feature columns a model may have.
const MaxFeatures = 1 << 24

// Ensemble is the trained model: an ordered list of trees plus what is
// needed to turn their outputs into predictions. Trees of round r occupy
// indices [r*NumClasses, (r+1)*NumClasses). An Ensemble is never modified
// after training.
type Ensemble struct {
	Objective    string
	LearningRate float64
	NumClasses   int // output groups; 1 for regression
	NumFeatures  int
	BaseScore    float64
	Classes      []float64 // label value of each output group, multi-class only
	Trees        []Tree
}

// NumRounds returns the number of boosting rounds.
func (e *Ensemble) NumRounds() int {
	if e.NumClasses == 0 {
		return 0
	}
	return len(e.Trees) / e.NumClasses
}

// MetricsRecorder receives training and prediction measurements.
type MetricsRecorder interface {
	ObserveRound(objective string, duration time.Duration, loss float64)
	AddTrees(objective string, n int)
	AddPredictions(objective string, rows int)
}

// Option configures a Booster.
type Option func(*Booster)

// WithLogger replaces the default "gbdt.booster" logger.
func WithLogger(logger log.Logger) Option {
	return func(b *Booster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics reports rounds, trees and predictions to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(b *Booster) { b.metrics = m }
}

// WithCallbacks registers callbacks invoked after every boosting round.
func WithCallbacks(callbacks ...Callback) Option {
	return func(b *Booster) { b.callbacks = append(b.callbacks, callbacks...) }
}

// Booster trains and serves a tree ensemble. Prediction methods may be
// called concurrently; Train and Dispose serialize with them.
type Booster struct {
	cfg   Config
	loss  Loss
	state *model.StateManager

	ensMu    sync.RWMutex
	ensemble *Ensemble

	logger    log.Logger
	metrics   MetricsRecorder
	callbacks []Callback
}

var (
	_ model.Trainer                = (*Booster)(nil)
	_ model.ProbabilisticPredictor = (*Booster)(nil)
	_ model.Serializable           = (*Booster)(nil)
	_ model.Disposable             = (*Booster)(nil)
)

// NewBooster validates cfg and returns an untrained Booster.
func NewBooster(cfg Config, opts ...Option) (*Booster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loss, err := NewLoss(cfg.Objective)
	if err != nil {
		return nil, err
	}
	b := &Booster{
		cfg:    cfg,
		loss:   loss,
		state:  model.NewStateManager(modelName),
		logger: log.GetLoggerWithName("gbdt.booster"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(log.ModelNameKey, modelName, log.ObjectiveKey, cfg.Objective)
	return b, nil
}

// Config returns the configuration the booster was created with.
func (b *Booster) Config() Config { return b.cfg }

// State returns the lifecycle state.
func (b *Booster) State() model.State { return b.state.State() }

// Train fits a new ensemble on X (rows x features) and y. The previous
// ensemble, if any, is replaced only when every round succeeds; on error or
// cancellation the booster is left as it was.
func (b *Booster) Train(ctx context.Context, X mat.Matrix, y []float64) (err error) {
	if err := b.state.RequireUsable("Train"); err != nil {
		return err
	}
	if isNilMatrix(X) {
		return errors.NewEmptyDataError("Booster.Train")
	}
	ds, err := dataset.New(X, y)
	if err != nil {
		return err
	}
	if ds.Cols() > MaxFeatures {
		return errors.NewDimensionError("Booster.Train", MaxFeatures, ds.Cols(), 1)
	}
	if err := b.state.BeginTraining(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			b.state.AbortTraining()
			b.logger.Error("Training failed", err, log.OperationKey, log.OperationTrain)
		}
	}()
	defer errors.Recover(&err, "Booster.Train")

	start := time.Now()
	b.logger.Info("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Rows(),
		log.FeaturesKey, ds.Cols(),
		log.LearningRateKey, b.cfg.LearningRate,
		log.MaxDepthKey, b.cfg.MaxDepth,
		log.LambdaKey, b.cfg.Lambda,
		log.RandomSeedKey, b.cfg.Seed,
	)

	ens, err := newTrainSession(b.cfg, b.loss, ds).run(ctx, b)
	if err != nil {
		return err
	}
	if err := b.state.FinishTraining(ds.Cols(), ds.Rows(), func() { b.setEnsemble(ens) }); err != nil {
		return err
	}

	b.logger.Info("Training finished",
		log.OperationKey, log.OperationTrain,
		log.TreesKey, len(ens.Trees),
		log.ClassesKey, ens.NumClasses,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Ensemble returns the committed ensemble. It must be treated as read-only.
func (b *Booster) Ensemble() (*Ensemble, error) {
	return b.snapshot("Ensemble")
}

// FeatureImportance returns the total split gain contributed by each feature.
func (b *Booster) FeatureImportance() ([]float64, error) {
	ens, err := b.snapshot("FeatureImportance")
	if err != nil {
		return nil, err
	}
	importance := make([]float64, ens.NumFeatures)
	for i := range ens.Trees {
		for _, n := range ens.Trees[i].Nodes {
			if n.NodeType == SplitNode {
				importance[n.SplitFeature] += n.Gain
			}
		}
	}
	return importance, nil
}

// Dispose releases the ensemble. Every later call on the booster fails with
// a disposed error. Dispose is idempotent.
func (b *Booster) Dispose() {
	if b.state.Dispose(func() { b.setEnsemble(nil) }) {
		b.logger.Debug("Booster disposed")
	}
}

func (b *Booster) setEnsemble(ens *Ensemble) {
	b.ensMu.Lock()
	b.ensemble = ens
	b.ensMu.Unlock()
}

func (b *Booster) snapshot(method string) (*Ensemble, error) {
	if err := b.state.RequireFitted(method); err != nil {
		return nil, err
	}
	b.ensMu.RLock()
	ens := b.ensemble
	b.ensMu.RUnlock()
	if ens == nil {
		return nil, errors.NewDisposedError(modelName, method)
	}
	return ens, nil
}
