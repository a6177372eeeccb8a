package gbdt

import (
	"context"
	"time"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// rowParallelThreshold is the row count below which per-row loops run
// sequentially.
const rowParallelThreshold = 4096

// trainSession owns every buffer of one Train call. Nothing in it is shared
// with the Booster until the finished ensemble is committed.
type trainSession struct {
	cfg     Config
	loss    Loss
	ds      *dataset.Dataset
	classes []float64
	targets [][]float64 // one target vector per output group
	scores  [][]float64 // current raw score per output group and row
	grad    []float64
	hess    []float64
	sampler *SamplingStrategy
	params  treeParams
	base    float64
}

func newTrainSession(cfg Config, loss Loss, ds *dataset.Dataset) *trainSession {
	rows := ds.Rows()
	s := &trainSession{
		cfg:     cfg,
		loss:    loss,
		ds:      ds,
		grad:    make([]float64, rows),
		hess:    make([]float64, rows),
		sampler: NewSamplingStrategy(cfg),
		params: treeParams{
			MaxDepth:       cfg.MaxDepth,
			MinChildWeight: cfg.MinChildWeight,
			Lambda:         cfg.Lambda,
			Workers:        cfg.NumWorkers,
		},
	}

	if cfg.IsMultiClass() {
		s.classes = ds.Classes()
		s.targets = make([][]float64, len(s.classes))
		for k, class := range s.classes {
			t := make([]float64, rows)
			for i, label := range ds.Labels() {
				if label == class {
					t[i] = 1
				}
			}
			s.targets[k] = t
		}
	} else {
		s.targets = [][]float64{ds.Labels()}
	}

	s.base = loss.BaseScore(ds.Labels())
	s.scores = make([][]float64, len(s.targets))
	for k := range s.scores {
		sc := make([]float64, rows)
		for i := range sc {
			sc[i] = s.base
		}
		s.scores[k] = sc
	}
	return s
}

// run performs cfg.Iterations boosting rounds and returns the finished
// ensemble. ctx is checked before every round.
func (s *trainSession) run(ctx context.Context, b *Booster) (*Ensemble, error) {
	ens := &Ensemble{
		Objective:    s.loss.Name(),
		LearningRate: s.cfg.LearningRate,
		NumClasses:   len(s.targets),
		NumFeatures:  s.ds.Cols(),
		BaseScore:    s.base,
		Classes:      s.classes,
		Trees:        make([]Tree, 0, s.cfg.Iterations*len(s.targets)),
	}

	for iter := 0; iter < s.cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "gbdt: training cancelled before round %d", iter)
		}

		start := time.Now()
		trees, err := s.round(iter)
		if err != nil {
			return nil, err
		}
		ens.Trees = append(ens.Trees, trees...)
		trainLoss := s.trainingLoss()
		if err := errors.CheckScalar("training loss", trainLoss, iter); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)

		if b.metrics != nil {
			b.metrics.ObserveRound(ens.Objective, elapsed, trainLoss)
			b.metrics.AddTrees(ens.Objective, len(trees))
		}
		b.logger.Debug("Round finished",
			log.IterationKey, iter,
			log.LossKey, trainLoss,
			log.TreesKey, len(ens.Trees),
			log.DurationMsKey, elapsed.Milliseconds(),
		)

		env := CallbackEnv{Iteration: iter, Loss: trainLoss, NumTrees: len(ens.Trees), Elapsed: elapsed}
		for _, cb := range b.callbacks {
			if err := cb(env); err != nil {
				return nil, errors.Wrapf(err, "gbdt: callback failed at round %d", iter)
			}
		}
	}
	return ens, nil
}

// round fits one tree per output group.
func (s *trainSession) round(iter int) ([]Tree, error) {
	trees := make([]Tree, 0, len(s.targets))
	for k := range s.targets {
		s.computeGradients(k)
		if err := errors.CheckNumericalStability("gradient", s.grad, iter); err != nil {
			return nil, err
		}
		if err := errors.CheckNumericalStability("hessian", s.hess, iter); err != nil {
			return nil, err
		}

		rows := s.sampler.SampleInstances(s.ds.Rows())
		features := s.sampler.SampleFeatures(s.ds.Cols())
		tree, err := buildTree(s.ds, s.grad, s.hess, rows, features, s.params)
		if err != nil {
			return nil, err
		}
		tree.scale(s.cfg.LearningRate)
		tree.Class = k

		s.updateScores(k, &tree)
		trees = append(trees, tree)
	}
	return trees, nil
}

func (s *trainSession) computeGradients(k int) {
	scores, targets := s.scores[k], s.targets[k]
	parallel.ParallelizeWithThreshold(len(scores), rowParallelThreshold, s.cfg.NumWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			s.grad[i], s.hess[i] = s.loss.Gradient(scores[i], targets[i])
		}
	})
}

func (s *trainSession) updateScores(k int, tree *Tree) {
	scores := s.scores[k]
	parallel.ParallelizeWithThreshold(len(scores), rowParallelThreshold, s.cfg.NumWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i] += tree.Predict(s.ds.Row(i))
		}
	})
}

// trainingLoss is the mean loss over rows and output groups.
func (s *trainSession) trainingLoss() float64 {
	total := 0.0
	for k, scores := range s.scores {
		targets := s.targets[k]
		for i, raw := range scores {
			total += s.loss.Loss(raw, targets[i])
		}
	}
	return total / float64(len(s.scores)*s.ds.Rows())
}
