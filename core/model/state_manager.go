// Package model tracks the lifecycle state of a model in a thread-safe manner.
package model

import (
	"sync"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// State is a lifecycle state.
type State int

const (
	// StateUninitialized is a model that was created but never trained or loaded.
	StateUninitialized State = iota
	// StateTraining is a model with a training run in progress.
	StateTraining
	// StateTrained is a model holding a committed ensemble.
	StateTrained
	// StateDisposed is terminal; every operation fails afterwards.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// StateManager guards the lifecycle transitions of one model:
//
//	Uninitialized -> Training -> Trained
//	Trained       -> Training -> Trained   (retraining)
//	any           -> Disposed
//
// A model that has committed an ensemble keeps serving it while a new
// training run is in progress.
type StateManager struct {
	mu        sync.RWMutex
	modelName string
	state     State
	committed bool

	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in StateUninitialized.
func NewStateManager(modelName string) *StateManager {
	return &StateManager{modelName: modelName}
}

// State returns the current state.
func (s *StateManager) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsFitted returns whether the model holds a committed ensemble.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed && s.state != StateDisposed
}

// BeginTraining moves the model into StateTraining.
func (s *StateManager) BeginTraining() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateDisposed:
		return errors.NewDisposedError(s.modelName, "Train")
	case StateTraining:
		return errors.NewModelError("Train", "training already in progress", nil)
	}
	s.state = StateTraining
	return nil
}

// FinishTraining records a successful run. commit is called under the state
// lock so that the caller can swap its ensemble atomically with the
// transition; it is not called if the model was disposed meanwhile.
func (s *StateManager) FinishTraining(nFeatures, nSamples int, commit func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return errors.NewDisposedError(s.modelName, "Train")
	}
	commit()
	s.state = StateTrained
	s.committed = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
	return nil
}

// AbortTraining reverts a failed run to the state it started from.
func (s *StateManager) AbortTraining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTraining {
		return
	}
	if s.committed {
		s.state = StateTrained
	} else {
		s.state = StateUninitialized
	}
}

// MarkLoaded moves a fresh model directly into StateTrained.
func (s *StateManager) MarkLoaded(nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTrained
	s.committed = true
	s.nFeatures = nFeatures
}

// RequireFitted returns an error unless the model can serve predictions.
func (s *StateManager) RequireFitted(method string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateDisposed {
		return errors.NewDisposedError(s.modelName, method)
	}
	if !s.committed {
		return errors.NewNotFittedError(s.modelName, method)
	}
	return nil
}

// RequireUsable returns an error only if the model was disposed.
func (s *StateManager) RequireUsable(method string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateDisposed {
		return errors.NewDisposedError(s.modelName, method)
	}
	return nil
}

// Dispose moves the model into StateDisposed. release runs once, on the
// first call. It reports whether this call performed the transition.
func (s *StateManager) Dispose(release func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return false
	}
	if release != nil {
		release()
	}
	s.state = StateDisposed
	s.committed = false
	return true
}

// GetDimensions returns the number of features and samples seen during training.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}
