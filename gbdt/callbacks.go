package gbdt

import (
	"fmt"
	"io"
	"time"
)

// CallbackEnv describes the state of a training run after one boosting round.
type CallbackEnv struct {
	Iteration int           // zero-based round index
	Loss      float64       // mean training loss after the round
	NumTrees  int           // trees in the ensemble under construction
	Elapsed   time.Duration // time spent on this round
}

// Callback observes a training run. Returning an error aborts training; the
// booster keeps its previous state.
type Callback func(env CallbackEnv) error

// PrintEvaluation writes the training loss every period rounds.
func PrintEvaluation(w io.Writer, period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env CallbackEnv) error {
		if env.Iteration%period == 0 {
			_, err := fmt.Fprintf(w, "[%d] training_loss: %.6f\n", env.Iteration, env.Loss)
			return err
		}
		return nil
	}
}

// RecordEvaluation appends the training loss of every round to history.
func RecordEvaluation(history *[]float64) Callback {
	return func(env CallbackEnv) error {
		*history = append(*history, env.Loss)
		return nil
	}
}
