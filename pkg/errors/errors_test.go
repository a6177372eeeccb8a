package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Train",
			kind:    "round failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "goboost: Train: round failed: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not trained",
			err:     nil,
			wantMsg: "goboost: Predict: not trained",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Train", 10, 9, 0)

	want := "goboost: Train: dimension mismatch on axis 0 (rows). Expected 10, got 9"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if !IsDimensionMismatch(err) {
		t.Error("IsDimensionMismatch should report true")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid config", NewValidationError("max_depth", "must be > 0", 0), IsInvalidConfig},
		{"dimension", NewDimensionError("Predict", 4, 3, 1), IsDimensionMismatch},
		{"empty data", NewEmptyDataError("Train"), IsEmptyData},
		{"not fitted", NewNotFittedError("Booster", "Predict"), IsNotFitted},
		{"format", NewFormatError(0, "bad magic %q", "XXXX"), IsInvalidFormat},
		{"disposed", NewDisposedError("Booster", "Predict"), IsDisposed},
		{"numerical", NewNumericalInstabilityError("gradient", []float64{0}, 3), IsNumericalInstability},
	}
	all := []func(error) bool{IsInvalidConfig, IsDimensionMismatch, IsEmptyData, IsNotFitted, IsInvalidFormat, IsDisposed, IsNumericalInstability}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Fatalf("predicate did not match %v", tt.err)
			}
			if !tt.check(Wrap(tt.err, "outer")) {
				t.Error("predicate should see through Wrap")
			}
			matched := 0
			for _, p := range all {
				if p(tt.err) {
					matched++
				}
			}
			if matched != 1 {
				t.Errorf("expected exactly one predicate to match, got %d", matched)
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Booster", "Predict")
	want := "goboost: Booster: this model is not trained yet. Call Train() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	err := NewFormatError(12, "checksum mismatch: stored %08x, computed %08x", uint32(1), uint32(2))
	want := "goboost: invalid model format at byte 12: checksum mismatch: stored 00000001, computed 00000002"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var valErr *ValidationError
	if !As(NewValidationError("learning_rate", "must be in (0, 1]", 1.5), &valErr) {
		t.Fatal("expected ValidationError")
	}
	logger.Error().EmbedObject(valErr).Msg("bad config")

	out := buf.String()
	for _, want := range []string{`"param_name":"learning_rate"`, `"type":"ValidationError"`, `"value":1.5`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "'precision' is ill-defined") {
		t.Errorf("unexpected warning text: %v", got[0])
	}
}

func TestWarnFallbackHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	Warn(New("fallback"))
	if got == nil || got.Error() != "fallback" {
		t.Errorf("fallback handler not called, got %v", got)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("ok", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := CheckNumericalStability("features", []float64{1, math.NaN(), 3}, 2)
	if !IsNumericalInstability(err) {
		t.Fatalf("expected numerical instability, got %v", err)
	}
}

func TestSigmoid(t *testing.T) {
	if s := Sigmoid(0); s != 0.5 {
		t.Errorf("Sigmoid(0) = %v", s)
	}
	if s := Sigmoid(-1000); s != 0 {
		t.Errorf("Sigmoid(-1000) = %v", s)
	}
	if s := Sigmoid(1000); s != 1 {
		t.Errorf("Sigmoid(1000) = %v", s)
	}
}

func TestWrapf(t *testing.T) {
	base := New("base error")
	wrapped := Wrapf(base, "context %d", 42)

	if !strings.Contains(wrapped.Error(), "context 42") {
		t.Errorf("wrapped message missing context: %v", wrapped)
	}
	if !Is(wrapped, base) {
		t.Error("wrapped error should match base")
	}
}
