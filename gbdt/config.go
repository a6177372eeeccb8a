package gbdt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Objective names accepted by Config.Objective.
const (
	ObjectiveSquaredError = "reg:squarederror"
	ObjectiveMultiLogLoss = "multi:logloss"
)

// BoosterTree is the only supported booster kind.
const BoosterTree = "gbtree"

// Config holds every training option. It is a closed set: decoding a key
// that does not correspond to a field is an error (see package config).
type Config struct {
	Booster           string  `mapstructure:"booster" validate:"oneof=gbtree"`
	Objective         string  `mapstructure:"objective" validate:"oneof=reg:squarederror multi:logloss"`
	MaxDepth          int     `mapstructure:"max_depth" validate:"gt=0"`
	LearningRate      float64 `mapstructure:"learning_rate" validate:"gt=0,lte=1"`
	MinChildWeight    float64 `mapstructure:"min_child_weight" validate:"gte=0"`
	SubsampleFraction float64 `mapstructure:"subsample" validate:"gt=0,lte=1"`
	ColsampleFraction float64 `mapstructure:"colsample_bytree" validate:"gt=0,lte=1"`
	Iterations        int     `mapstructure:"iterations" validate:"gt=0"`
	Lambda            float64 `mapstructure:"lambda" validate:"gte=0"`
	Seed              int64   `mapstructure:"seed"`
	NumWorkers        int     `mapstructure:"num_workers" validate:"gte=0"`
}

// DefaultConfig returns the defaults used when a key is not set.
func DefaultConfig() Config {
	return Config{
		Booster:           BoosterTree,
		Objective:         ObjectiveSquaredError,
		MaxDepth:          6,
		LearningRate:      0.3,
		MinChildWeight:    1,
		SubsampleFraction: 1,
		ColsampleFraction: 1,
		Iterations:        10,
		Lambda:            1,
		Seed:              0,
		NumWorkers:        0,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every field and reports the first violation as an
// InvalidConfig error naming the offending key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewValidationError(fe.Field(), describeRule(fe.Tag(), fe.Param()), fe.Value())
	}
	return errors.Wrap(err, "gbdt: validate config")
}

func describeRule(tag, param string) string {
	switch tag {
	case "gt":
		return "must be > " + param
	case "gte":
		return "must be >= " + param
	case "lte":
		return "must be <= " + param
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(param, " ", ", ") + "]"
	default:
		return fmt.Sprintf("failed %q rule", tag)
	}
}

// IsMultiClass reports whether the objective trains one tree per class.
func (c Config) IsMultiClass() bool {
	return c.Objective == ObjectiveMultiLogLoss
}
