package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type, e.g. "Booster".
	ModelNameKey = "model.name"

	// ObjectiveKey is the objective name, e.g. "reg:squarederror".
	ObjectiveKey = "model.objective"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "predict", "serialize", "load".
	OperationKey = "ml.operation"

	// ComponentKey identifies which package produced the record.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	BytesKey    = "data.size_bytes"
)

// Training progress and performance.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"
	TreesKey      = "model.trees"
	PredsKey      = "preds.count"
)

// Hyperparameters.
const (
	LearningRateKey = "hyperparams.learning_rate"
	MaxDepthKey     = "hyperparams.max_depth"
	LambdaKey       = "hyperparams.lambda"
	RandomSeedKey   = "config.random_seed"
)

// Error context.
const (
	ErrorTypeKey = "error.type"
	StoreKey     = "store.location"
)

// Standard operation values.
const (
	OperationTrain     = "train"
	OperationPredict   = "predict"
	OperationSerialize = "serialize"
	OperationLoad      = "load"
)
