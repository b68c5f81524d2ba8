package log

// Standard attribute keys. They follow a hierarchical naming convention
// ("pipeline.stage", "data.samples") so pipeline logs can be filtered by prefix.

// Pipeline context
const (
	// StageKey identifies the pipeline stage emitting the record.
	StageKey = "pipeline.stage"

	// RunIDKey carries the uuid of a training run.
	RunIDKey = "pipeline.run_id"

	// SourceKey names the dataset file or artifact directory being read.
	SourceKey = "pipeline.source"

	// StatusKey is "PASS" or "FAIL" for integrity checks.
	StatusKey = "pipeline.status"
)

// Model and operation context
const (
	// ModelNameKey identifies the regressor or transformer.
	// Examples: "Linear", "RandomForest", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"
)

// Data shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnKey   = "data.column"
	ColumnsKey  = "data.columns"

	// DroppedKey lists or counts what a stage removed.
	DroppedKey = "data.dropped"

	// DuplicatesKey counts duplicate rows removed by the cleaner.
	DuplicatesKey = "data.duplicates"

	// NullsKey counts remaining missing cells.
	NullsKey = "data.nulls"

	// DtypesKey holds the numeric/categorical distribution of a frame.
	DtypesKey = "data.dtypes"
)

// Metrics
const (
	R2ScoreKey     = "metrics.r2_score"
	MAEKey         = "metrics.mae"
	RMSEKey        = "metrics.rmse"
	CorrelationKey = "metrics.correlation"
	ThresholdKey   = "metrics.threshold"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records iterations run by an iterative solver.
	IterationKey = "training.iteration"

	// PredictionKey records a single clipped score.
	PredictionKey = "preds.score"
)

// Configuration
const (
	RandomSeedKey = "config.random_seed"
	PolicyKey     = "config.unmapped_policy"
	AddrKey       = "config.addr"
)

// Error and warning context
const (
	// ErrorKey holds the error value of a failure record.
	ErrorKey = "error"

	// StacktraceKey contains the cockroachdb/errors stack trace of ErrorKey.
	StacktraceKey = "error.stacktrace"

	// WarningKey holds a structured warning (ConvergenceWarning, UnmappedCategoryWarning...).
	WarningKey = "warning"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"

	StageIngest  = "ingest"
	StageClean   = "clean"
	StageEncode  = "encode"
	StageSelect  = "select"
	StageTrain   = "train"
	StagePersist = "persist"
	StageInfer   = "infer"
	StageServe   = "serve"

	StatusPass = "PASS"
	StatusFail = "FAIL"
)
