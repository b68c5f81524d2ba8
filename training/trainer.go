// Package training splits the selected frame, scales it, fits the model
// roster and persists the best candidate.
package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/metrics"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

// Defaults of the hold-out protocol.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// Evaluation is the hold-out performance of one candidate.
type Evaluation = artifact.Evaluation

// Result is the outcome of a successful run.
type Result struct {
	Artifact    *artifact.Artifact
	Evaluations []Evaluation
	Best        Evaluation
	TrainRows   int
	TestRows    int
}

// Trainer fits the roster and hands the winner to a Saver.
type Trainer struct {
	TestSize float64
	Seed     int64

	roster   []Candidate
	contract []string
	saver    artifact.Saver
	logger   log.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithTestSize sets the fraction of rows held out for evaluation.
func WithTestSize(f float64) Option { return func(t *Trainer) { t.TestSize = f } }

// WithSeed sets the seed of the split and of the randomised models.
func WithSeed(s int64) Option { return func(t *Trainer) { t.Seed = s } }

// WithRoster replaces the default five candidates.
func WithRoster(r []Candidate) Option { return func(t *Trainer) { t.roster = r } }

// WithFeatureContract restricts the feature columns to names. A frame with any
// other feature fails before fitting, so a model the predictor cannot serve is
// never persisted.
func WithFeatureContract(names []string) Option {
	return func(t *Trainer) { t.contract = append([]string(nil), names...) }
}

// WithClock overrides the timestamp source of artifact metadata.
func WithClock(now func() time.Time) Option { return func(t *Trainer) { t.now = now } }

// NewTrainer returns a Trainer persisting through saver. A nil saver skips persistence.
func NewTrainer(saver artifact.Saver, logger log.Logger, opts ...Option) *Trainer {
	if logger == nil {
		logger = log.Nop()
	}
	t := &Trainer{
		TestSize: DefaultTestSize,
		Seed:     DefaultSeed,
		saver:    saver,
		logger:   logger.With(log.StageKey, log.StageTrain),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	if t.roster == nil {
		t.roster = DefaultRoster(t.Seed, t.logger)
	}
	return t
}

// Train runs the full protocol on f, using every column other than target as
// a feature. Any failure aborts the run before anything is persisted.
func (t *Trainer) Train(f *dataset.Frame, target string) (*Result, error) {
	t.logger.Info("==> Starting Model Training...")
	res, err := t.train(f, target)
	if err != nil {
		t.logger.Error("Error during model training", err)
		return nil, err
	}
	t.logger.Info("==> Model Training completed successfully.")
	return res, nil
}

func (t *Trainer) train(f *dataset.Frame, target string) (*Result, error) {
	if !f.Has(target) {
		return nil, errors.NewSchemaError(log.StageTrain, []string{target}, nil)
	}
	features := f.Drop(target).Names()
	if len(features) == 0 {
		return nil, errors.NewValueError("training.Train", "no feature columns besides the target")
	}
	if err := t.checkContract(features); err != nil {
		return nil, err
	}

	X, err := f.Dense(features...)
	if err != nil {
		return nil, err
	}
	yv, err := f.Float(target)
	if err != nil {
		return nil, err
	}
	if err := t.checkFinite(X, features, yv); err != nil {
		return nil, err
	}

	n := f.Rows()
	split, err := TrainTestSplit(n, t.TestSize, t.Seed)
	if err != nil {
		return nil, err
	}
	XTrain, yTrain := rows(X, yv, split.Train)
	XTest, yTest := rows(X, yv, split.Test)

	scaler := preprocessing.NewStandardScaler()
	if err := scaler.FitNamed(XTrain, features); err != nil {
		return nil, err
	}
	XTrainScaled, err := scaler.Transform(XTrain)
	if err != nil {
		return nil, err
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Partitions scaled",
		"split.train_rows", len(split.Train),
		"split.test_rows", len(split.Test),
		log.FeaturesKey, len(features),
		log.RandomSeedKey, t.Seed,
	)

	evals := make([]Evaluation, 0, len(t.roster))
	fitted := make([]model.Regressor, 0, len(t.roster))
	for _, c := range t.roster {
		m, ev, err := t.evaluate(c, XTrainScaled, yTrain, XTestScaled, yTest)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
		fitted = append(fitted, m)
	}

	bi := bestIndex(evals)
	best := evals[bi]
	a := &artifact.Artifact{
		Metadata: artifact.Metadata{
			RunID:        t.newID(),
			ModelName:    best.Model,
			FeatureNames: features,
			Evaluations:  evals,
			TrainedAt:    t.now().UTC(),
		},
		Model:  fitted[bi],
		Scaler: scaler,
	}

	t.logger.Info("MODEL TRAINING REPORT",
		log.RunIDKey, a.Metadata.RunID,
		"best_model", best.Model,
		log.R2ScoreKey, best.R2,
		log.MAEKey, best.MAE,
		log.RMSEKey, best.RMSE,
	)

	if t.saver != nil {
		if err := t.saver.Save(a); err != nil {
			return nil, errors.Wrap(err, "persisting best model")
		}
	}
	return &Result{
		Artifact:    a,
		Evaluations: evals,
		Best:        best,
		TrainRows:   len(split.Train),
		TestRows:    len(split.Test),
	}, nil
}

// checkContract fails when a feature lies outside the configured contract.
func (t *Trainer) checkContract(features []string) error {
	if t.contract == nil {
		return nil
	}
	allowed := make(map[string]bool, len(t.contract))
	for _, name := range t.contract {
		allowed[name] = true
	}
	var unknown []string
	for _, name := range features {
		if !allowed[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return errors.Wrap(errors.NewIncompatibleArtifactError(t.contract, features, unknown),
			"selected features outside the inference contract")
	}
	return nil
}

// checkFinite rejects missing values instead of imputing them.
func (t *Trainer) checkFinite(X *mat.Dense, features []string, y []float64) error {
	if err := errors.CheckMatrix("training.Train", X); err != nil {
		var num *errors.NumericalInstabilityError
		if errors.As(err, &num) && num.Column >= 0 && num.Column < len(features) {
			return errors.Wrap(errors.NewValueError("training.Train",
				fmt.Sprintf("feature %q contains missing or non-finite values", features[num.Column])), "training failed")
		}
		return errors.Wrap(err, "training failed")
	}
	for _, v := range y {
		if err := errors.CheckScalar("training.Train", v); err != nil {
			return errors.Wrap(errors.NewValueError("training.Train", "target contains missing or non-finite values"), "training failed")
		}
	}
	return nil
}

func (t *Trainer) evaluate(c Candidate, XTrain, yTrain, XTest, yTest mat.Matrix) (model.Regressor, Evaluation, error) {
	op := c.Name + ".Fit"
	start := time.Now()

	var m model.Regressor
	var pred mat.Matrix
	err := errors.SafeExecute(op, func() error {
		m = c.New()
		if err := m.Fit(XTrain, yTrain); err != nil {
			return err
		}
		p, err := m.Predict(XTest)
		if err != nil {
			return err
		}
		pred = p
		return errors.CheckMatrix(c.Name+".Predict", p)
	})
	if err != nil {
		return nil, Evaluation{}, errors.Wrapf(err, "training candidate %s", c.Name)
	}

	s, err := metrics.Evaluate(yTest, pred)
	if err != nil {
		return nil, Evaluation{}, errors.Wrapf(err, "evaluating candidate %s", c.Name)
	}
	if s.Warning != nil {
		t.logger.Warn("Metric is ill-defined on the test partition",
			log.WarningKey, s.Warning,
			log.ModelNameKey, c.Name,
		)
	}

	ev := Evaluation{Model: c.Name, R2: s.R2, MAE: s.MAE, RMSE: s.RMSE}
	if t.logger.Enabled(context.Background(), log.LevelInfo) {
		t.logger.Info("Model evaluated",
			log.ModelNameKey, c.Name,
			log.R2ScoreKey, ev.R2,
			log.MAEKey, ev.MAE,
			log.RMSEKey, ev.RMSE,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return m, ev, nil
}

// bestIndex picks the highest R², then the lower RMSE, then the earlier candidate.
func bestIndex(evals []Evaluation) int {
	best := 0
	for i := 1; i < len(evals); i++ {
		a, b := evals[i], evals[best]
		if a.R2 > b.R2 || (a.R2 == b.R2 && a.RMSE < b.RMSE) {
			best = i
		}
	}
	return best
}

func rows(X *mat.Dense, y []float64, idx []int) (*mat.Dense, *mat.Dense) {
	_, c := X.Dims()
	Xs := mat.NewDense(len(idx), c, nil)
	ys := mat.NewDense(len(idx), 1, nil)
	for k, i := range idx {
		Xs.SetRow(k, X.RawRowView(i))
		ys.Set(k, 0, y[i])
	}
	return Xs, ys
}
