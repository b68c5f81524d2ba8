// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

var _ model.Regressor = (*RandomForestRegressor)(nil)

// RandomForestRegressor averages squared-error trees fitted on bootstrap
// samples of the training rows.
//
// Every source of randomness derives from RandomState, so two fits on the
// same data produce identical forests.
type RandomForestRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	NEstimators    int
	MaxDepth       int // 0 => fully grown trees
	MinSamplesLeaf int
	MaxFeatures    int // 0 => all features at every split
	Bootstrap      bool
	RandomState    int64

	// Learned parameters
	Estimators []*tree.DecisionTreeRegressor
	NFeatures  int
}

// Option is a functional option for RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithMaxDepth limits the depth of every tree.
func WithMaxDepth(d int) Option {
	return func(f *RandomForestRegressor) { f.MaxDepth = d }
}

// WithMinSamplesLeaf sets the minimum leaf size of every tree.
func WithMinSamplesLeaf(n int) Option {
	return func(f *RandomForestRegressor) { f.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many features each split considers.
func WithMaxFeatures(k int) Option {
	return func(f *RandomForestRegressor) { f.MaxFeatures = k }
}

// WithBootstrap toggles sampling rows with replacement.
func WithBootstrap(b bool) Option {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

// WithRandomState sets the seed.
func WithRandomState(s int64) Option {
	return func(f *RandomForestRegressor) { f.RandomState = s }
}

// NewRandomForestRegressor returns a forest of 100 bootstrapped trees seeded with 42.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		NEstimators:    100,
		MinSamplesLeaf: 1,
		Bootstrap:      true,
		RandomState:    42,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit trains NEstimators trees in sequence.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	n, c, err := model.ValidateFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if f.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", f.NEstimators)
	}

	cols := tree.Columns(X)
	target := model.Column(y)
	rng := rand.New(rand.NewSource(f.RandomState))

	f.Estimators = make([]*tree.DecisionTreeRegressor, f.NEstimators)
	for k := range f.Estimators {
		est := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(f.MaxDepth),
			tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
			tree.WithMaxFeatures(f.MaxFeatures),
			tree.WithRandomState(rng.Int63()),
		)
		if err := est.FitSample(cols, target, f.sample(rng, n)); err != nil {
			return errors.Wrapf(err, "fitting tree %d", k)
		}
		f.Estimators[k] = est
	}
	f.NFeatures = c
	f.SetFitted()
	return nil
}

// sample draws n row indices with replacement, or returns every row when
// bootstrapping is off.
func (f *RandomForestRegressor) sample(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		if f.Bootstrap {
			idx[i] = rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

// Predict returns the mean prediction of the trees.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, err := model.ValidatePredictInput("RandomForestRegressor.Predict", X, f.NFeatures)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, f.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		var s float64
		for _, est := range f.Estimators {
			s += est.Tree.Predict(row)
		}
		out.Set(i, 0, s/float64(len(f.Estimators)))
	}
	return out, nil
}
