package tree

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

var _ model.Regressor = (*DecisionTreeRegressor)(nil)

// DecisionTreeRegressor is a CART regression tree using the squared error criterion.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	MaxDepth        int   // 0 => expand until leaves are pure or too small
	MinSamplesSplit int   // minimum samples to attempt a split
	MinSamplesLeaf  int   // minimum samples required in each leaf
	MaxFeatures     int   // 0 => all features, >0 => features sampled per node
	RandomState     int64 // seed for feature subsampling

	// Learned parameters
	Tree      Tree
	NFeatures int
}

// Option is a functional option for DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a fully grown tree by default.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit trains the tree on all rows of X.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	n, _, err := model.ValidateFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.FitSample(Columns(X), model.Column(y), idx)
}

// FitSample trains the tree on the rows listed in idx, which may repeat.
// cols is feature-major as returned by Columns.
func (t *DecisionTreeRegressor) FitSample(cols [][]float64, y []float64, idx []int) error {
	if len(idx) == 0 || len(cols) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.MinSamplesLeaf)
	}
	if t.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", t.MaxDepth)
	}

	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	for i, v := range y {
		grad[i] = -v
		hess[i] = 1
	}

	t.Tree = Grow(cols, grad, hess, idx, GrowParams{
		MaxDepth:        t.MaxDepth,
		MinSamplesSplit: t.MinSamplesSplit,
		MinChildWeight:  float64(t.MinSamplesLeaf),
		MaxFeatures:     t.MaxFeatures,
	}, rand.New(rand.NewSource(t.RandomState)))
	t.NFeatures = len(cols)
	t.SetFitted()
	return nil
}

// Predict returns the leaf mean reached by each row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	r, err := model.ValidatePredictInput("DecisionTreeRegressor.Predict", X, t.NFeatures)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, t.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.Tree.Predict(row))
	}
	return out, nil
}
