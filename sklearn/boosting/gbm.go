// Package boosting provides a second-order gradient boosted tree regressor.
package boosting

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

var _ model.Regressor = (*GradientBoostingRegressor)(nil)

// GradientBoostingRegressor fits additive trees to the squared error loss
// using gradients g = ŷ - y and hessians h = 1.
//
// Leaf weights are -G/(H+Lambda) shrunk by LearningRate and a split is
// accepted when ½[GL²/(HL+λ) + GR²/(HR+λ) - G²/(H+λ)] exceeds Gamma. The
// initial prediction is the mean of y.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	Lambda          float64 // L2 regularisation on leaf weights
	Gamma           float64 // minimum split gain
	MinChildWeight  float64
	Subsample       float64 // row fraction sampled per round, 1 => all rows
	ColsampleByNode float64 // feature fraction sampled at each split, 1 => all features
	RandomState     int64

	// Learned parameters
	BaseScore float64
	Trees     []tree.Tree
	NFeatures int
}

// Option is a functional option for GradientBoostingRegressor.
type Option func(*GradientBoostingRegressor)

// WithNEstimators sets the number of boosting rounds.
func WithNEstimators(n int) Option { return func(g *GradientBoostingRegressor) { g.NEstimators = n } }

// WithLearningRate sets the shrinkage applied to each tree.
func WithLearningRate(eta float64) Option {
	return func(g *GradientBoostingRegressor) { g.LearningRate = eta }
}

// WithMaxDepth sets the depth of each tree.
func WithMaxDepth(d int) Option { return func(g *GradientBoostingRegressor) { g.MaxDepth = d } }

// WithLambda sets the L2 penalty on leaf weights.
func WithLambda(l float64) Option { return func(g *GradientBoostingRegressor) { g.Lambda = l } }

// WithGamma sets the minimum gain to split.
func WithGamma(v float64) Option { return func(g *GradientBoostingRegressor) { g.Gamma = v } }

// WithMinChildWeight sets the minimum hessian sum in a child.
func WithMinChildWeight(w float64) Option {
	return func(g *GradientBoostingRegressor) { g.MinChildWeight = w }
}

// WithSubsample sets the row sampling fraction.
func WithSubsample(r float64) Option { return func(g *GradientBoostingRegressor) { g.Subsample = r } }

// WithColsampleByNode sets the feature sampling fraction.
func WithColsampleByNode(r float64) Option {
	return func(g *GradientBoostingRegressor) { g.ColsampleByNode = r }
}

// WithRandomState sets the seed.
func WithRandomState(s int64) Option { return func(g *GradientBoostingRegressor) { g.RandomState = s } }

// NewGradientBoostingRegressor returns 100 rounds of depth-6 trees with
// learning rate 0.3 and lambda 1.
func NewGradientBoostingRegressor(opts ...Option) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		NEstimators:     100,
		LearningRate:    0.3,
		MaxDepth:        6,
		Lambda:          1,
		MinChildWeight:  1,
		Subsample:       1,
		ColsampleByNode: 1,
		RandomState:     42,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoostingRegressor) validate() error {
	switch {
	case g.NEstimators <= 0:
		return errors.NewValidationError("n_estimators", "must be positive", g.NEstimators)
	case g.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", g.LearningRate)
	case g.MaxDepth < 0:
		return errors.NewValidationError("max_depth", "must be non-negative", g.MaxDepth)
	case g.Lambda < 0:
		return errors.NewValidationError("lambda", "must be non-negative", g.Lambda)
	case g.Subsample <= 0 || g.Subsample > 1:
		return errors.NewValidationError("subsample", "must be in (0, 1]", g.Subsample)
	case g.ColsampleByNode <= 0 || g.ColsampleByNode > 1:
		return errors.NewValidationError("colsample_bynode", "must be in (0, 1]", g.ColsampleByNode)
	}
	return nil
}

// Fit trains the ensemble.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	n, c, err := model.ValidateFitInput("GradientBoostingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := g.validate(); err != nil {
		return err
	}

	cols := tree.Columns(X)
	target := model.Column(y)
	rng := rand.New(rand.NewSource(g.RandomState))

	var base float64
	for _, v := range target {
		base += v
	}
	base /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	grad := make([]float64, n)
	hess := make([]float64, n)

	params := tree.GrowParams{
		MaxDepth:        g.MaxDepth,
		MinSamplesSplit: 2,
		MinChildWeight:  g.MinChildWeight,
		Lambda:          g.Lambda,
		MinGain:         g.Gamma,
		Shrinkage:       g.LearningRate,
	}
	if g.ColsampleByNode < 1 {
		params.MaxFeatures = max(1, int(g.ColsampleByNode*float64(c)))
	}

	g.Trees = make([]tree.Tree, 0, g.NEstimators)
	row := make([]float64, c)
	for round := 0; round < g.NEstimators; round++ {
		// Calculate gradients and hessians
		for i := range grad {
			grad[i] = pred[i] - target[i]
			hess[i] = 1
		}
		t := tree.Grow(cols, grad, hess, g.rows(rng, n), params, rng)
		g.Trees = append(g.Trees, t)

		// Update predictions
		for i := range pred {
			for j := range row {
				row[j] = cols[j][i]
			}
			pred[i] += t.Predict(row)
		}
	}

	for _, p := range pred {
		if err := errors.CheckScalar("GradientBoostingRegressor.Fit", p); err != nil {
			return err
		}
	}
	g.BaseScore = base
	g.NFeatures = c
	g.SetFitted()
	return nil
}

// rows returns the sample for one round.
func (g *GradientBoostingRegressor) rows(rng *rand.Rand, n int) []int {
	if g.Subsample >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := max(1, int(g.Subsample*float64(n)))
	return rng.Perm(n)[:k]
}

// Predict returns BaseScore plus the sum of the tree outputs for each row.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}
	r, err := model.ValidatePredictInput("GradientBoostingRegressor.Predict", X, g.NFeatures)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, g.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		s := g.BaseScore
		for k := range g.Trees {
			s += g.Trees[k].Predict(row)
		}
		out.Set(i, 0, s)
	}
	return out, nil
}
