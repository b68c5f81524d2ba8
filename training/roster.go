package training

import (
	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/linear"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/sklearn/boosting"
	"github.com/YuminosukeSato/examscore/sklearn/ensemble"
	"github.com/YuminosukeSato/examscore/sklearn/linear_model"
)

// Candidate is one entry of the model roster. New returns an unfitted regressor.
type Candidate struct {
	Name string
	New  func() model.Regressor
}

// Roster names, in evaluation order.
const (
	Linear           = "Linear"
	Ridge            = "Ridge"
	Lasso            = "Lasso"
	RandomForest     = "RandomForest"
	GradientBoosting = "GradientBoosting"
)

// DefaultRoster returns the five candidates in their fixed order. Lasso
// convergence warnings go to logger.
func DefaultRoster(seed int64, logger log.Logger) []Candidate {
	return []Candidate{
		{Linear, func() model.Regressor {
			return linear.NewLinearRegression()
		}},
		{Ridge, func() model.Regressor {
			return linear_model.NewRidge(linear_model.WithRidgeAlpha(1))
		}},
		{Lasso, func() model.Regressor {
			return linear_model.NewLasso(linear_model.WithLassoAlpha(1), linear_model.WithLassoLogger(logger))
		}},
		{RandomForest, func() model.Regressor {
			return ensemble.NewRandomForestRegressor(
				ensemble.WithNEstimators(100),
				ensemble.WithRandomState(seed),
			)
		}},
		{GradientBoosting, func() model.Regressor {
			return boosting.NewGradientBoostingRegressor(
				boosting.WithNEstimators(100),
				boosting.WithLearningRate(0.3),
				boosting.WithMaxDepth(6),
				boosting.WithLambda(1),
				boosting.WithRandomState(seed),
			)
		}},
	}
}
