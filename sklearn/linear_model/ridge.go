package linear_model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/linear"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

var (
	_ model.Regressor   = (*Ridge)(nil)
	_ model.LinearModel = (*Ridge)(nil)
)

// Ridge is L2-regularised least squares, compatible with scikit-learn's Ridge.
//
// It minimises ||y - Xw||² + Alpha·||w||². The intercept is not penalised:
// X and y are centred first and the closed-form normal equations
// (XcᵀXc + Alpha·I) w = Xcᵀyc are solved by Cholesky factorisation.
type Ridge struct {
	model.BaseEstimator

	// Hyperparameters
	Alpha        float64
	FitIntercept bool

	// Learned parameters
	Coef      []float64
	Intercept float64
	NFeatures int
}

// RidgeOption is a functional option for Ridge.
type RidgeOption func(*Ridge)

// WithRidgeAlpha sets the regularisation strength.
func WithRidgeAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) {
		r.Alpha = alpha
	}
}

// WithRidgeFitIntercept sets whether to fit the intercept.
func WithRidgeFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) {
		r.FitIntercept = fit
	}
}

// NewRidge creates a Ridge regressor with alpha 1.0.
func NewRidge(opts ...RidgeOption) *Ridge {
	r := &Ridge{Alpha: 1.0, FitIntercept: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit trains the model.
func (r *Ridge) Fit(X, y mat.Matrix) error {
	_, c, err := model.ValidateFitInput("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	if r.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}

	Xc, xMean := linear.Center(X, r.FitIntercept)
	yc, yMean := linear.CenterVec(y, r.FitIntercept)

	// A = XcᵀXc + αI
	A := mat.NewSymDense(c, nil)
	A.SymOuterK(1, Xc.T())
	for j := 0; j < c; j++ {
		A.SetSym(j, j, A.At(j, j)+r.Alpha)
	}
	var b mat.VecDense
	b.MulVec(Xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(A); !ok {
		return errors.NewModelError("Ridge.Fit", "normal equations are not positive definite", errors.ErrSingularMatrix)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &b); err != nil {
		return errors.NewModelError("Ridge.Fit", "cholesky solve failed", err)
	}

	r.Coef = make([]float64, c)
	for j := range r.Coef {
		r.Coef[j] = w.AtVec(j)
	}
	r.Intercept = 0
	if r.FitIntercept {
		r.Intercept = yMean
		for j, m := range xMean {
			r.Intercept -= m * r.Coef[j]
		}
	}
	r.NFeatures = c
	r.SetFitted()
	return nil
}

// Predict returns X·w + b as an n×1 matrix.
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}
	return linear.PredictLinear("Ridge.Predict", X, r.Coef, r.Intercept)
}

// GetWeights returns a copy of the coefficients.
func (r *Ridge) GetWeights() []float64 { return append([]float64(nil), r.Coef...) }

// GetIntercept returns the intercept.
func (r *Ridge) GetIntercept() float64 { return r.Intercept }
