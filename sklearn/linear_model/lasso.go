package linear_model

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/linear"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

var (
	_ model.Regressor   = (*Lasso)(nil)
	_ model.LinearModel = (*Lasso)(nil)
)

// Lasso is L1-regularised least squares, compatible with scikit-learn's Lasso.
//
// It minimises (1/(2n))·||y - Xw||² + Alpha·||w||₁ by cyclic coordinate
// descent on centred data. Iteration stops once the largest coefficient
// update is small relative to the largest coefficient and the duality gap
// falls below Tol·||yc||². Otherwise a ConvergenceWarning is logged after
// MaxIter sweeps and the last iterate is kept.
type Lasso struct {
	model.BaseEstimator

	// Hyperparameters
	Alpha        float64
	FitIntercept bool
	MaxIter      int
	Tol          float64

	// Learned parameters
	Coef      []float64
	Intercept float64
	NFeatures int
	NIter     int
	Converged bool
	DualGap   float64

	logger log.Logger
}

// LassoOption is a functional option for Lasso.
type LassoOption func(*Lasso)

// WithLassoAlpha sets the regularisation strength.
func WithLassoAlpha(alpha float64) LassoOption {
	return func(l *Lasso) {
		l.Alpha = alpha
	}
}

// WithLassoFitIntercept sets whether to fit the intercept.
func WithLassoFitIntercept(fit bool) LassoOption {
	return func(l *Lasso) {
		l.FitIntercept = fit
	}
}

// WithLassoMaxIter sets the maximum number of coordinate descent sweeps.
func WithLassoMaxIter(n int) LassoOption {
	return func(l *Lasso) {
		l.MaxIter = n
	}
}

// WithLassoTol sets the convergence tolerance.
func WithLassoTol(tol float64) LassoOption {
	return func(l *Lasso) {
		l.Tol = tol
	}
}

// WithLassoLogger sets the logger that receives convergence warnings.
func WithLassoLogger(logger log.Logger) LassoOption {
	return func(l *Lasso) {
		l.logger = logger
	}
}

// NewLasso creates a Lasso regressor with alpha 1.0, 1000 iterations and tol 1e-4.
func NewLasso(opts ...LassoOption) *Lasso {
	l := &Lasso{Alpha: 1.0, FitIntercept: true, MaxIter: 1000, Tol: 1e-4}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit trains the model.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	n, c, err := model.ValidateFitInput("Lasso.Fit", X, y)
	if err != nil {
		return err
	}
	if l.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.Alpha)
	}
	if l.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", l.MaxIter)
	}

	Xc, xMean := linear.Center(X, l.FitIntercept)
	yc, yMean := linear.CenterVec(y, l.FitIntercept)

	cols := make([][]float64, c)
	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = mat.Col(nil, j, Xc)
		norms[j] = dot(cols[j], cols[j])
	}
	yv := yc.RawVector().Data
	resid := append([]float64(nil), yv...)

	w := make([]float64, c)
	alpha := l.Alpha * float64(n)
	tol := l.Tol * dot(yv, yv)

	l.Converged = false
	l.NIter = 0
	for it := 1; it <= l.MaxIter; it++ {
		l.NIter = it
		var wMax, dwMax float64
		for j := 0; j < c; j++ {
			if norms[j] == 0 {
				continue
			}
			old := w[j]
			if old != 0 {
				axpy(old, cols[j], resid)
			}
			w[j] = errors.SoftThreshold(dot(cols[j], resid), alpha) / norms[j]
			if w[j] != 0 {
				axpy(-w[j], cols[j], resid)
			}
			dwMax = math.Max(dwMax, math.Abs(w[j]-old))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}
		if wMax == 0 || dwMax/wMax < l.Tol || it == l.MaxIter {
			l.DualGap = dualGap(cols, resid, yv, w, alpha)
			if l.DualGap <= tol {
				l.Converged = true
				break
			}
		}
	}
	if err := errors.CheckScalar("Lasso.Fit", l.DualGap); err != nil {
		return err
	}

	if !l.Converged {
		l.warn(errors.NewConvergenceWarning("Lasso", l.NIter,
			"objective did not converge; the duality gap is above the tolerance"))
	}

	l.Coef = w
	l.Intercept = 0
	if l.FitIntercept {
		l.Intercept = yMean - dot(xMean, w)
	}
	l.NFeatures = c
	l.SetFitted()
	return nil
}

func (l *Lasso) warn(w *errors.ConvergenceWarning) {
	if l.logger == nil || !l.logger.Enabled(context.Background(), log.LevelWarn) {
		return
	}
	l.logger.Warn("Lasso did not converge",
		log.WarningKey, w,
		log.ModelNameKey, "Lasso",
		log.IterationKey, w.Iterations,
	)
}

// dualGap follows the gap computed by scikit-learn's enet_coordinate_descent
// with no L2 term.
func dualGap(cols [][]float64, resid, y, w []float64, alpha float64) float64 {
	var dualNorm float64
	for j := range cols {
		dualNorm = math.Max(dualNorm, math.Abs(dot(cols[j], resid)))
	}
	rNorm2 := dot(resid, resid)
	var gap, k float64
	if dualNorm > alpha {
		k = alpha / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*k*k)
	} else {
		k = 1
		gap = rNorm2
	}
	var l1 float64
	for _, v := range w {
		l1 += math.Abs(v)
	}
	return gap + alpha*l1 - k*dot(resid, y)
}

// Predict returns X·w + b as an n×1 matrix.
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Lasso", "Predict")
	}
	return linear.PredictLinear("Lasso.Predict", X, l.Coef, l.Intercept)
}

// GetWeights returns a copy of the coefficients.
func (l *Lasso) GetWeights() []float64 { return append([]float64(nil), l.Coef...) }

// GetIntercept returns the intercept.
func (l *Lasso) GetIntercept() float64 { return l.Intercept }

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// axpy computes y += a·x in place.
func axpy(a float64, x, y []float64) {
	for i := range x {
		y[i] += a * x[i]
	}
}
