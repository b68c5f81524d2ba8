package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

var (
	_ model.Regressor   = (*LinearRegression)(nil)
	_ model.LinearModel = (*LinearRegression)(nil)
)

// LinearRegression は最小二乗法による線形回帰モデル
//
// 中心化したデータに対して特異値分解で最小ノルム解を求めるため、
// 定数列や共線性のある列を含んでいても学習できる。
type LinearRegression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み

	FitIntercept bool    // 切片を学習するか
	Rcond        float64 // 特異値の打ち切り閾値（最大特異値に対する比）

	Weights   []float64 // 重み（係数）
	Intercept float64   // 切片
	NFeatures int       // 特徴量の数
	Rank      int       // 中心化した計画行列の数値ランク
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{FitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
//
// 切片ありの場合は X と y を列平均で中心化し、Xc w = yc の最小二乗解を
// SVDで解いたのち intercept = ȳ - x̄ᵀw とする。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c, err := model.ValidateFitInput("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, xMean := Center(X, lr.FitIntercept)
	yc, yMean := CenterVec(y, lr.FitIntercept)

	w, rank, err := lstsq(Xc, yc, lr.rcond(r, c))
	if err != nil {
		return errors.NewModelError("LinearRegression.Fit", "least squares failed", err)
	}

	lr.NFeatures = c
	lr.Rank = rank
	lr.Weights = w
	lr.Intercept = 0
	if lr.FitIntercept {
		lr.Intercept = yMean - dot(xMean, w)
	}
	lr.SetFitted()
	return nil
}

// rcond defaults to machine epsilon times the larger dimension, as LAPACK gelsd does.
func (lr *LinearRegression) rcond(r, c int) float64 {
	if lr.Rcond > 0 {
		return lr.Rcond
	}
	eps := math.Nextafter(1, 2) - 1
	return eps * float64(max(r, c))
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	return PredictLinear("LinearRegression.Predict", X, lr.Weights, lr.Intercept)
}

// GetWeights は学習された重み（係数）のコピーを返す
func (lr *LinearRegression) GetWeights() []float64 {
	return append([]float64(nil), lr.Weights...)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// lstsq は A w = b の最小ノルム最小二乗解を返す
func lstsq(A *mat.Dense, b *mat.VecDense, rcond float64) ([]float64, int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, 0, errors.ErrSingularMatrix
	}
	rank := svd.Rank(rcond)
	_, c := A.Dims()
	if rank == 0 {
		return make([]float64, c), 0, nil
	}
	var w mat.VecDense
	svd.SolveVecTo(&w, b, rank)
	out := make([]float64, c)
	for j := range out {
		out[j] = w.AtVec(j)
	}
	return out, rank, nil
}
