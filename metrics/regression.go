// Package metrics は回帰モデルの評価指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Scores はホールドアウト集合での評価結果
type Scores struct {
	R2   float64
	MAE  float64
	MSE  float64
	RMSE float64

	// Warning はR²が定義できず置き換えられた場合に設定される
	Warning *errors.UndefinedMetricWarning
}

// Evaluate は n×1 の正解と予測から全指標を計算する
func Evaluate(yTrue, yPred mat.Matrix) (Scores, error) {
	t, p, err := vectors("Evaluate", yTrue, yPred)
	if err != nil {
		return Scores{}, err
	}
	var s Scores
	if s.MSE, err = MSE(t, p); err != nil {
		return Scores{}, err
	}
	s.RMSE = math.Sqrt(s.MSE)
	if s.MAE, err = MAE(t, p); err != nil {
		return Scores{}, err
	}
	if s.R2, s.Warning, err = r2(t, p); err != nil {
		return Scores{}, err
	}
	return s, nil
}

// vectors は n×1 の行列2つをベクトルに変換する
func vectors(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	t := mat.NewVecDense(rTrue, nil)
	p := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		t.SetVec(i, yTrue.At(i, 0))
		p.SetVec(i, yPred.At(i, 0))
	}
	return t, p, nil
}

func check(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := check("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := check("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// yTrueの全変動が0の場合、予測が完全に一致すれば1.0、そうでなければ0.0を返す。
// このときの警告が必要な場合はEvaluateを使う。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	score, _, err := r2(yTrue, yPred)
	return score, err
}

func r2(yTrue, yPred *mat.VecDense) (float64, *errors.UndefinedMetricWarning, error) {
	n, err := check("R2Score", yTrue, yPred)
	if err != nil {
		return 0, nil, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		yp := yPred.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += (yt - yp) * (yt - yp)
	}

	if tss == 0 {
		score := 0.0
		if rss == 0 {
			score = 1.0
		}
		return score, errors.NewUndefinedMetricWarning("r2_score", "constant y_true (zero total sum of squares)", score), nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil, nil
}
