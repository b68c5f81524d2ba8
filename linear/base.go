package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Center は X の各列から列平均を引いた行列と列平均を返す
// center が false の場合はコピーとゼロ平均を返す
func Center(X mat.Matrix, center bool) (*mat.Dense, []float64) {
	r, c := X.Dims()
	out := mat.DenseCopyOf(X)
	mean := make([]float64, c)
	if !center || r == 0 {
		return out, mean
	}
	for j := 0; j < c; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += out.At(i, j)
		}
		mean[j] = s / float64(r)
		for i := 0; i < r; i++ {
			out.Set(i, j, out.At(i, j)-mean[j])
		}
	}
	return out, mean
}

// CenterVec は列ベクトル y を中心化したベクトルと平均を返す
func CenterVec(y mat.Matrix, center bool) (*mat.VecDense, float64) {
	r, _ := y.Dims()
	out := mat.NewVecDense(r, nil)
	var mean float64
	for i := 0; i < r; i++ {
		out.SetVec(i, y.At(i, 0))
		mean += y.At(i, 0)
	}
	if !center || r == 0 {
		return out, 0
	}
	mean /= float64(r)
	for i := 0; i < r; i++ {
		out.SetVec(i, out.AtVec(i)-mean)
	}
	return out, mean
}

// PredictLinear は y = X w + b を n×1 の行列で返す
func PredictLinear(op string, X mat.Matrix, w []float64, b float64) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != len(w) {
		return nil, errors.NewDimensionError(op, len(w), c, 1)
	}
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := b
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * w[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
