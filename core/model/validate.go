package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// ValidateFitInput はFitに渡された X と y の形状を検証し、サンプル数と特徴量数を返す
//
// 空のデータは ErrEmptyData を包んだ ModelError、行数の不一致は DimensionError、
// y が列ベクトルでない場合は ValueError になる。
func ValidateFitInput(op string, X, y mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	ry, cy := y.Dims()
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return r, c, nil
}

// ValidatePredictInput は予測時の特徴量数が学習時と一致するか検証する
func ValidatePredictInput(op string, X mat.Matrix, nFeatures int) (int, error) {
	r, c := X.Dims()
	if c != nFeatures {
		return 0, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return r, nil
}

// Column は y の先頭列をスライスとして返す
func Column(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = y.At(i, 0)
	}
	return out
}
