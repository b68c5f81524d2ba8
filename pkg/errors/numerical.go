package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// NumericalInstabilityError reports NaN or Inf values found where finite numbers are required.
type NumericalInstabilityError struct {
	Operation string    // where the check ran, e.g. "Trainer.features"
	Column    int       // first offending column, -1 if not applicable
	Values    []float64 // offending values (at most 10)
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	if e.Column >= 0 {
		return fmt.Sprintf("examscore: non-finite values detected in %s (column %d). Values: [%s]",
			e.Operation, e.Column, valStr)
	}
	return fmt.Sprintf("examscore: non-finite values detected in %s. Values: [%s]", e.Operation, valStr)
}

// CheckScalar checks a single scalar value for NaN or Inf.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.WithStack(&NumericalInstabilityError{Operation: operation, Column: -1, Values: []float64{value}})
	}
	return nil
}

// CheckMatrix checks all values in a matrix for NaN or Inf and reports the first offending column.
func CheckMatrix(operation string, matrix interface {
	At(int, int) float64
	Dims() (int, int)
}) error {
	rows, cols := matrix.Dims()
	for j := 0; j < cols; j++ {
		var unstable []float64
		for i := 0; i < rows; i++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				unstable = append(unstable, v)
				if len(unstable) >= 10 {
					break
				}
			}
		}
		if len(unstable) > 0 {
			return errors.WithStack(&NumericalInstabilityError{Operation: operation, Column: j, Values: unstable})
		}
	}
	return nil
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SoftThreshold applies the soft-thresholding operator used by L1 coordinate descent.
func SoftThreshold(value, threshold float64) float64 {
	switch {
	case value > threshold:
		return value - threshold
	case value < -threshold:
		return value + threshold
	default:
		return 0
	}
}
