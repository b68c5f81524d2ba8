package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func TestLinearRegression_Basic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if math.Abs(lr.Weights[0]-2) > 1e-9 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.Weights[0])
	}
	if math.Abs(lr.Intercept-1) > 1e-9 {
		t.Errorf("Expected intercept 1.0, got %f", lr.Intercept)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for i, want := range []float64{11, 13} {
		if math.Abs(pred.At(i, 0)-want) > 1e-9 {
			t.Errorf("Expected prediction %f, got %f", want, pred.At(i, 0))
		}
	}
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if math.Abs(lr.Weights[0]-2) > 1e-9 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.Weights[0])
	}
	if lr.Intercept != 0 {
		t.Errorf("Expected intercept 0, got %f", lr.Intercept)
	}
}

func TestLinearRegression_MultipleFeatures(t *testing.T) {
	// y = 2*x1 + 3*x2 + 1
	X := mat.NewDense(5, 2, []float64{
		1, 1,
		2, 1,
		3, 2,
		4, 2,
		5, 3,
	})
	y := mat.NewDense(5, 1, []float64{6, 8, 13, 15, 20})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	want := []float64{2, 3}
	for j, w := range lr.GetWeights() {
		if math.Abs(w-want[j]) > 1e-8 {
			t.Errorf("coefficient %d: expected %f, got %f", j, want[j], w)
		}
	}
	if math.Abs(lr.GetIntercept()-1) > 1e-8 {
		t.Errorf("Expected intercept 1.0, got %f", lr.GetIntercept())
	}
	if lr.Rank != 2 {
		t.Errorf("Expected rank 2, got %d", lr.Rank)
	}
}

// 定数列（標準化後はすべて0）を含んでも失敗せず、その係数は0になる
func TestLinearRegression_ConstantColumn(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1, 0,
		2, 0,
		3, 0,
		4, 0,
		5, 0,
	})
	y := mat.NewDense(5, 1, []float64{15, 20, 25, 30, 35})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if lr.Rank != 1 {
		t.Errorf("Expected rank 1, got %d", lr.Rank)
	}
	if math.Abs(lr.Weights[0]-5) > 1e-9 || math.Abs(lr.Weights[1]) > 1e-12 {
		t.Errorf("unexpected weights %v", lr.Weights)
	}
	if math.Abs(lr.Intercept-10) > 1e-9 {
		t.Errorf("Expected intercept 10, got %f", lr.Intercept)
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()

	if _, err := lr.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Predict before Fit should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %T", err)
		}
	}

	err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}

	if err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})); err != nil {
		t.Fatal(err)
	}
	if _, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 2})); !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError for wrong feature count, got %v", err)
	}
}
