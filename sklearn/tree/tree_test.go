package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// stepData: y = 0 for x <= 4, y = 10 for x > 4
func stepData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 10, 10, 10, 10})
	return X, y
}

func TestDecisionTreeRegressor_StepFunction(t *testing.T) {
	X, y := stepData()
	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	root := dt.Tree.Nodes[0]
	if root.IsLeaf() {
		t.Fatal("root should split")
	}
	if root.Threshold != 4.5 {
		t.Errorf("threshold = %v, want 4.5", root.Threshold)
	}
	if got := dt.Tree.NumLeaves(); got != 2 {
		t.Errorf("expected 2 pure leaves, got %d", got)
	}

	XTest := mat.NewDense(3, 1, []float64{0, 4.4, 100})
	pred, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for i, want := range []float64{0, 0, 10} {
		if pred.At(i, 0) != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, pred.At(i, 0))
		}
	}
}

func TestDecisionTreeRegressor_Options(t *testing.T) {
	// y = x², fully grown tree memorises the training data
	n := 32
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}

	tests := []struct {
		name      string
		opts      []Option
		maxDepth  int
		minLeaf   int
		memorises bool
	}{
		{"unlimited", nil, 0, 1, true},
		{"max depth 2", []Option{WithMaxDepth(2)}, 2, 1, false},
		{"min samples leaf 5", []Option{WithMinSamplesLeaf(5)}, 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeRegressor(tt.opts...)
			if err := dt.Fit(X, y); err != nil {
				t.Fatal(err)
			}
			if tt.maxDepth > 0 && dt.Tree.Depth() > tt.maxDepth {
				t.Errorf("depth %d exceeds %d", dt.Tree.Depth(), tt.maxDepth)
			}
			for _, node := range dt.Tree.Nodes {
				if node.IsLeaf() && node.LeafCount < tt.minLeaf {
					t.Errorf("leaf %d has %d samples, want >= %d", node.NodeID, node.LeafCount, tt.minLeaf)
				}
			}
			pred, err := dt.Predict(X)
			if err != nil {
				t.Fatal(err)
			}
			exact := true
			for i := 0; i < n; i++ {
				if pred.At(i, 0) != y.At(i, 0) {
					exact = false
				}
			}
			if exact != tt.memorises {
				t.Errorf("memorises = %v, want %v", exact, tt.memorises)
			}
		})
	}
}

func TestDecisionTreeRegressor_ConstantTarget(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 5, 2, 6, 3, 7, 4, 8})
	y := mat.NewDense(4, 1, []float64{3, 3, 3, 3})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(dt.Tree.Nodes) != 1 {
		t.Errorf("constant target should give a single leaf, got %d nodes", len(dt.Tree.Nodes))
	}
	if dt.Tree.Nodes[0].LeafValue != 3 {
		t.Errorf("leaf value = %v, want 3", dt.Tree.Nodes[0].LeafValue)
	}
}

func TestGrow_LeafWeightAndDuplicates(t *testing.T) {
	cols := [][]float64{{1, 2, 3}}
	grad := []float64{-1, -2, -3}
	hess := []float64{1, 1, 1}

	// single leaf: -G/(H+λ) · shrinkage
	tr := Grow(cols, grad, hess, []int{0, 1, 2}, GrowParams{MaxDepth: 1, MinSamplesSplit: 10, Lambda: 1, Shrinkage: 0.5}, nil)
	if len(tr.Nodes) != 1 {
		t.Fatalf("expected a single leaf, got %d nodes", len(tr.Nodes))
	}
	want := 6.0 / 4.0 * 0.5
	if math.Abs(tr.Nodes[0].LeafValue-want) > 1e-12 {
		t.Errorf("leaf value = %v, want %v", tr.Nodes[0].LeafValue, want)
	}

	// duplicated index counts twice
	tr = Grow(cols, grad, hess, []int{2, 2, 0}, GrowParams{MinSamplesSplit: 10}, nil)
	if tr.Nodes[0].LeafCount != 3 {
		t.Errorf("LeafCount = %d, want 3", tr.Nodes[0].LeafCount)
	}
	if math.Abs(tr.Nodes[0].LeafValue-7.0/3.0) > 1e-12 {
		t.Errorf("leaf value = %v, want %v", tr.Nodes[0].LeafValue, 7.0/3.0)
	}
}

func TestGrow_MaxFeaturesDeterministic(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		1, 9, 0,
		2, 8, 1,
		3, 7, 0,
		4, 6, 1,
		5, 5, 0,
		6, 4, 1,
	})
	y := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})

	fit := func() Tree {
		dt := NewDecisionTreeRegressor(WithMaxFeatures(1), WithRandomState(7))
		if err := dt.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		return dt.Tree
	}
	a, b := fit(), fit()
	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("node count differs: %d vs %d", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Errorf("node %d differs: %+v vs %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
}

func TestDecisionTreeRegressor_Errors(t *testing.T) {
	dt := NewDecisionTreeRegressor()

	var nf *errors.NotFittedError
	if _, err := dt.Predict(mat.NewDense(1, 1, []float64{1})); !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	X, y := stepData()
	if err := NewDecisionTreeRegressor(WithMinSamplesLeaf(0)).Fit(X, y); err == nil {
		t.Error("min_samples_leaf 0 should be rejected")
	}

	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	var dim *errors.DimensionError
	if _, err := dt.Predict(mat.NewDense(1, 2, []float64{1, 2})); !errors.As(err, &dim) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}
