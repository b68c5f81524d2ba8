package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSEAndRMSE(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    *mat.VecDense
		yPred    *mat.VecDense
		wantMSE  float64
		wantRMSE float64
		wantErr  bool
	}{
		{
			name:     "perfect prediction",
			yTrue:    mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred:    mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			wantMSE:  0,
			wantRMSE: 0,
		},
		{
			name:     "simple case",
			yTrue:    mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:    mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			wantMSE:  0.25, // 4 × 0.5² / 4
			wantRMSE: 0.5,
		},
		{
			name:     "larger errors",
			yTrue:    mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred:    mat.NewVecDense(3, []float64{12, 18, 33}),
			wantMSE:  17.0 / 3.0, // (4 + 4 + 9) / 3
			wantRMSE: math.Sqrt(17.0 / 3.0),
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mse, err := MSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			rmse, _ := RMSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				return
			}
			if math.Abs(mse-tt.wantMSE) > 1e-10 {
				t.Errorf("MSE() = %v, want %v", mse, tt.wantMSE)
			}
			if math.Abs(rmse-tt.wantRMSE) > 1e-10 {
				t.Errorf("RMSE() = %v, want %v", rmse, tt.wantRMSE)
			}
		})
	}
}

func TestMAE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred: mat.NewVecDense(3, []float64{1, 2, 3}),
			want:  0,
		},
		{
			name:  "with negative differences",
			yTrue: mat.NewVecDense(4, []float64{10, 20, 30, 40}),
			yPred: mat.NewVecDense(4, []float64{12, 17, 30, 41}),
			want:  1.5, // (2 + 3 + 0 + 1) / 4
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(2, []float64{1, 2}),
			yPred:   mat.NewVecDense(1, []float64{1}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MAE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MAE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("MAE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:  1.0,
		},
		{
			name:  "mean prediction",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5}),
			want:  0.0,
		},
		{
			name:  "worse than mean baseline",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{4, 3, 2, 1}),
			want:  -3.0, // 1 - 20/5
		},
		{
			name:  "constant yTrue predicted exactly",
			yTrue: mat.NewVecDense(3, []float64{3, 3, 3}),
			yPred: mat.NewVecDense(3, []float64{3, 3, 3}),
			want:  1.0,
		},
		{
			name:  "constant yTrue predicted with error",
			yTrue: mat.NewVecDense(5, []float64{3, 3, 3, 3, 3}),
			yPred: mat.NewVecDense(5, []float64{2, 3, 4, 3, 3}),
			want:  0.0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5})

	s, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if s.MSE != 0.25 || s.RMSE != 0.5 || s.MAE != 0.5 {
		t.Errorf("unexpected scores %+v", s)
	}
	if math.Abs(s.R2-0.8) > 1e-12 {
		t.Errorf("R2 = %v, want 0.8", s.R2)
	}
	if s.Warning != nil {
		t.Errorf("unexpected warning %v", s.Warning)
	}

	s, err = Evaluate(mat.NewDense(2, 1, []float64{7, 7}), mat.NewDense(2, 1, []float64{6, 8}))
	if err != nil {
		t.Fatal(err)
	}
	if s.R2 != 0 || s.Warning == nil {
		t.Errorf("constant target: R2 = %v, warning = %v", s.R2, s.Warning)
	}
	if s.Warning.Result != 0 {
		t.Errorf("warning result = %v, want 0", s.Warning.Result)
	}

	if _, err := Evaluate(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil)); err == nil {
		t.Error("multi-column input should fail")
	}
}

func BenchmarkEvaluate(b *testing.B) {
	size := 10000
	yTrue := mat.NewDense(size, 1, nil)
	yPred := mat.NewDense(size, 1, nil)
	for i := 0; i < size; i++ {
		yTrue.Set(i, 0, float64(i))
		yPred.Set(i, 0, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Evaluate(yTrue, yPred)
	}
}
