package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/linear"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/preprocessing"
	"github.com/YuminosukeSato/examscore/sklearn/boosting"
	"github.com/YuminosukeSato/examscore/sklearn/ensemble"
	"github.com/YuminosukeSato/examscore/sklearn/linear_model"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	n := 30
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a, b := float64(i), float64((i*7)%11)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 10+2*a-b)
	}
	return X, y
}

func fitted(t *testing.T, m model.Regressor) (*Artifact, *mat.Dense) {
	t.Helper()
	X, y := trainingData()
	scaler := preprocessing.NewStandardScaler()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)
	require.NoError(t, m.Fit(Xs, y))
	return &Artifact{
		Metadata: Metadata{
			RunID:        "run-1",
			ModelName:    "Linear",
			FeatureNames: []string{"a", "b"},
			Evaluations:  []Evaluation{{Model: "Linear", R2: 1, MAE: 0, RMSE: 0}},
			TrainedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Model:  m,
		Scaler: scaler,
	}, X
}

func TestFileStore_RoundTripAllModels(t *testing.T) {
	models := map[string]model.Regressor{
		"Linear":           linear.NewLinearRegression(),
		"Ridge":            linear_model.NewRidge(),
		"Lasso":            linear_model.NewLasso(),
		"RandomForest":     ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(5)),
		"GradientBoosting": boosting.NewGradientBoostingRegressor(boosting.WithNEstimators(10)),
	}

	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			a, X := fitted(t, m)
			store := NewFileStore(t.TempDir(), nil)
			require.NoError(t, store.Save(a))
			assert.True(t, store.Exists())

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, a.Metadata.RunID, loaded.Metadata.RunID)
			assert.Equal(t, FormatVersion, loaded.Metadata.FormatVersion)
			assert.Equal(t, a.Metadata.FeatureNames, loaded.Metadata.FeatureNames)
			assert.True(t, a.Metadata.TrainedAt.Equal(loaded.Metadata.TrainedAt))
			assert.IsType(t, m, loaded.Model)

			want, err := a.Scaler.Transform(X)
			require.NoError(t, err)
			got, err := loaded.Scaler.Transform(X)
			require.NoError(t, err)
			assert.True(t, mat.Equal(want, got))

			pw, err := a.Model.Predict(want)
			require.NoError(t, err)
			pg, err := loaded.Model.Predict(got)
			require.NoError(t, err)
			assert.True(t, mat.Equal(pw, pg), "predictions survive persistence")
		})
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nothing-here"), nil)
	assert.False(t, store.Exists())

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrArtifactsNotFound))

	// model present, scaler missing
	a, _ := fitted(t, linear.NewLinearRegression())
	require.NoError(t, store.Save(a))
	require.NoError(t, os.Remove(store.ScalerPath()))
	_, err = store.Load()
	assert.True(t, errors.Is(err, errors.ErrArtifactsNotFound))
}

func TestFileStore_OverwriteAndNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, nil)

	first, _ := fitted(t, linear.NewLinearRegression())
	require.NoError(t, store.Save(first))

	second, _ := fitted(t, linear_model.NewRidge())
	second.Metadata.RunID = "run-2"
	second.Metadata.ModelName = "Ridge"
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.Metadata.RunID)
	assert.IsType(t, &linear_model.Ridge{}, loaded.Model)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{DefaultModelFile, DefaultScalerFile}, names)
}

func TestFileStore_RejectsMixedRuns(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)
	first, _ := fitted(t, linear.NewLinearRegression())
	require.NoError(t, store.Save(first))

	other := NewFileStore(t.TempDir(), nil)
	second, _ := fitted(t, linear_model.NewRidge())
	second.Metadata.RunID = "run-2"
	second.Metadata.FeatureNames = []string{"c", "d"}
	require.NoError(t, other.Save(second))

	// a Save that stopped after replacing the model file
	raw, err := os.ReadFile(other.ModelPath())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.ModelPath(), raw, 0o644))

	_, err = store.Load()
	var incErr *errors.IncompatibleArtifactError
	require.True(t, errors.As(err, &incErr))
	assert.Equal(t, []string{"c", "d"}, incErr.Expected)
	assert.Equal(t, []string{"a", "b"}, incErr.Got)
	assert.Contains(t, err.Error(), "run-2")

	// same features, different run
	second.Metadata.FeatureNames = first.Metadata.FeatureNames
	require.NoError(t, other.Save(second))
	raw, err = os.ReadFile(other.ModelPath())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.ModelPath(), raw, 0o644))
	_, err = store.Load()
	assert.True(t, errors.As(err, &incErr))
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)
	a, _ := fitted(t, linear.NewLinearRegression())
	require.NoError(t, store.Save(a))
	require.NoError(t, os.WriteFile(store.ModelPath(), []byte("not gob"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrArtifactsNotFound))
	assert.Contains(t, err.Error(), "decoding")
}

func TestFileStore_RejectsUnfitted(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	var valErr *errors.ValueError
	err := store.Save(&Artifact{Model: linear.NewLinearRegression(), Scaler: preprocessing.NewStandardScaler()})
	assert.True(t, errors.As(err, &valErr))

	a, _ := fitted(t, linear.NewLinearRegression())
	a.Scaler = preprocessing.NewStandardScaler()
	assert.True(t, errors.As(store.Save(a), &valErr))
	assert.False(t, store.Exists(), "nothing is written when validation fails")
}

func TestArtifact_Best(t *testing.T) {
	a := &Artifact{Metadata: Metadata{
		ModelName: "Ridge",
		Evaluations: []Evaluation{
			{Model: "Linear", R2: 0.8},
			{Model: "Ridge", R2: 0.9},
		},
	}}
	best, ok := a.Best()
	require.True(t, ok)
	assert.Equal(t, 0.9, best.R2)
}
