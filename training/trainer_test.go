package training

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

type recordingSaver struct {
	saved []*artifact.Artifact
	err   error
}

func (s *recordingSaver) Save(a *artifact.Artifact) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, a)
	return nil
}

// constantModel predicts the same value for every row.
type constantModel struct {
	model.BaseEstimator
	value float64
	panic bool
}

func (m *constantModel) Fit(X, y mat.Matrix) error {
	if m.panic {
		panic("boom")
	}
	m.SetFitted()
	return nil
}

func (m *constantModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, m.value)
	}
	return out, nil
}

func constant(name string, v float64) Candidate {
	return Candidate{Name: name, New: func() model.Regressor { return &constantModel{value: v} }}
}

// linearFrame builds exam_score = 10 + 5·study_hours with a constant companion column.
func linearFrame(n int) *dataset.Frame {
	x := make([]float64, n)
	c := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i%50) / 5
		c[i] = 7
		y[i] = 10 + 5*x[i]
	}
	return dataset.MustNew(
		dataset.NumericColumn("study_hours_per_day", x),
		dataset.NumericColumn("sleep_hours", c),
		dataset.NumericColumn("exam_score", y),
	)
}

func TestTrainer_RecoversLinearSignal(t *testing.T) {
	saver := &recordingSaver{}
	logger, _ := log.NewTestLogger(log.LevelInfo)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tr := NewTrainer(saver, logger, WithClock(func() time.Time { return at }))
	res, err := tr.Train(linearFrame(500), "exam_score")
	require.NoError(t, err)

	assert.Equal(t, 400, res.TrainRows)
	assert.Equal(t, 100, res.TestRows)
	require.Len(t, res.Evaluations, 5)
	names := make([]string, 0, len(res.Evaluations))
	for _, ev := range res.Evaluations {
		names = append(names, ev.Model)
	}
	assert.Equal(t, []string{Linear, Ridge, Lasso, RandomForest, GradientBoosting}, names)
	assert.Greater(t, res.Best.R2, 0.95)

	require.Len(t, saver.saved, 1)
	a := saver.saved[0]
	assert.Same(t, res.Artifact, a)
	assert.Equal(t, res.Best.Model, a.Metadata.ModelName)
	assert.Equal(t, []string{"study_hours_per_day", "sleep_hours"}, a.Metadata.FeatureNames)
	assert.Equal(t, at, a.Metadata.TrainedAt)
	assert.NotEmpty(t, a.Metadata.RunID)
	assert.Equal(t, 1.0, a.Scaler.Scale[1], "zero std is stored as 1")

	for _, x := range []float64{0.5, 3, 8.2} {
		row, err := a.Scaler.TransformVector([]float64{x, 7})
		require.NoError(t, err)
		pred, err := a.Model.Predict(mat.NewDense(1, 2, row))
		require.NoError(t, err)
		assert.InDelta(t, 10+5*x, pred.At(0, 0), 2.5)
	}

	assert.True(t, logger.ContainsMessage("==> Starting Model Training..."))
	assert.True(t, logger.ContainsMessage("MODEL TRAINING REPORT"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, res.Best.Model))
}

func TestTrainer_TieKeepsEarlierCandidate(t *testing.T) {
	tr := NewTrainer(nil, nil, WithRoster([]Candidate{
		constant("first", 3),
		constant("second", 3),
		constant("third", -100),
	}))
	res, err := tr.Train(linearFrame(40), "exam_score")
	require.NoError(t, err)
	assert.Equal(t, "first", res.Best.Model)
	assert.Equal(t, res.Evaluations[0].R2, res.Evaluations[1].R2)
}

func TestBestIndex(t *testing.T) {
	tests := []struct {
		name  string
		evals []Evaluation
		want  int
	}{
		{"highest R2", []Evaluation{{R2: 0.5, RMSE: 1}, {R2: 0.9, RMSE: 3}, {R2: 0.7, RMSE: 0.1}}, 1},
		{"R2 tie broken by RMSE", []Evaluation{{R2: 0.9, RMSE: 2}, {R2: 0.9, RMSE: 1}}, 1},
		{"full tie keeps roster order", []Evaluation{{R2: 0.9, RMSE: 1}, {R2: 0.9, RMSE: 1}}, 0},
		{"single", []Evaluation{{R2: -3}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bestIndex(tt.evals))
		})
	}
}

func TestTrainer_FailureDoesNotPersist(t *testing.T) {
	t.Run("panicking candidate", func(t *testing.T) {
		saver := &recordingSaver{}
		logger, _ := log.NewTestLogger(log.LevelInfo)
		tr := NewTrainer(saver, logger, WithRoster([]Candidate{
			constant("ok", 1),
			{Name: "broken", New: func() model.Regressor { return &constantModel{panic: true} }},
		}))
		_, err := tr.Train(linearFrame(40), "exam_score")
		require.Error(t, err)
		var pe *errors.PanicError
		assert.True(t, errors.As(err, &pe))
		assert.Empty(t, saver.saved)
		assert.Equal(t, 1, logger.CountLevel("ERROR"))
	})

	t.Run("missing feature value", func(t *testing.T) {
		saver := &recordingSaver{}
		f := linearFrame(40)
		x, _ := f.Float("study_hours_per_day")
		x[3] = math.NaN()
		f, err := f.With(dataset.NumericColumn("study_hours_per_day", x))
		require.NoError(t, err)

		_, err = NewTrainer(saver, nil).Train(f, "exam_score")
		var ve *errors.ValueError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, err.Error(), "study_hours_per_day")
		assert.Empty(t, saver.saved)
	})

	t.Run("saver error", func(t *testing.T) {
		saver := &recordingSaver{err: errors.New("disk full")}
		_, err := NewTrainer(saver, nil, WithRoster([]Candidate{constant("ok", 1)})).
			Train(linearFrame(40), "exam_score")
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("feature outside contract", func(t *testing.T) {
		saver := &recordingSaver{}
		tr := NewTrainer(saver, nil,
			WithRoster([]Candidate{constant("ok", 1)}),
			WithFeatureContract([]string{"study_hours_per_day"}))
		_, err := tr.Train(linearFrame(40), "exam_score")
		var ie *errors.IncompatibleArtifactError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, []string{"sleep_hours"}, ie.Unknown)
		assert.Empty(t, saver.saved)

		_, err = NewTrainer(saver, nil,
			WithRoster([]Candidate{constant("ok", 1)}),
			WithFeatureContract([]string{"sleep_hours", "netflix_hours", "study_hours_per_day"})).
			Train(linearFrame(40), "exam_score")
		require.NoError(t, err)
		assert.Len(t, saver.saved, 1)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := NewTrainer(nil, nil).Train(linearFrame(40), "grade")
		var se *errors.SchemaError
		assert.True(t, errors.As(err, &se))
	})

	t.Run("too few rows", func(t *testing.T) {
		_, err := NewTrainer(nil, nil).Train(linearFrame(2), "exam_score")
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestTrainTestSplit(t *testing.T) {
	a, err := TrainTestSplit(101, 0.2, 42)
	require.NoError(t, err)
	b, err := TrainTestSplit(101, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Test, 21, "ceil(0.2·101)")
	assert.Len(t, a.Train, 80)

	all := append(append([]int(nil), a.Train...), a.Test...)
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i, v, "partitions cover every row exactly once")
	}

	c, err := TrainTestSplit(101, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Test, c.Test)

	_, err = TrainTestSplit(10, 1, 42)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = TrainTestSplit(2, 0.2, 42)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}
