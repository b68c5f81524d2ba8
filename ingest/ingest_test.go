package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student_habits_performance.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIngest_Report(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	path := write(t, "student_id,age,gender,study_hours_per_day,sleep_hours,exam_score\nS1,20,Male,2,7,50\nS2,21,Female,4,8,70\n")

	f, rep, err := New([]string{"student_id", "exam_score"}, logger).Ingest(path)
	require.NoError(t, err)

	assert.Equal(t, 2, f.Rows())
	assert.Equal(t, Report{
		Source:    "student_habits_performance.csv",
		Rows:      2,
		Columns:   6,
		Integrity: log.StatusPass,
		Preview:   []string{"student_id", "age", "gender", "study_hours_per_day", "sleep_hours"},
	}, rep)
	assert.True(t, logger.ContainsMessage("DATA INGESTION REPORT"))
	assert.True(t, logger.ContainsField(log.StageKey, log.StageIngest))
	assert.True(t, logger.ContainsField(log.ColumnKey, "study_hours_per_day"), "debug summary per numeric column")
}

func TestIngest_Failures(t *testing.T) {
	tests := []struct {
		name  string
		path  func(t *testing.T) string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrSourceNotFound))
			},
		},
		{
			name: "header only",
			path: func(t *testing.T) string { return write(t, "student_id,exam_score\n") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			},
		},
		{
			name: "missing required column",
			path: func(t *testing.T) string { return write(t, "student_id,age\nS1,20\n") },
			check: func(t *testing.T, err error) {
				var schemaErr *errors.SchemaError
				require.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, []string{"exam_score"}, schemaErr.Missing)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := log.NewTestLogger(log.LevelInfo)
			f, _, err := New([]string{"student_id", "exam_score"}, logger).Ingest(tt.path(t))
			assert.Nil(t, f)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 1, logger.CountLevel("ERROR"))
		})
	}
}
