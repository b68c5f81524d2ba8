package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/config"
)

func writeConfig(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()

	var b strings.Builder
	b.WriteString("student_id,age,gender,study_hours_per_day,social_media_hours,netflix_hours,part_time_job," +
		"attendance_percentage,sleep_hours,diet_quality,exercise_frequency,parental_education_level," +
		"internet_quality,mental_health_rating,extracurricular_participation,exam_score\n")
	for i := 0; i < 200; i++ {
		study := float64(i%20) / 2
		fmt.Fprintf(&b, "S%d,21,Male,%g,3,2,Yes,85,6.5,Good,2,Master,Average,5,No,%g\n", i, study, 20+6*study)
	}
	data := filepath.Join(dir, "habits.csv")
	require.NoError(t, os.WriteFile(data, []byte(b.String()), 0o644))

	cfgPath = filepath.Join(dir, "examscore.yaml")
	cfg := fmt.Sprintf("data:\n  source: %s\nartifacts:\n  dir: %s\nlog:\n  level: error\n",
		data, filepath.Join(dir, "models"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out, logs bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "examscore version "+Version+"\n", out)
}

func TestMenu_PredictBeforeTraining(t *testing.T) {
	cfg, dir := writeConfig(t)
	out, err := run(t, "2\n3\n", "--config", cfg, "--env-file", filepath.Join(dir, "none.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "Error: Model or Scaler not found. Run training first!")
	assert.Contains(t, out, "Goodbye!")
}

func TestMenu_TrainThenPredict(t *testing.T) {
	cfg, dir := writeConfig(t)
	// invalid choice, train, predict with one re-prompted field, exit
	stdin := strings.Join([]string{
		"9",
		"1",
		"2",
		"six", "6", "3", "2", "85", "6.5", "2", "5",
		"3",
	}, "\n") + "\n"

	out, err := run(t, stdin, "--config", cfg, "--env-file", filepath.Join(dir, "none.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "Invalid choice.")
	assert.Contains(t, out, "Training Complete!")
	assert.Contains(t, out, "Best Model:")
	assert.Contains(t, out, "Please enter a number.")
	assert.Contains(t, out, "RESULT: Estimated Exam Score: 5")
	assert.Contains(t, out, "Status: PASS!")
	assert.FileExists(t, filepath.Join(dir, "models", "best_model.gob"))
	assert.FileExists(t, filepath.Join(dir, "models", "scaler.gob"))
}

func TestMenu_EndOfInput(t *testing.T) {
	cfg, dir := writeConfig(t)
	_, err := run(t, "", "--config", cfg, "--env-file", filepath.Join(dir, "none.env"))
	assert.NoError(t, err)
}

func TestTrainCommand_BadSource(t *testing.T) {
	cfg, dir := writeConfig(t)
	t.Setenv("EXAMSCORE_DATA_SOURCE", filepath.Join(dir, "missing.csv"))
	_, err := run(t, "", "train", "--config", cfg, "--env-file", filepath.Join(dir, "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline stage ingest")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	cfg, dir := writeConfig(t)
	_, err := run(t, "", "train", "--config", cfg, "--env-file", filepath.Join(dir, "none.env"), "--log-level", "loud")
	assert.Error(t, err)
}

func TestPipelineOptions_KeepsExplicitZeros(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Threshold = 0
	cfg.Training.RandomSeed = 0
	a := &app{cfg: cfg}

	opts := a.pipelineOptions()
	require.NotNil(t, opts.Threshold)
	require.NotNil(t, opts.Seed)
	assert.Zero(t, *opts.Threshold)
	assert.Zero(t, *opts.Seed)

	cfg.Training.RandomSeed = 7
	assert.Zero(t, *opts.Seed, "options must not alias the config")
}
