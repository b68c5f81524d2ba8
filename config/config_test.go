package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/features"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "exam_score", cfg.Data.Target)
	assert.Equal(t, 0.05, cfg.Data.Threshold)
	assert.Equal(t, int64(42), cfg.Training.RandomSeed)
	assert.Equal(t, features.PolicyFail, cfg.Policy())

	s := cfg.Store(nil)
	assert.Equal(t, filepath.Join("models", "best_model.gob"), s.ModelPath())
	assert.Equal(t, filepath.Join("models", "scaler.gob"), s.ScalerPath())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "examscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  source: habits.xlsx
  unmapped_policy: sentinel
  sentinel: -9
training:
  test_size: 0.25
server:
  read_timeout: 2s
`), 0o644))

	t.Setenv("EXAMSCORE_ARTIFACTS_DIR", filepath.Join(dir, "out"))
	t.Setenv("EXAMSCORE_LOG_LEVEL", "debug")
	t.Setenv("EXAMSCORE_TEST_SIZE", "0.3")

	cfg, err := Load(path, filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "habits.xlsx", cfg.Data.Source)
	assert.Equal(t, features.PolicySentinel, cfg.Policy())
	assert.Equal(t, -9.0, cfg.Data.Sentinel)
	assert.Equal(t, 0.3, cfg.Training.TestSize, "environment beats the file")
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Artifacts.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ":8000", cfg.Server.Addr, "unset keys keep their default")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("EXAMSCORE_SERVER_ADDR=127.0.0.1:9999\n"), 0o644))
	t.Setenv("EXAMSCORE_SERVER_ADDR", "")
	require.NoError(t, os.Unsetenv("EXAMSCORE_SERVER_ADDR"))

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("data: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestApplyEnv_Parsing(t *testing.T) {
	env := func(m map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := m[k]
			return v, ok
		}
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"EXAMSCORE_RANDOM_SEED": "7",
		"EXAMSCORE_THRESHOLD":   "0.1",
	})))
	assert.Equal(t, int64(7), cfg.Training.RandomSeed)
	assert.Equal(t, 0.1, cfg.Data.Threshold)

	var vErr *errors.ValidationError
	err := cfg.ApplyEnv(env(map[string]string{"EXAMSCORE_RANDOM_SEED": "seven"}))
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "EXAMSCORE_RANDOM_SEED", vErr.ParamName)

	err = cfg.ApplyEnv(env(map[string]string{"EXAMSCORE_SENTINEL": "x"}))
	assert.True(t, errors.As(err, &vErr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"empty source", func(c *Config) { c.Data.Source = "" }, "data.source"},
		{"threshold", func(c *Config) { c.Data.Threshold = 1.5 }, "data.threshold"},
		{"policy", func(c *Config) { c.Data.UnmappedPolicy = "ignore" }, "unmapped_policy"},
		{"test size", func(c *Config) { c.Training.TestSize = 0 }, "training.test_size"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log_level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			var vErr *errors.ValidationError
			require.True(t, errors.As(cfg.Validate(), &vErr))
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "examscore.yaml")
	cfg := DefaultConfig()
	cfg.Artifacts.Chart = "models/evaluation.png"
	require.NoError(t, cfg.SaveToFile(path))

	back, err := Load(path, filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoad_ShippedExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "examscore.yaml"), filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, "models/evaluation.png", cfg.Artifacts.Chart)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
}
