// Package config loads examscore settings from a YAML file, an optional .env
// file and EXAMSCORE_* environment variables, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/features"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/training"
)

// EnvPrefix is prepended to every recognised environment variable.
const EnvPrefix = "EXAMSCORE_"

// Config is the complete runtime configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Training  TrainingConfig  `yaml:"training"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// DataConfig configures ingestion and feature engineering.
type DataConfig struct {
	// Source is the .csv or .xlsx dataset path
	Source string `yaml:"source"`
	// Target is the label column
	Target string `yaml:"target"`
	// Threshold is the minimum |Pearson r| a feature needs to be kept
	Threshold float64 `yaml:"threshold"`
	// UnmappedPolicy is fail, missing or sentinel
	UnmappedPolicy string `yaml:"unmapped_policy"`
	// Sentinel replaces unmapped categories under the sentinel policy
	Sentinel float64 `yaml:"sentinel"`
}

// TrainingConfig configures the hold-out protocol.
type TrainingConfig struct {
	TestSize   float64 `yaml:"test_size"`
	RandomSeed int64   `yaml:"random_seed"`
}

// ArtifactsConfig locates the persisted model.
type ArtifactsConfig struct {
	Dir        string `yaml:"dir"`
	ModelFile  string `yaml:"model_file"`
	ScalerFile string `yaml:"scaler_file"`
	// Chart, when set, receives a PNG of the roster's metrics after training
	Chart string `yaml:"chart"`
}

// LogConfig configures the zerolog backend.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the web form.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Source:         "data/student_habits_performance.csv",
			Target:         features.TargetColumn,
			Threshold:      features.DefaultThreshold,
			UnmappedPolicy: string(features.PolicyFail),
			Sentinel:       -1,
		},
		Training: TrainingConfig{
			TestSize:   training.DefaultTestSize,
			RandomSeed: training.DefaultSeed,
		},
		Artifacts: ArtifactsConfig{
			Dir:        artifact.DefaultDir,
			ModelFile:  artifact.DefaultModelFile,
			ScalerFile: artifact.DefaultScalerFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: log.FormatConsole,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then path (skipped when empty),
// then the .env files, then the process environment.
func Load(path string, dotenv ...string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(dotenv...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

// LoadDotEnv loads the given files, or ".env" when none are named, into the
// process environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "loading %s", f)
		}
	}
	return nil
}

// ApplyEnv overrides fields from EXAMSCORE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"DATA_SOURCE":     &c.Data.Source,
		"TARGET":          &c.Data.Target,
		"UNMAPPED_POLICY": &c.Data.UnmappedPolicy,
		"ARTIFACTS_DIR":   &c.Artifacts.Dir,
		"CHART":           &c.Artifacts.Chart,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"SERVER_ADDR":     &c.Server.Addr,
	}
	for k, dst := range str {
		if v, ok := lookup(EnvPrefix + k); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"THRESHOLD": &c.Data.Threshold,
		"SENTINEL":  &c.Data.Sentinel,
		"TEST_SIZE": &c.Training.TestSize,
	}
	for k, dst := range floats {
		v, ok := lookup(EnvPrefix + k)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+k, "must be a number", v)
		}
		*dst = f
	}

	if v, ok := lookup(EnvPrefix + "RANDOM_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"RANDOM_SEED", "must be an integer", v)
		}
		c.Training.RandomSeed = seed
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Data.Source == "" {
		return errors.NewValidationError("data.source", "is required", c.Data.Source)
	}
	if c.Data.Target == "" {
		return errors.NewValidationError("data.target", "is required", c.Data.Target)
	}
	if c.Data.Threshold < 0 || c.Data.Threshold >= 1 {
		return errors.NewValidationError("data.threshold", "must be in [0, 1)", c.Data.Threshold)
	}
	if _, err := features.ParsePolicy(c.Data.UnmappedPolicy); err != nil {
		return err
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return errors.NewValidationError("training.test_size", "must be in (0, 1)", c.Training.TestSize)
	}
	if c.Artifacts.Dir == "" {
		return errors.NewValidationError("artifacts.dir", "is required", c.Artifacts.Dir)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != log.FormatConsole && c.Log.Format != log.FormatJSON {
		return errors.NewValidationError("log.format", "must be console or json", c.Log.Format)
	}
	return nil
}

// Policy returns the parsed unmapped-category policy. Call after Validate.
func (c *Config) Policy() features.UnmappedPolicy {
	p, _ := features.ParsePolicy(c.Data.UnmappedPolicy)
	return p
}

// Store returns the artifact store described by c.
func (c *Config) Store(logger log.Logger) *artifact.FileStore {
	s := artifact.NewFileStore(c.Artifacts.Dir, logger)
	if c.Artifacts.ModelFile != "" {
		s.ModelFile = c.Artifacts.ModelFile
	}
	if c.Artifacts.ScalerFile != "" {
		s.ScalerFile = c.Artifacts.ScalerFile
	}
	return s
}

// SaveToFile writes c as YAML, creating the parent directory.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "writing config file")
}
