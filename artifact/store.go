package artifact

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// Default file layout.
const (
	DefaultDir        = "models"
	DefaultModelFile  = "best_model.gob"
	DefaultScalerFile = "scaler.gob"
)

// FileStore keeps the model and scaler as two gob files in Dir.
type FileStore struct {
	Dir        string
	ModelFile  string
	ScalerFile string

	logger log.Logger
}

// NewFileStore returns a store rooted at dir with the default file names.
// An empty dir means DefaultDir.
func NewFileStore(dir string, logger log.Logger) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &FileStore{
		Dir:        dir,
		ModelFile:  DefaultModelFile,
		ScalerFile: DefaultScalerFile,
		logger:     logger.With(log.StageKey, log.StagePersist),
	}
}

// ModelPath returns the model file location.
func (s *FileStore) ModelPath() string { return filepath.Join(s.Dir, s.ModelFile) }

// ScalerPath returns the scaler file location.
func (s *FileStore) ScalerPath() string { return filepath.Join(s.Dir, s.ScalerFile) }

// Save writes both files to temporaries in Dir and renames them into place.
// On failure no temporary is left behind.
func (s *FileStore) Save(a *Artifact) error {
	if a == nil || a.Model == nil || !a.Model.IsFitted() {
		return errors.NewValueError("artifact.Save", "artifact has no fitted model")
	}
	if a.Scaler == nil || !a.Scaler.IsFitted() {
		return errors.NewValueError("artifact.Save", "artifact has no fitted scaler")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating artifact directory %s", s.Dir)
	}

	meta := a.Metadata
	meta.FormatVersion = FormatVersion

	modelTmp, err := s.writeTemp(s.ModelFile, &modelEnvelope{Metadata: meta, Model: a.Model})
	if err != nil {
		return err
	}
	scalerTmp, err := s.writeTemp(s.ScalerFile, &scalerEnvelope{
		RunID:        meta.RunID,
		FeatureNames: meta.FeatureNames,
		Scaler:       a.Scaler,
	})
	if err != nil {
		_ = os.Remove(modelTmp)
		return err
	}

	if err := os.Rename(modelTmp, s.ModelPath()); err != nil {
		_ = os.Remove(modelTmp)
		_ = os.Remove(scalerTmp)
		return errors.Wrapf(err, "replacing %s", s.ModelPath())
	}
	if err := os.Rename(scalerTmp, s.ScalerPath()); err != nil {
		_ = os.Remove(scalerTmp)
		return errors.Wrapf(err, "replacing %s", s.ScalerPath())
	}

	s.logger.Info("Best model saved",
		log.ModelNameKey, meta.ModelName,
		log.RunIDKey, meta.RunID,
		"artifact.model_path", s.ModelPath(),
		"artifact.scaler_path", s.ScalerPath(),
	)
	return nil
}

func (s *FileStore) writeTemp(name string, v interface{}) (string, error) {
	f, err := os.CreateTemp(s.Dir, "."+name+"-*.tmp")
	if err != nil {
		return "", errors.Wrapf(err, "creating temporary file for %s", name)
	}
	tmp := f.Name()
	if err := model.SaveModelToWriter(f, v); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", errors.Wrapf(err, "writing %s", name)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", errors.Wrapf(err, "syncing %s", name)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrapf(err, "closing %s", name)
	}
	return tmp, nil
}

// Exists reports whether both files are present.
func (s *FileStore) Exists() bool {
	for _, p := range []string{s.ModelPath(), s.ScalerPath()} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Load reads both files. A missing file yields an error wrapping
// errors.ErrArtifactsNotFound; a corrupt one yields a wrapped decode error.
func (s *FileStore) Load() (*Artifact, error) {
	var env modelEnvelope
	if err := readGob(s.ModelPath(), &env); err != nil {
		return nil, err
	}
	if env.Metadata.FormatVersion != FormatVersion {
		return nil, errors.NewValueError("artifact.Load",
			"unsupported artifact format version; retrain to regenerate the files")
	}
	if env.Model == nil || !env.Model.IsFitted() {
		return nil, errors.NewValueError("artifact.Load", "model file holds no fitted model")
	}

	var senv scalerEnvelope
	if err := readGob(s.ScalerPath(), &senv); err != nil {
		return nil, err
	}
	scaler := senv.Scaler
	if scaler == nil || !scaler.IsFitted() {
		return nil, errors.NewValueError("artifact.Load", "scaler file holds no fitted scaler")
	}
	// an interrupted Save can leave a new model next to an old scaler
	if senv.RunID != env.Metadata.RunID || !slices.Equal(senv.FeatureNames, env.Metadata.FeatureNames) {
		return nil, errors.Wrapf(
			errors.NewIncompatibleArtifactError(env.Metadata.FeatureNames, senv.FeatureNames, nil),
			"model file is from run %q but scaler file is from run %q", env.Metadata.RunID, senv.RunID)
	}

	s.logger.Debug("Artifacts loaded",
		log.ModelNameKey, env.Metadata.ModelName,
		log.RunIDKey, env.Metadata.RunID,
		log.SourceKey, s.Dir,
	)
	return &Artifact{Metadata: env.Metadata, Model: env.Model, Scaler: scaler}, nil
}

func readGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrArtifactsNotFound, "%s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	if err := model.LoadModelFromReader(f, v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}
