// Package artifact persists the winning regressor and its fitted scaler.
//
// A training run produces exactly one Artifact. FileStore writes it as two
// gob files, replacing any previous pair, and inference loads it read-only.
package artifact

import (
	"encoding/gob"
	"time"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/linear"
	"github.com/YuminosukeSato/examscore/preprocessing"
	"github.com/YuminosukeSato/examscore/sklearn/boosting"
	"github.com/YuminosukeSato/examscore/sklearn/ensemble"
	"github.com/YuminosukeSato/examscore/sklearn/linear_model"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

// FormatVersion is bumped whenever the on-disk layout changes.
const FormatVersion = 2

func init() {
	gob.Register(&linear.LinearRegression{})
	gob.Register(&linear_model.Ridge{})
	gob.Register(&linear_model.Lasso{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&boosting.GradientBoostingRegressor{})
}

// Evaluation is the hold-out performance of one roster candidate.
type Evaluation struct {
	Model string
	R2    float64
	MAE   float64
	RMSE  float64
}

// Metadata describes the run that produced an Artifact.
type Metadata struct {
	FormatVersion int
	RunID         string
	ModelName     string
	FeatureNames  []string
	Evaluations   []Evaluation
	TrainedAt     time.Time
}

// Artifact is the persisted result of a training run.
type Artifact struct {
	Metadata Metadata
	Model    model.Regressor
	Scaler   *preprocessing.StandardScaler
}

// Best returns the evaluation of the persisted model.
func (a *Artifact) Best() (Evaluation, bool) {
	for _, e := range a.Metadata.Evaluations {
		if e.Model == a.Metadata.ModelName {
			return e, true
		}
	}
	return Evaluation{}, false
}

// Saver persists an artifact. The trainer depends on this rather than on FileStore.
type Saver interface {
	Save(a *Artifact) error
}

// Loader reads a previously saved artifact.
type Loader interface {
	Load() (*Artifact, error)
}

// modelEnvelope is the content of the model file.
type modelEnvelope struct {
	Metadata Metadata
	Model    model.Regressor
}

// scalerEnvelope is the content of the scaler file. RunID and FeatureNames
// pair it with the model file written by the same run.
type scalerEnvelope struct {
	RunID        string
	FeatureNames []string
	Scaler       *preprocessing.StandardScaler
}
