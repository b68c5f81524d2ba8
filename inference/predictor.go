// Package inference scores a single student record with the persisted model.
package inference

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// Score bounds and the pass mark.
const (
	MinScore  = 0.0
	MaxScore  = 100.0
	PassScore = 50.0
)

// Input is the fixed seven-feature record accepted at inference time.
type Input struct {
	StudyHours   float64 `json:"study_hours_per_day"`
	SocialMedia  float64 `json:"social_media_hours"`
	Netflix      float64 `json:"netflix_hours"`
	Attendance   float64 `json:"attendance_percentage"`
	Sleep        float64 `json:"sleep_hours"`
	Exercise     float64 `json:"exercise_frequency"`
	MentalHealth float64 `json:"mental_health_rating"`
}

// Field describes one input for prompts and forms. Min and Max are hints only.
type Field struct {
	Column string
	Form   string
	Label  string
	Min    float64
	Max    float64
}

var fields = []Field{
	{"study_hours_per_day", "study_hours", "Study Hours/Day", 0, 16},
	{"social_media_hours", "social_media", "Social Media Hours", 0, 12},
	{"netflix_hours", "netflix", "Netflix Hours", 0, 12},
	{"attendance_percentage", "attendance", "Attendance %", 1, 100},
	{"sleep_hours", "sleep", "Sleep Hours", 1, 12},
	{"exercise_frequency", "exercise", "Exercise", 1, 5},
	{"mental_health_rating", "mental_health", "Mental Health", 1, 10},
}

// Fields returns the seven inputs in contract order.
func Fields() []Field { return append([]Field(nil), fields...) }

// Columns returns the contract feature names in order.
func Columns() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Column
	}
	return out
}

func (in *Input) ptrs() []*float64 {
	return []*float64{&in.StudyHours, &in.SocialMedia, &in.Netflix, &in.Attendance,
		&in.Sleep, &in.Exercise, &in.MentalHealth}
}

// Vector returns the values in contract order.
func (in Input) Vector() []float64 {
	p := in.ptrs()
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = *v
	}
	return out
}

// Set assigns the field whose column or form name is key.
func (in *Input) Set(key string, v float64) error {
	for i, f := range fields {
		if f.Column == key || f.Form == key {
			*in.ptrs()[i] = v
			return nil
		}
	}
	return errors.NewValidationError(key, "unknown input field", v)
}

// Validate rejects missing or non-finite values.
func (in Input) Validate() error {
	for i, v := range in.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError(fields[i].Column, "must be a finite number", v)
		}
	}
	return nil
}

// Clip bounds a raw model output to [MinScore, MaxScore].
func Clip(score float64) float64 {
	return errors.ClipValue(score, MinScore, MaxScore)
}

// Prediction is a clipped score with its verdict.
type Prediction struct {
	Score float64
	Raw   float64
}

// Pass reports whether Score reaches the pass mark.
func (p Prediction) Pass() bool { return p.Score >= PassScore }

// Verdict is "PASS" or "FAIL".
func (p Prediction) Verdict() string {
	if p.Pass() {
		return "PASS"
	}
	return "FAIL"
}

// Predictor applies the frozen scaler and model of one artifact.
type Predictor struct {
	art    *artifact.Artifact
	index  []int // contract position of each artifact feature
	logger log.Logger
}

// Load reads the artifact through l. Absent artifacts surface as
// errors.ErrArtifactsNotFound.
func Load(l artifact.Loader, logger log.Logger) (*Predictor, error) {
	a, err := l.Load()
	if err != nil {
		return nil, err
	}
	return New(a, logger)
}

// New checks that every feature the artifact was trained on is one of the
// seven inputs and that the scaler agrees with the model's feature list.
func New(a *artifact.Artifact, logger log.Logger) (*Predictor, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if a == nil || a.Model == nil || a.Scaler == nil {
		return nil, errors.Wrap(errors.ErrArtifactsNotFound, "empty artifact")
	}
	names := a.Metadata.FeatureNames
	contract := Columns()
	pos := make(map[string]int, len(contract))
	for i, c := range contract {
		pos[c] = i
	}
	var unknown []string
	index := make([]int, 0, len(names))
	for _, n := range names {
		i, ok := pos[n]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		index = append(index, i)
	}
	if len(names) == 0 || len(unknown) > 0 || a.Scaler.NFeatures != len(names) {
		return nil, errors.NewIncompatibleArtifactError(contract, names, unknown)
	}
	if len(a.Scaler.FeatureNames) > 0 && !slices.Equal(a.Scaler.FeatureNames, names) {
		return nil, errors.Wrap(errors.NewIncompatibleArtifactError(names, a.Scaler.FeatureNames, nil),
			"scaler was fitted on different features than the model")
	}
	return &Predictor{art: a, index: index, logger: logger.With(log.StageKey, log.StageInfer)}, nil
}

// Metadata describes the loaded model.
func (p *Predictor) Metadata() artifact.Metadata { return p.art.Metadata }

// Features returns the artifact's feature names.
func (p *Predictor) Features() []string {
	return append([]string(nil), p.art.Metadata.FeatureNames...)
}

// Predict scales in with the training statistics, runs the model and clips
// the result to [0, 100].
func (p *Predictor) Predict(in Input) (Prediction, error) {
	if err := in.Validate(); err != nil {
		return Prediction{}, err
	}
	full := in.Vector()
	x := make([]float64, len(p.index))
	for k, i := range p.index {
		x[k] = full[i]
	}
	scaled, err := p.art.Scaler.TransformVector(x)
	if err != nil {
		return Prediction{}, err
	}
	out, err := p.art.Model.Predict(mat.NewDense(1, len(scaled), scaled))
	if err != nil {
		return Prediction{}, errors.Wrapf(err, "%s prediction", p.art.Metadata.ModelName)
	}
	raw := out.At(0, 0)
	if err := errors.CheckScalar("inference.Predict", raw); err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Score: Clip(raw), Raw: raw}
	p.logger.Debug("Prediction made",
		log.ModelNameKey, p.art.Metadata.ModelName,
		log.PredictionKey, pred.Score,
		log.StatusKey, pred.Verdict(),
	)
	return pred, nil
}
