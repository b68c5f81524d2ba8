package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// DefaultThreshold is the minimum |r| a feature needs to be kept.
const DefaultThreshold = 0.05

// SelectReport describes a selection pass.
type SelectReport struct {
	Original     int
	Selected     int
	Dropped      []string
	Target       string
	Columns      []string
	Correlations map[string]float64 // NaN when undefined
}

// Selector keeps columns whose absolute Pearson correlation with the target
// is strictly greater than Threshold. The target is always kept, and the
// relative column order of the input is preserved.
type Selector struct {
	Target    string
	Threshold float64
	logger    log.Logger
}

// NewSelector creates a Selector for target.
func NewSelector(target string, threshold float64, logger log.Logger) *Selector {
	if logger == nil {
		logger = log.Nop()
	}
	return &Selector{Target: target, Threshold: threshold, logger: logger.With(log.StageKey, log.StageSelect)}
}

// Select prunes f. Columns with an undefined correlation (constant values or
// fewer than two complete pairs) are dropped, not reported as errors.
func (s *Selector) Select(f *dataset.Frame) (*dataset.Frame, SelectReport, error) {
	s.logger.Info("==> Starting Feature Selection", log.ThresholdKey, s.Threshold)

	target, ok := f.Column(s.Target)
	if !ok {
		err := errors.NewSchemaError(log.StageSelect, []string{s.Target}, nil)
		s.logger.Error("Error during feature selection", err)
		return nil, SelectReport{}, err
	}
	if invalid := f.CategoricalNames(); len(invalid) > 0 {
		err := errors.NewSchemaError(log.StageSelect, nil, invalid)
		s.logger.Error("Error during feature selection", err)
		return nil, SelectReport{}, err
	}

	rep := SelectReport{
		Original:     f.NumCols(),
		Target:       s.Target,
		Correlations: make(map[string]float64, f.NumCols()),
	}
	var keep []string
	for _, col := range f.Columns() {
		if col.Name == s.Target {
			keep = append(keep, col.Name)
			continue
		}
		r := Pearson(col.Num, target.Num)
		rep.Correlations[col.Name] = r
		s.logger.Debug("Feature correlation", log.ColumnKey, col.Name, log.CorrelationKey, r)
		if !math.IsNaN(r) && math.Abs(r) > s.Threshold {
			keep = append(keep, col.Name)
		} else {
			rep.Dropped = append(rep.Dropped, col.Name)
		}
	}

	out, err := f.Select(keep...)
	if err != nil {
		s.logger.Error("Error during feature selection", err)
		return nil, SelectReport{}, err
	}
	rep.Selected = out.NumCols()
	rep.Columns = out.Names()

	s.logger.Info("FEATURE SELECTION REPORT",
		"features.original", rep.Original,
		"features.selected", rep.Selected,
		log.DroppedKey, len(rep.Dropped),
		"target", rep.Target,
		log.ColumnsKey, rep.Columns,
	)
	return out, rep, nil
}

// Pearson returns the correlation of x and y over the rows where both are
// non-NaN. It is NaN when fewer than two such rows exist or either side is
// constant over them.
func Pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
