// Package clean removes duplicate rows and fills the known categorical gap.
package clean

import (
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// Report summarises a cleaning pass.
type Report struct {
	Rows              int
	Columns           int
	DuplicatesRemoved int
	RemainingNulls    int
	Cleanliness       string
}

// Cleaner deduplicates rows and fills missing cells of one categorical column.
type Cleaner struct {
	FillColumn string // column whose missing cells are filled
	FillValue  string
	logger     log.Logger
}

// New returns a Cleaner filling parental_education_level with "Unknown".
func New(logger log.Logger) *Cleaner {
	if logger == nil {
		logger = log.Nop()
	}
	return &Cleaner{
		FillColumn: "parental_education_level",
		FillValue:  "Unknown",
		logger:     logger.With(log.StageKey, log.StageClean),
	}
}

// Clean returns a new frame; the input is not modified. Remaining nulls are
// reported, not treated as an error; the encoder decides what they mean.
func (c *Cleaner) Clean(f *dataset.Frame) (*dataset.Frame, Report, error) {
	c.logger.Info("==> Starting data cleaning process")

	out, dups := f.DropDuplicates()

	if filled := c.fill(out); filled != nil {
		var err error
		out, err = out.With(dataset.CategoricalColumn(c.FillColumn, filled))
		if err != nil {
			c.logger.Error("Error during data cleaning", err)
			return nil, Report{}, err
		}
	}

	rep := Report{
		Rows:              out.Rows(),
		Columns:           out.NumCols(),
		DuplicatesRemoved: dups,
		RemainingNulls:    out.Nulls(),
		Cleanliness:       log.StatusPass,
	}
	if rep.RemainingNulls > 0 {
		rep.Cleanliness = log.StatusFail
	}

	c.logger.Info("DATA CLEANING REPORT",
		log.SamplesKey, rep.Rows,
		log.FeaturesKey, rep.Columns,
		log.DuplicatesKey, rep.DuplicatesRemoved,
		log.NullsKey, rep.RemainingNulls,
		log.StatusKey, rep.Cleanliness,
	)
	return out, rep, nil
}

// fill returns FillColumn with missing cells set to FillValue, or nil when
// the column is absent or holds numbers. An all-missing column is read as
// numeric NaN and is filled as categorical.
func (c *Cleaner) fill(f *dataset.Frame) []string {
	col, ok := f.Column(c.FillColumn)
	switch {
	case !ok:
		return nil
	case col.Kind == dataset.Categorical:
		filled := make([]string, len(col.Str))
		for i, s := range col.Str {
			if s == "" {
				s = c.FillValue
			}
			filled[i] = s
		}
		return filled
	case col.Nulls() == col.Len():
		filled := make([]string, col.Len())
		for i := range filled {
			filled[i] = c.FillValue
		}
		return filled
	default:
		return nil
	}
}
