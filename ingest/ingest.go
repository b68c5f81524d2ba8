// Package ingest loads the raw dataset and checks it before cleaning.
package ingest

import (
	"context"
	"path/filepath"

	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// Report summarises a successful load.
type Report struct {
	Source    string
	Rows      int
	Columns   int
	Integrity string
	Preview   []string // first five column names
}

// Ingestor reads a dataset file and validates its header.
type Ingestor struct {
	required []string
	logger   log.Logger
}

// New creates an Ingestor that requires the given header columns.
func New(required []string, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Ingestor{
		required: append([]string(nil), required...),
		logger:   logger.With(log.StageKey, log.StageIngest),
	}
}

// Ingest loads path. Errors are ErrSourceNotFound, ErrEmptyData, a read error,
// or a SchemaError listing absent required columns.
func (in *Ingestor) Ingest(path string) (*dataset.Frame, Report, error) {
	in.logger.Info("==> Starting data ingestion process", log.SourceKey, path)

	f, err := dataset.ReadFile(path)
	if err != nil {
		in.logger.Error("Data ingestion failed", err, log.SourceKey, path)
		return nil, Report{}, err
	}

	var missing []string
	for _, name := range in.required {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		err := errors.NewSchemaError(log.StageIngest, missing, nil)
		in.logger.Error("Required columns missing", err, log.ColumnsKey, missing)
		return nil, Report{}, err
	}

	names := f.Names()
	preview := names
	if len(preview) > 5 {
		preview = preview[:5]
	}
	rep := Report{
		Source:    filepath.Base(path),
		Rows:      f.Rows(),
		Columns:   f.NumCols(),
		Integrity: log.StatusPass,
		Preview:   append([]string(nil), preview...),
	}
	if f.Rows() == 0 {
		rep.Integrity = log.StatusFail
	}

	in.logger.Info("DATA INGESTION REPORT",
		log.SourceKey, rep.Source,
		log.SamplesKey, rep.Rows,
		log.FeaturesKey, rep.Columns,
		log.StatusKey, rep.Integrity,
		log.ColumnsKey, rep.Preview,
	)
	if in.logger.Enabled(context.Background(), log.LevelDebug) {
		for _, s := range f.Describe() {
			in.logger.Debug("Column summary",
				log.ColumnKey, s.Column,
				"count", s.Count,
				"mean", s.Mean,
				"std", s.Std,
				"min", s.Min,
				"max", s.Max,
			)
		}
	}
	return f, rep, nil
}
