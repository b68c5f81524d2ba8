// Package pipeline wires the offline stages together: ingest, clean, encode,
// select and train. The first failing stage stops the run.
package pipeline

import (
	"fmt"
	"time"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/clean"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/features"
	"github.com/YuminosukeSato/examscore/ingest"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/report"
	"github.com/YuminosukeSato/examscore/training"
)

// StageError reports which stage stopped the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Options parameterise a run. Unset fields fall back to the defaults of each
// stage. Threshold and Seed are pointers because zero is a valid value for both.
type Options struct {
	Source    string
	Target    string
	Schema    features.Schema
	Threshold *float64
	TestSize  float64
	Seed      *int64
	// Chart, when set, is the PNG path of the evaluation chart.
	Chart string
	// Roster replaces the five default candidates.
	Roster []training.Candidate
}

// Reports collects what each stage logged.
type Reports struct {
	Ingest ingest.Report
	Clean  clean.Report
	Encode features.EncodeReport
	Select features.SelectReport
}

// Result is the outcome of a successful run.
type Result struct {
	Artifact    *artifact.Artifact
	Evaluations []training.Evaluation
	Reports     Reports
	Chart       string
	Duration    time.Duration
}

// Pipeline holds the configured stages.
type Pipeline struct {
	opts     Options
	ingestor *ingest.Ingestor
	cleaner  *clean.Cleaner
	encoder  *features.Encoder
	selector *features.Selector
	trainer  *training.Trainer
	logger   log.Logger
}

// New validates the schema and builds every stage. saver receives the winning artifact.
func New(opts Options, saver artifact.Saver, logger log.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if opts.Target == "" {
		opts.Target = features.TargetColumn
	}
	if opts.Schema.Columns == nil {
		opts.Schema = features.DefaultSchema()
	}
	threshold := features.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	enc, err := features.NewEncoder(opts.Schema, logger)
	if err != nil {
		return nil, err
	}
	topts := []training.Option{training.WithFeatureContract(features.PredictorColumns())}
	if opts.TestSize != 0 {
		topts = append(topts, training.WithTestSize(opts.TestSize))
	}
	if opts.Seed != nil {
		topts = append(topts, training.WithSeed(*opts.Seed))
	}
	if opts.Roster != nil {
		topts = append(topts, training.WithRoster(opts.Roster))
	}
	return &Pipeline{
		opts:     opts,
		ingestor: ingest.New(opts.Schema.Required(), logger),
		cleaner:  clean.New(logger),
		encoder:  enc,
		selector: features.NewSelector(opts.Target, threshold, logger),
		trainer:  training.NewTrainer(saver, logger, topts...),
		logger:   logger,
	}, nil
}

// Run executes the stages in order. A failure is logged once and returned as
// a *StageError; nothing is persisted unless training succeeds.
func (p *Pipeline) Run() (*Result, error) {
	start := time.Now()
	p.logger.Info("==> Starting ETL Feature Pipeline", log.SourceKey, p.opts.Source)

	var res Result
	fail := func(stage string, err error) (*Result, error) {
		se := &StageError{Stage: stage, Err: err}
		p.logger.Error("Pipeline failed", se, log.StageKey, stage)
		return nil, se
	}

	var raw *dataset.Frame
	if err := p.guard(log.StageIngest, func() (err error) {
		raw, res.Reports.Ingest, err = p.ingestor.Ingest(p.opts.Source)
		return err
	}); err != nil {
		return fail(log.StageIngest, err)
	}

	var cleaned *dataset.Frame
	if err := p.guard(log.StageClean, func() (err error) {
		cleaned, res.Reports.Clean, err = p.cleaner.Clean(raw)
		return err
	}); err != nil {
		return fail(log.StageClean, err)
	}

	var encoded *dataset.Frame
	if err := p.guard(log.StageEncode, func() (err error) {
		encoded, res.Reports.Encode, err = p.encoder.Encode(cleaned)
		return err
	}); err != nil {
		return fail(log.StageEncode, err)
	}

	var selected *dataset.Frame
	if err := p.guard(log.StageSelect, func() (err error) {
		selected, res.Reports.Select, err = p.selector.Select(encoded)
		return err
	}); err != nil {
		return fail(log.StageSelect, err)
	}

	var trained *training.Result
	if err := p.guard(log.StageTrain, func() (err error) {
		trained, err = p.trainer.Train(selected, p.opts.Target)
		return err
	}); err != nil {
		return fail(log.StageTrain, err)
	}
	res.Artifact = trained.Artifact
	res.Evaluations = trained.Evaluations

	if p.opts.Chart != "" {
		// the artifacts are already saved, a chart failure only warns
		if err := report.WriteChart(p.opts.Chart, trained.Evaluations); err != nil {
			p.logger.Warn("Evaluation chart not written", err, log.SourceKey, p.opts.Chart)
		} else {
			res.Chart = p.opts.Chart
		}
	}

	res.Duration = time.Since(start)
	p.logger.Info("==> ETL Feature Pipeline finished",
		log.ModelNameKey, trained.Best.Model,
		log.R2ScoreKey, trained.Best.R2,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return &res, nil
}

// guard runs one stage and turns a panic inside it into a PanicError.
func (p *Pipeline) guard(stage string, fn func() error) error {
	return errors.SafeExecute("pipeline."+stage, fn)
}

// StageOf returns the stage name carried by err, or "" when err did not come from Run.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
