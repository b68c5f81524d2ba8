package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YuminosukeSato/examscore/config"
	"github.com/YuminosukeSato/examscore/features"
	"github.com/YuminosukeSato/examscore/inference"
	"github.com/YuminosukeSato/examscore/pipeline"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/web"
)

const rule = "=============================="

type app struct {
	cfg    *config.Config
	logger log.Logger
	in     *bufio.Reader
	out    io.Writer
}

func newApp(f flags, in io.Reader, out, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := log.ParseLevel(cfg.Log.Level)
	return &app{
		cfg:    cfg,
		logger: log.NewZerologLogger(logOut, level, cfg.Log.Format),
		in:     bufio.NewReader(in),
		out:    out,
	}, nil
}

// errQuit ends the menu loop when input is exhausted.
var errQuit = errors.New("input closed")

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errQuit
		}
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

func (a *app) menu() error {
	for {
		fmt.Fprintf(a.out, "\n%s\n ACADEMIC PERFORMANCE SYSTEM \n%s\n", rule, rule)
		fmt.Fprintln(a.out, "1. Train Model (Run ETL Pipeline)")
		fmt.Fprintln(a.out, "2. Make a Prediction")
		fmt.Fprintln(a.out, "3. Exit")

		choice, err := a.readLine("\nSelect an option (1-3): ")
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			if err := a.train(); err != nil {
				fmt.Fprintf(a.out, "Training failed: %v\n", err)
			}
		case "2":
			if err := a.predict(); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(a.out, "Error: %v\n", err)
			}
		case "3":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid choice. Please select 1, 2 or 3.")
		}
	}
}

func (a *app) pipelineOptions() pipeline.Options {
	schema := features.DefaultSchema()
	schema.Policy = a.cfg.Policy()
	schema.Sentinel = a.cfg.Data.Sentinel
	threshold, seed := a.cfg.Data.Threshold, a.cfg.Training.RandomSeed
	return pipeline.Options{
		Source:    a.cfg.Data.Source,
		Target:    a.cfg.Data.Target,
		Schema:    schema,
		Threshold: &threshold,
		TestSize:  a.cfg.Training.TestSize,
		Seed:      &seed,
		Chart:     a.cfg.Artifacts.Chart,
	}
}

func (a *app) train() error {
	p, err := pipeline.New(a.pipelineOptions(), a.cfg.Store(a.logger), a.logger)
	if err != nil {
		return err
	}
	res, err := p.Run()
	if err != nil {
		return err
	}

	best, _ := res.Artifact.Best()
	fmt.Fprintf(a.out, "\nTraining Complete!\n")
	fmt.Fprintf(a.out, "%-18s %8s %8s %8s\n", "Model", "R2", "MAE", "RMSE")
	for _, e := range res.Evaluations {
		fmt.Fprintf(a.out, "%-18s %8.4f %8.4f %8.4f\n", e.Model, e.R2, e.MAE, e.RMSE)
	}
	fmt.Fprintf(a.out, "Best Model: %s (%.4f R2)\n", best.Model, best.R2)
	if res.Chart != "" {
		fmt.Fprintf(a.out, "Chart saved to %s\n", res.Chart)
	}
	return nil
}

// readFloat prompts until the answer parses as a finite number.
func (a *app) readFloat(f inference.Field) (float64, error) {
	prompt := fmt.Sprintf("%s(%g-%g): ", f.Label, f.Min, f.Max)
	for {
		s, err := a.readLine(prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err == nil && errors.CheckScalar(f.Column, v) == nil {
			return v, nil
		}
		fmt.Fprintln(a.out, "Please enter a number.")
	}
}

func (a *app) predict() error {
	p, err := inference.Load(a.cfg.Store(a.logger), a.logger)
	if errors.Is(err, errors.ErrArtifactsNotFound) {
		fmt.Fprintln(a.out, "Error: Model or Scaler not found. Run training first!")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%s\nSTUDENT SCORE PREDICTOR\n%s\n", rule, rule)
	var in inference.Input
	for _, f := range inference.Fields() {
		v, err := a.readFloat(f)
		if err != nil {
			return err
		}
		if err := in.Set(f.Column, v); err != nil {
			return err
		}
	}

	pred, err := p.Predict(in)
	if err != nil {
		return err
	}
	line := strings.Repeat("-", len(rule))
	fmt.Fprintf(a.out, "\n%s\nRESULT: Estimated Exam Score: %.2f%%\n", line, pred.Score)
	if pred.Pass() {
		fmt.Fprintln(a.out, "Status: PASS! Congratulations on your predicted success!")
	} else {
		fmt.Fprintln(a.out, "Status: FAIL. Your selected values indicate you might need to work harder to pass. Keep pushing!")
	}
	fmt.Fprintln(a.out, line)
	return nil
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s, err := web.NewServer(a.cfg.Store(a.logger), reg, a.logger)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
}
