// Package report renders the roster's hold-out metrics as a PNG chart.
package report

import (
	"bufio"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Default canvas size.
var (
	Width  = 10 * vg.Inch
	Height = 4 * vg.Inch
)

const barWidth vg.Length = 14

// Plots builds the two panels of the chart: R² per model, and MAE next to
// RMSE per model.
func Plots(evals []artifact.Evaluation) (r2, errs *plot.Plot, err error) {
	if len(evals) == 0 {
		return nil, nil, errors.NewValueError("report.Plots", "no evaluations to plot")
	}
	names := make([]string, len(evals))
	var r2v, maev, rmsev plotter.Values
	for i, e := range evals {
		names[i] = e.Model
		r2v = append(r2v, e.R2)
		maev = append(maev, e.MAE)
		rmsev = append(rmsev, e.RMSE)
	}

	r2 = plot.New()
	r2.Title.Text = "R² on hold-out set"
	r2.Y.Label.Text = "R²"
	bars, err := plotter.NewBarChart(r2v, barWidth*2)
	if err != nil {
		return nil, nil, errors.Wrap(err, "r2 bars")
	}
	bars.Color = plotutil.Color(0)
	r2.Add(bars, plotter.NewGrid())
	r2.NominalX(names...)

	errs = plot.New()
	errs.Title.Text = "Error on hold-out set"
	errs.Y.Label.Text = "score points"
	for i, s := range []struct {
		label string
		v     plotter.Values
	}{{"MAE", maev}, {"RMSE", rmsev}} {
		b, err := plotter.NewBarChart(s.v, barWidth)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s bars", s.label)
		}
		b.Color = plotutil.Color(i + 1)
		b.Offset = barWidth * vg.Length(2*i-1) / 2
		errs.Add(b)
		errs.Legend.Add(s.label, b)
	}
	errs.Add(plotter.NewGrid())
	errs.Legend.Top = true
	errs.NominalX(names...)
	return r2, errs, nil
}

// WriteChart draws both panels side by side into a PNG at path.
func WriteChart(path string, evals []artifact.Evaluation) error {
	r2, errs, err := Plots(evals)
	if err != nil {
		return err
	}

	img := vgimg.New(Width, Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	grid := [][]*plot.Plot{{r2, errs}}
	canvases := plot.Align(grid, tiles, dc)
	for j, p := range grid[0] {
		p.Draw(canvases[0][j])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating chart directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating chart %s", path)
	}
	w := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding chart %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing chart %s", path)
	}
	return errors.Wrap(f.Close(), "closing chart")
}
