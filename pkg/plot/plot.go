package plot

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/mna-spice/pkg/netlist"
	"github.com/edp1096/mna-spice/pkg/output"
)

type Options struct {
	Title  string
	Format string // png, svg or pdf
	Width  vg.Length
	Height vg.Length
}

func DefaultOptions() Options {
	return Options{Format: "png", Width: 16 * vg.Centimeter, Height: 10 * vg.Centimeter}
}

// build draws every series on one chart. AC sweeps that stay above zero get a
// logarithmic frequency axis.
func build(series []output.Series, title string) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errors.New("nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = series[0].XLabel
	p.Y.Label.Text = "value"

	if series[0].Kind == netlist.KindAC && positive(series[0].X) {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for i, s := range series {
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j].X = s.X[j]
			pts[j].Y = s.Y[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "series %s", s.Label)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)

		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	p.Add(plotter.NewGrid())

	return p, nil
}

func positive(xs []float64) bool {
	for _, x := range xs {
		if x <= 0 {
			return false
		}
	}
	return len(xs) > 0
}

// WriteTo renders the chart in opts.Format.
func WriteTo(w io.Writer, series []output.Series, opts Options) error {
	p, err := build(series, opts.Title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return errors.Wrap(err, "creating canvas")
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save renders the chart into dir as <name>.<format> and returns the path.
func Save(dir, name string, series []output.Series, opts Options) (string, error) {
	p, err := build(series, opts.Title)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+"."+opts.Format)
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return "", errors.Wrapf(err, "saving %s", path)
	}
	return path, nil
}
