// Package plot renders set cost curves as images.
package plot

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"force-cost/core/report"
	"force-cost/internal/errors"
)

// Formats lists the supported image formats
var Formats = []string{"png", "svg", "pdf"}

// Options controls image size and encoding
type Options struct {
	// Width and Height are in inches
	Width  float64
	Height float64
	Format string
}

// DefaultOptions returns a 6.4in square PNG
func DefaultOptions() Options {
	return Options{Width: 6.4, Height: 6.4, Format: "png"}
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.Newf(errors.TypeInput, "plot size %gx%g is not positive", o.Width, o.Height)
	}
	for _, f := range Formats {
		if o.Format == f {
			return nil
		}
	}
	return errors.Newf(errors.TypeInput, "unsupported plot format %q", o.Format)
}

// Build creates the plot: observed samples as a scatter, the fitted curve as
// a black line, and a background grid.
func Build(req *report.PlotRequest) (*gplot.Plot, error) {
	if req == nil {
		return nil, errors.New(errors.TypeInput, "no plot request")
	}
	if len(req.Capacity) != len(req.Cost) {
		return nil, errors.Newf(errors.TypeInput, "%d capacity values but %d costs", len(req.Capacity), len(req.Cost))
	}

	p := gplot.New()
	p.Title.Text = req.Title
	p.X.Label.Text = req.XLabel
	p.Y.Label.Text = req.YLabel
	p.Add(plotter.NewGrid())

	observed := make(plotter.XYs, len(req.Capacity))
	for i := range req.Capacity {
		observed[i].X = req.Capacity[i]
		observed[i].Y = req.Cost[i]
	}
	scatter, err := plotter.NewScatter(observed)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "observed samples", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(scatter)
	p.Legend.Add(report.ObservedLabel, scatter)

	if len(req.CurveCapacity) > 0 {
		curve := make(plotter.XYs, len(req.CurveCapacity))
		for i := range req.CurveCapacity {
			curve[i].X = req.CurveCapacity[i]
			curve[i].Y = req.CurveCost[i]
		}
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, errors.Wrap(errors.TypeInput, "fitted curve", err)
		}
		line.LineStyle.Color = color.Black
		p.Add(line)
		p.Legend.Add(report.FittedLabel, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

// Render writes the plot for req to w
func Render(req *report.PlotRequest, opts Options, w io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}
	p, err := Build(req)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, opts.Format)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "creating plot canvas", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(errors.TypeInternal, "writing plot", err)
	}
	return nil
}

// SaveFile renders req to path, replacing any existing file. The format
// is taken from opts, or from the path's extension when opts.Format is empty.
func SaveFile(req *report.PlotRequest, opts Options, path string) error {
	if opts.Format == "" {
		opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	var buf bytes.Buffer
	if err := Render(req, opts, &buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
