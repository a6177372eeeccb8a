package viz

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// PlotLearningCurve saves the per-round training loss as an image. The
// format follows the extension of path (png, svg, pdf...).
func PlotLearningCurve(losses []float64, title, path string) error {
	if len(losses) == 0 {
		return errors.NewEmptyDataError("PlotLearningCurve")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "round"
	p.Y.Label.Text = "training loss"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(losses))
	for i, l := range losses {
		pts[i].X = float64(i)
		pts[i].Y = l
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "viz: learning curve")
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "viz: save %s", path)
	}
	return nil
}
