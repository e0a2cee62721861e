package cmd

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png and jpeg formats
)

var errNoValues = errors.New("no amounts in the selection")

// writeHistogram renders values into file; the format follows the file
// extension (png, svg, pdf...).
func writeHistogram(values []float64, bins int, title, file string) error {
	if len(values) == 0 {
		return errNoValues
	}
	if bins < 1 {
		bins = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Amount"
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}
