package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"landcover/pkg/dataprep"
	"landcover/pkg/model"
	"landcover/pkg/stats"
)

// HistoryChart plots per-epoch loss and accuracy of one training run.
func HistoryChart(path, title string, h model.History) error {
	if len(h) == 0 {
		return fmt.Errorf("export: empty history")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"

	series := []struct {
		name  string
		value func(model.EpochStats) float64
		color color.RGBA
		dash  bool
	}{
		{"loss", func(e model.EpochStats) float64 { return e.Loss }, color.RGBA{R: 200, A: 255}, false},
		{"val loss", func(e model.EpochStats) float64 { return e.ValLoss }, color.RGBA{R: 200, A: 255}, true},
		{"accuracy", func(e model.EpochStats) float64 { return e.Acc }, color.RGBA{B: 200, A: 255}, false},
		{"val accuracy", func(e model.EpochStats) float64 { return e.ValAcc }, color.RGBA{B: 200, A: 255}, true},
	}
	for _, s := range series {
		pts := make(plotter.XYs, len(h))
		for i, e := range h {
			pts[i].X = float64(e.Epoch)
			pts[i].Y = s.value(e)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = s.color
		if s.dash {
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// SignatureChart plots the mean spectral signature of each sampled class.
func SignatureChart(path string, sigs []stats.Signature, labels *dataprep.LabelSet) error {
	p := plot.New()
	p.Title.Text = "Mean spectral signature per class"
	p.X.Label.Text = "band"
	p.Y.Label.Text = "value"

	for _, s := range sigs {
		idx, err := labels.IndexOfCode(s.Code)
		if err != nil {
			return err
		}
		class := labels.Classes[idx]
		pts := make(plotter.XYs, len(s.Mean))
		for b, v := range s.Mean {
			pts[b].X = float64(b + 1)
			pts[b].Y = v
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = class.Color
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", class.Name, s.Count), l)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
