package export

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"landcover/pkg/dataprep"
	"landcover/pkg/raster"
)

// ColorImage paints each pixel with its class color. Codes outside the
// label set (no-data) stay transparent.
func ColorImage(g *raster.LabelGrid, labels *dataprep.LabelSet) *image.RGBA {
	var palette [256]color.RGBA
	for _, c := range labels.Classes {
		palette[c.Code] = c.Color
	}
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			img.SetRGBA(col, row, palette[g.At(row, col)])
		}
	}
	return img
}

// swatch is a legend thumbnail filled with a single color.
type swatch color.RGBA

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(color.RGBA(s), []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Max.Y},
	})
}

// LegendImage renders the classified grid with a legend keyed by class name
// and saves it; the format follows the file extension (.png, .svg, .pdf...).
func LegendImage(path, title string, g *raster.LabelGrid, labels *dataprep.LabelSet) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row (from bottom)"
	p.Add(plotter.NewImage(ColorImage(g, labels), 0, 0, float64(g.Width), float64(g.Height)))

	for _, c := range labels.Classes {
		p.Legend.Add(c.Name, swatch(c.Color))
	}
	p.Legend.Top = true

	width := 8 * vg.Inch
	height := width * vg.Length(g.Height) / vg.Length(max(g.Width, 1))
	if height < 3*vg.Inch {
		height = 3 * vg.Inch
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
