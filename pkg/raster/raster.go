package raster

import (
	"errors"
	"math"

	"github.com/paulmach/orb"

	"landcover/pkg/core"
)

var ErrTransform = errors.New("raster: geotransform is not invertible")

// Raster holds all bands in memory, pixel-interleaved as (row, col, band).
// Missing values (band no-data) are NaN.
type Raster struct {
	Height, Width, Bands int
	Data                 []float64

	// WKT is the coordinate reference system; empty when the file has none.
	WKT string
	// GeoTransform maps pixel/line to world coordinates, GDAL order.
	GeoTransform [6]float64
}

// New allocates a zero raster with an identity-like transform.
func New(height, width, bands int) *Raster {
	return &Raster{
		Height: height, Width: width, Bands: bands,
		Data:         make([]float64, height*width*bands),
		GeoTransform: [6]float64{0, 1, 0, 0, 0, 1},
	}
}

// Pixel returns the band vector at (row, col), sharing storage.
func (r *Raster) Pixel(row, col int) []float64 {
	off := (row*r.Width + col) * r.Bands
	return r.Data[off : off+r.Bands]
}

// Matrix views the raster as a (Height*Width) x Bands matrix in row-major
// pixel order, sharing storage.
func (r *Raster) Matrix() *core.Matrix {
	return &core.Matrix{R: r.Height * r.Width, C: r.Bands, Data: r.Data}
}

// ToWorld maps fractional pixel coordinates to world coordinates.
func (r *Raster) ToWorld(col, row float64) orb.Point {
	gt := r.GeoTransform
	return orb.Point{
		gt[0] + col*gt[1] + row*gt[2],
		gt[3] + col*gt[4] + row*gt[5],
	}
}

// PixelCenter is the world coordinate of the centre of pixel (row, col).
func (r *Raster) PixelCenter(row, col int) orb.Point {
	return r.ToWorld(float64(col)+0.5, float64(row)+0.5)
}

// ToPixel maps world coordinates to fractional pixel coordinates.
func (r *Raster) ToPixel(p orb.Point) (col, row float64, err error) {
	gt := r.GeoTransform
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, ErrTransform
	}
	dx, dy := p[0]-gt[0], p[1]-gt[3]
	col = (gt[5]*dx - gt[2]*dy) / det
	row = (-gt[4]*dx + gt[1]*dy) / det
	return col, row, nil
}

// Bound is the world extent of the raster.
func (r *Raster) Bound() orb.Bound {
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for _, c := range [][2]float64{{0, 0}, {float64(r.Width), 0}, {0, float64(r.Height)}, {float64(r.Width), float64(r.Height)}} {
		b = b.Extend(r.ToWorld(c[0], c[1]))
	}
	return b
}

// Window returns the clamped pixel window [row0,row1) x [col0,col1) covering
// the world bound b. The window is empty when b lies outside the raster.
func (r *Raster) Window(b orb.Bound) (row0, row1, col0, col1 int, err error) {
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, p := range []orb.Point{b.Min, b.Max, {b.Min[0], b.Max[1]}, {b.Max[0], b.Min[1]}} {
		c, rr, err := r.ToPixel(p)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		minC, maxC = math.Min(minC, c), math.Max(maxC, c)
		minR, maxR = math.Min(minR, rr), math.Max(maxR, rr)
	}
	col0 = clamp(int(math.Floor(minC)), 0, r.Width)
	col1 = clamp(int(math.Ceil(maxC)), 0, r.Width)
	row0 = clamp(int(math.Floor(minR)), 0, r.Height)
	row1 = clamp(int(math.Ceil(maxR)), 0, r.Height)
	return row0, row1, col0, col1, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// LabelGrid is a classified raster: one class code per pixel, row-major,
// in the same spatial frame as its source raster.
type LabelGrid struct {
	Height, Width int
	Codes         []uint8
}

func NewLabelGrid(height, width int) *LabelGrid {
	return &LabelGrid{Height: height, Width: width, Codes: make([]uint8, height*width)}
}

func (g *LabelGrid) At(row, col int) uint8 { return g.Codes[row*g.Width+col] }
