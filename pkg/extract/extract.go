package extract

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"landcover/pkg/core"
	"landcover/pkg/dataprep"
	"landcover/pkg/raster"
	"landcover/pkg/vector"
)

var (
	ErrNoOverlap     = errors.New("extract: geometry does not overlap raster")
	ErrGeometryType  = errors.New("extract: geometry is not a polygon")
	ErrNoValidPixels = errors.New("extract: no valid pixels inside geometry")
	ErrEmpty         = errors.New("extract: no feature rows extracted")
)

// Skipped records a sample that contributed no rows and why.
type Skipped struct {
	Index  int
	Class  string
	Reason error
}

func (s Skipped) String() string {
	return fmt.Sprintf("sample %d (%s): %v", s.Index, s.Class, s.Reason)
}

// Result is the feature matrix (one row per valid pixel, one column per band)
// with the parallel label codes.
type Result struct {
	X       *core.Matrix
	Codes   []int
	Skipped []Skipped
}

// Extract collects the band vectors of every valid pixel whose centre falls
// inside each sample polygon. A pixel is valid when its bands sum to a
// positive value and none is missing. Samples that fail individually are
// listed in Result.Skipped; a class name outside the label set is fatal.
func Extract(r *raster.Raster, samples []vector.Sample, labels *dataprep.LabelSet) (*Result, error) {
	res := &Result{X: &core.Matrix{C: r.Bands}}
	extent := r.Bound()
	for _, s := range samples {
		code, err := labels.Code(s.Class)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", s.Index, err)
		}
		if s.Err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: s.Index, Class: s.Class, Reason: s.Err})
			continue
		}
		pixels, err := maskPolygon(r, extent, s.Geometry)
		if err == nil && len(pixels) == 0 {
			err = ErrNoValidPixels
		}
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: s.Index, Class: s.Class, Reason: err})
			continue
		}
		for _, px := range pixels {
			if err := res.X.AppendRow(px); err != nil {
				return nil, fmt.Errorf("sample %d: %w", s.Index, err)
			}
			res.Codes = append(res.Codes, code)
		}
	}
	return res, nil
}

// Len is the number of extracted rows.
func (res *Result) Len() int { return len(res.Codes) }

// Counts returns the number of rows per label code.
func (res *Result) Counts() map[int]int {
	out := map[int]int{}
	for _, c := range res.Codes {
		out[c]++
	}
	return out
}

// maskPolygon returns views of the valid pixels whose centre lies in g.
func maskPolygon(r *raster.Raster, extent orb.Bound, g orb.Geometry) ([][]float64, error) {
	var contains func(orb.Point) bool
	switch geom := g.(type) {
	case orb.Polygon:
		contains = func(p orb.Point) bool { return planar.PolygonContains(geom, p) }
	case orb.MultiPolygon:
		contains = func(p orb.Point) bool { return planar.MultiPolygonContains(geom, p) }
	default:
		return nil, fmt.Errorf("%w: %T", ErrGeometryType, g)
	}

	b := g.Bound()
	if !b.Intersects(extent) {
		return nil, ErrNoOverlap
	}
	row0, row1, col0, col1, err := r.Window(b)
	if err != nil {
		return nil, err
	}

	var out [][]float64
	for row := row0; row < row1; row++ {
		for col := col0; col < col1; col++ {
			if !contains(r.PixelCenter(row, col)) {
				continue
			}
			px := r.Pixel(row, col)
			if !dataprep.ValidPixel(px) || dataprep.HasMissing(px) {
				continue
			}
			out = append(out, px)
		}
	}
	return out, nil
}
