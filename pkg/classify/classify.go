package classify

import (
	"fmt"
	"math"

	"landcover/pkg/dataprep"
	"landcover/pkg/model"
	"landcover/pkg/raster"
	"landcover/pkg/stats"
)

const DefaultBatchSize = 10000

// Options controls full-raster prediction.
type Options struct {
	// BatchSize bounds how many pixels are standardized and predicted at once.
	BatchSize int
	// NoData, when set, is written for pixels with missing values or a
	// non-positive band sum instead of a prediction.
	NoData *uint8
}

// Raster predicts a class code for every pixel of r. Features are
// standardized with the already fitted scaler; it is never refitted here.
// The grid has r's height and width, in row-major pixel order.
func Raster(r *raster.Raster, p model.Predictor, scaler *stats.StandardScaler, labels *dataprep.LabelSet, opts Options) (*raster.LabelGrid, error) {
	if !scaler.Fitted() {
		return nil, stats.ErrNotFitted
	}
	if len(scaler.Mean) != r.Bands {
		return nil, fmt.Errorf("classify: model expects %d bands, raster has %d", len(scaler.Mean), r.Bands)
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	grid := raster.NewLabelGrid(r.Height, r.Width)
	pixels := r.Matrix()
	for start := 0; start < pixels.R; start += batch {
		end := min(start+batch, pixels.R)
		raw := pixels.Slice(start, end)
		X, err := scaler.Transform(raw)
		if err != nil {
			return nil, err
		}
		X.Apply(finiteOrZero)

		P := p.PredictProba(X)
		if P.R != X.R || P.C != labels.Len() {
			return nil, fmt.Errorf("classify: predictor returned %dx%d, want %dx%d", P.R, P.C, X.R, labels.Len())
		}
		for i, k := range model.ArgmaxRows(P) {
			code := uint8(labels.Classes[k].Code)
			if opts.NoData != nil {
				px := raw.Row(i)
				if dataprep.HasMissing(px) || !dataprep.ValidPixel(px) {
					code = *opts.NoData
				}
			}
			grid.Codes[start+i] = code
		}
	}
	return grid, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Histogram counts pixels per code.
func Histogram(g *raster.LabelGrid) map[uint8]int {
	out := map[uint8]int{}
	for _, c := range g.Codes {
		out[c]++
	}
	return out
}
