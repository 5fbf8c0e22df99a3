package classify

import (
	"math"
	"testing"

	"landcover/pkg/core"
	"landcover/pkg/dataprep"
	"landcover/pkg/model"
	"landcover/pkg/raster"
	"landcover/pkg/stats"
)

// brightest band wins; records batch sizes it was called with
type bandPicker struct {
	calls []int
}

func (b *bandPicker) PredictProba(X *core.Matrix) *core.Matrix {
	b.calls = append(b.calls, X.R)
	out := core.NewMatrix(X.R, X.C)
	for i := 0; i < X.R; i++ {
		best := 0
		for j, v := range X.Row(i) {
			if v > X.Row(i)[best] {
				best = j
			}
		}
		out.Set(i, best, 1)
	}
	return out
}

func setup(t *testing.T) (*raster.Raster, *stats.StandardScaler, *dataprep.LabelSet) {
	t.Helper()
	r := raster.New(3, 5, 3)
	for row := 0; row < 3; row++ {
		for col := 0; col < 5; col++ {
			px := r.Pixel(row, col)
			px[(row+col)%3] = 10
			px[(row+col+1)%3] = 1
			px[(row+col+2)%3] = 1
		}
	}
	scaler := &stats.StandardScaler{Mean: []float64{0, 0, 0}, Std: []float64{1, 1, 1}}
	labels, err := dataprep.NewLabelSet([]dataprep.Class{
		{Name: "seagrass", Code: 1}, {Name: "land", Code: 2}, {Name: "water", Code: 4},
	})
	if err != nil {
		t.Fatalf("NewLabelSet failed: %v", err)
	}
	return r, scaler, labels
}

func TestRasterGridMatchesInput(t *testing.T) {
	r, scaler, labels := setup(t)
	p := &bandPicker{}
	grid, err := Raster(r, p, scaler, labels, Options{BatchSize: 4})
	if err != nil {
		t.Fatalf("Raster failed: %v", err)
	}
	if grid.Height != 3 || grid.Width != 5 || len(grid.Codes) != 15 {
		t.Fatalf("unexpected grid %dx%d", grid.Height, grid.Width)
	}
	if len(p.calls) != 4 || p.calls[3] != 3 {
		t.Fatalf("unexpected batches %v", p.calls)
	}
	codes := []uint8{1, 2, 4}
	for row := 0; row < 3; row++ {
		for col := 0; col < 5; col++ {
			if got, want := grid.At(row, col), codes[(row+col)%3]; got != want {
				t.Fatalf("pixel (%d,%d): got %d want %d", row, col, got, want)
			}
		}
	}
	for code := range Histogram(grid) {
		if _, err := labels.IndexOfCode(int(code)); err != nil {
			t.Fatalf("emitted code %d outside label set", code)
		}
	}
}

func TestRasterNoDataAndMissing(t *testing.T) {
	r, scaler, labels := setup(t)
	copy(r.Pixel(0, 0), []float64{0, 0, 0})
	r.Pixel(2, 4)[0] = math.NaN()

	nd := uint8(0)
	grid, err := Raster(r, &bandPicker{}, scaler, labels, Options{NoData: &nd})
	if err != nil {
		t.Fatalf("Raster failed: %v", err)
	}
	if grid.At(0, 0) != 0 || grid.At(2, 4) != 0 {
		t.Fatalf("invalid pixels should be no-data, got %d and %d", grid.At(0, 0), grid.At(2, 4))
	}
	if Histogram(grid)[0] != 2 {
		t.Fatalf("expected 2 no-data pixels")
	}

	grid, err = Raster(r, &bandPicker{}, scaler, labels, Options{})
	if err != nil {
		t.Fatalf("Raster failed: %v", err)
	}
	for _, c := range grid.Codes {
		if c != 1 && c != 2 && c != 4 {
			t.Fatalf("code %d outside label set without no-data", c)
		}
	}
}

func TestRasterRequiresFittedMatchingScaler(t *testing.T) {
	r, _, labels := setup(t)
	if _, err := Raster(r, &bandPicker{}, stats.NewStandardScaler(), labels, Options{}); err != stats.ErrNotFitted {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	narrow := &stats.StandardScaler{Mean: []float64{0, 0}, Std: []float64{1, 1}}
	if _, err := Raster(r, &bandPicker{}, narrow, labels, Options{}); err == nil {
		t.Fatalf("expected band mismatch error")
	}
}

func TestRasterWithTrainedCNN(t *testing.T) {
	r := raster.New(4, 4, 4)
	for i := range r.Data {
		r.Data[i] = float64(i%7) + 1
	}
	scaler := stats.NewStandardScaler()
	if err := scaler.Fit(r.Matrix()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	labels, _ := dataprep.NewLabelSet([]dataprep.Class{{Name: "a", Code: 3}, {Name: "b", Code: 9}})
	net, err := model.NewCNN(4, 2, 3, model.DropoutRate, 1)
	if err != nil {
		t.Fatalf("NewCNN failed: %v", err)
	}
	grid, err := Raster(r, net, scaler, labels, Options{BatchSize: 5})
	if err != nil {
		t.Fatalf("Raster failed: %v", err)
	}
	if grid.Height != 4 || grid.Width != 4 {
		t.Fatalf("unexpected grid shape")
	}
	for _, c := range grid.Codes {
		if c != 3 && c != 9 {
			t.Fatalf("code %d outside label set", c)
		}
	}
	if r.Data[0] != 1 {
		t.Fatalf("classification must not modify the raster")
	}
}
