package extract

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"landcover/pkg/dataprep"
	"landcover/pkg/raster"
	"landcover/pkg/vector"
)

func rect(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

// 10x10 raster, 3 bands, 1 unit pixels, top-left corner at (0, 10).
func testRaster() *raster.Raster {
	r := raster.New(10, 10, 3)
	r.GeoTransform = [6]float64{0, 1, 0, 10, 0, -1}
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			copy(r.Pixel(row, col), []float64{0.1, 0.2, float64(row*10 + col)})
		}
	}
	// inside the water polygon: one empty pixel, one with a missing band
	copy(r.Pixel(0, 5), []float64{0, 0, 0})
	r.Pixel(1, 5)[1] = math.NaN()
	return r
}

func testLabels(t *testing.T) *dataprep.LabelSet {
	t.Helper()
	ls, err := dataprep.NewLabelSet([]dataprep.Class{
		{Name: "seagrass", Code: 1},
		{Name: "land", Code: 2},
		{Name: "water", Code: 4},
	})
	if err != nil {
		t.Fatalf("NewLabelSet failed: %v", err)
	}
	return ls
}

func TestExtractTwoPolygons(t *testing.T) {
	samples := []vector.Sample{
		{Index: 0, Class: "water", Geometry: rect(0, 8, 6, 10)}, // 12 pixels, 2 invalid
		{Index: 1, Class: "land", Geometry: rect(5, 3, 9, 5)},   // 8 pixels
	}
	res, err := Extract(testRaster(), samples, testLabels(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.X.R != 18 || res.X.C != 3 || res.Len() != 18 {
		t.Fatalf("expected 18x3 features, got %dx%d", res.X.R, res.X.C)
	}
	counts := res.Counts()
	if counts[4] != 10 || counts[2] != 8 || len(counts) != 2 {
		t.Fatalf("unexpected label counts %v", counts)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skipped samples %v", res.Skipped)
	}
	for i := 0; i < res.X.R; i++ {
		if dataprep.HasMissing(res.X.Row(i)) || !dataprep.ValidPixel(res.X.Row(i)) {
			t.Fatalf("row %d is invalid: %v", i, res.X.Row(i))
		}
	}
	// first land row is pixel (5,5)
	if res.X.At(10, 2) != 55 {
		t.Fatalf("unexpected first land pixel %v", res.X.Row(10))
	}
}

func TestExtractSkipsPolygonOutsideRaster(t *testing.T) {
	samples := []vector.Sample{
		{Index: 0, Class: "water", Geometry: rect(100, 100, 110, 110)},
		{Index: 1, Class: "land", Geometry: orb.LineString{{1, 1}, {2, 2}}},
		{Index: 2, Class: "seagrass", Geometry: rect(5.6, 8.1, 5.9, 8.4)},
	}
	res, err := Extract(testRaster(), samples, testLabels(t))
	if err != nil {
		t.Fatalf("Extract must not fail on bad samples: %v", err)
	}
	if res.Len() != 0 || res.X.R != 0 {
		t.Fatalf("expected no rows, got %d", res.Len())
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("expected 3 skipped samples, got %v", res.Skipped)
	}
	if !errors.Is(res.Skipped[0].Reason, ErrNoOverlap) {
		t.Fatalf("unexpected reason %v", res.Skipped[0].Reason)
	}
	if !errors.Is(res.Skipped[1].Reason, ErrGeometryType) {
		t.Fatalf("unexpected reason %v", res.Skipped[1].Reason)
	}
	if !errors.Is(res.Skipped[2].Reason, ErrNoValidPixels) {
		t.Fatalf("unexpected reason %v", res.Skipped[2].Reason)
	}
}

func TestExtractMultiPolygonAndPartialOverlap(t *testing.T) {
	mp := orb.MultiPolygon{rect(0, 0, 1, 1), rect(9, 0, 12, 1)}
	res, err := Extract(testRaster(), []vector.Sample{{Class: "seagrass", Geometry: mp}}, testLabels(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", res.Len())
	}
}

func TestExtractUnknownLabelIsFatal(t *testing.T) {
	_, err := Extract(testRaster(), []vector.Sample{{Class: "cloud", Geometry: rect(0, 0, 1, 1)}}, testLabels(t))
	if !errors.Is(err, dataprep.ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestExtractSkipsUnreadableGeometry(t *testing.T) {
	samples := []vector.Sample{
		{Index: 0, Class: "water", Err: vector.ErrNoGeometry},
		{Index: 1, Class: "land", Geometry: rect(0, 0, 2, 1)},
	}
	res, err := Extract(testRaster(), samples, testLabels(t))
	if err != nil {
		t.Fatalf("Extract must not fail on a sample without geometry: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Index != 0 || !errors.Is(res.Skipped[0].Reason, vector.ErrNoGeometry) {
		t.Fatalf("expected sample 0 skipped for missing geometry, got %v", res.Skipped)
	}
	if res.Len() != 2 || res.X.R != 2 || res.X.C != 3 || len(res.X.Data) != 6 {
		t.Fatalf("expected a 2x3 matrix, got %dx%d (%d values)", res.X.R, res.X.C, len(res.X.Data))
	}
	if got := res.X.Row(1); got[2] != 91 {
		t.Fatalf("unexpected second row %v", got)
	}
}
