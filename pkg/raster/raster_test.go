package raster

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

const utm55s = `PROJCS["WGS 84 / UTM zone 55S",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",147],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",10000000],UNIT["metre",1],AUTHORITY["EPSG","32755"]]`

func geoRaster() *Raster {
	r := New(4, 5, 3)
	r.GeoTransform = [6]float64{1000, 10, 0, 2000, 0, -10}
	return r
}

func TestPixelWorldRoundTrip(t *testing.T) {
	r := geoRaster()
	p := r.PixelCenter(2, 3)
	if p != (orb.Point{1035, 1975}) {
		t.Fatalf("unexpected centre %v", p)
	}
	col, row, err := r.ToPixel(p)
	if err != nil {
		t.Fatalf("ToPixel failed: %v", err)
	}
	if math.Abs(col-3.5) > 1e-9 || math.Abs(row-2.5) > 1e-9 {
		t.Fatalf("unexpected pixel %v,%v", col, row)
	}
	b := r.Bound()
	if b.Min != (orb.Point{1000, 1960}) || b.Max != (orb.Point{1050, 2000}) {
		t.Fatalf("unexpected bound %v", b)
	}
}

func TestWindowClampsToRaster(t *testing.T) {
	r := geoRaster()
	row0, row1, col0, col1, err := r.Window(orb.Bound{Min: orb.Point{1015, 1900}, Max: orb.Point{1100, 1985}})
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if row0 != 1 || row1 != 4 || col0 != 1 || col1 != 5 {
		t.Fatalf("unexpected window rows [%d,%d) cols [%d,%d)", row0, row1, col0, col1)
	}
	row0, row1, _, _, _ = r.Window(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})
	if row1 > row0 {
		t.Fatalf("expected empty window for far-away bound")
	}
	r.GeoTransform = [6]float64{}
	if _, _, _, _, err := r.Window(orb.Bound{}); err != ErrTransform {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}

func TestMatrixSharesPixelOrder(t *testing.T) {
	r := New(2, 2, 2)
	copy(r.Pixel(1, 0), []float64{7, 8})
	m := r.Matrix()
	if m.R != 4 || m.C != 2 || m.At(2, 0) != 7 || m.At(2, 1) != 8 {
		t.Fatalf("unexpected matrix %+v", m)
	}
}

func TestGeoTIFFRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := geoRaster()
	r.WKT = utm55s
	for i := range r.Data {
		r.Data[i] = float64(i) / 10
	}
	r.Pixel(0, 0)[1] = math.NaN()

	path := filepath.Join(dir, "src.tif")
	if err := Save(path, r); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got.Height != 4 || got.Width != 5 || got.Bands != 3 {
		t.Fatalf("unexpected shape %dx%dx%d", got.Height, got.Width, got.Bands)
	}
	if got.GeoTransform != r.GeoTransform {
		t.Fatalf("geotransform changed: %v", got.GeoTransform)
	}
	if got.WKT == "" {
		t.Fatalf("projection lost")
	}
	if !math.IsNaN(got.Pixel(0, 0)[1]) {
		t.Fatalf("no-data should read back as NaN")
	}
	if got.Pixel(3, 4)[2] != r.Pixel(3, 4)[2] {
		t.Fatalf("pixel value changed: %v", got.Pixel(3, 4))
	}

	labels := NewLabelGrid(4, 5)
	for i := range labels.Codes {
		labels.Codes[i] = uint8(i % 6)
	}
	nodata := uint8(0)
	lpath := filepath.Join(dir, "labels.tif")
	if err := WriteLabels(lpath, labels, got, &nodata); err != nil {
		t.Fatalf("WriteLabels failed: %v", err)
	}
	back, nd, err := ReadLabels(lpath)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}
	if nd == nil || *nd != 0 {
		t.Fatalf("expected no-data 0, got %v", nd)
	}
	for i := range labels.Codes {
		if back.Codes[i] != labels.Codes[i] {
			t.Fatalf("label %d changed", i)
		}
	}
	lr, err := Open(lpath)
	if err != nil {
		t.Fatalf("Open labels failed: %v", err)
	}
	if lr.GeoTransform != r.GeoTransform || lr.WKT == "" {
		t.Fatalf("label raster is not registered with its source")
	}

	if err := WriteLabels(lpath, NewLabelGrid(1, 1), got, nil); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
	if _, err := Open(filepath.Join(dir, "missing.tif")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
