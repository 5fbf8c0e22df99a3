package raster

import (
	"fmt"
	"math"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

// Register loads the GDAL drivers once per process.
func Register() { registerOnce.Do(godal.RegisterAll) }

// Open reads every band of a GDAL-readable raster into memory. Values equal
// to a band's no-data value become NaN.
func Open(path string) (*Raster, error) {
	Register()
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	if st.NBands == 0 {
		return nil, fmt.Errorf("raster: %s has no bands", path)
	}
	r := New(st.SizeY, st.SizeX, st.NBands)
	buf := make([]float64, st.SizeX*st.SizeY)
	for b, band := range ds.Bands() {
		if err := band.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
			return nil, fmt.Errorf("raster: read band %d of %s: %w", b+1, path, err)
		}
		nd, hasNoData := band.NoData()
		for i, v := range buf {
			if hasNoData && v == nd {
				v = math.NaN()
			}
			r.Data[i*r.Bands+b] = v
		}
	}

	r.WKT = ds.Projection()
	if gt, err := ds.GeoTransform(); err == nil {
		r.GeoTransform = gt
	}
	return r, nil
}

// Save writes r as a Float64 GeoTIFF, one band per raster band. NaN is kept
// as the no-data value.
func Save(path string, r *Raster) error {
	Register()
	ds, err := godal.Create(godal.GTiff, path, r.Bands, godal.Float64, r.Width, r.Height)
	if err != nil {
		return fmt.Errorf("raster: create %s: %w", path, err)
	}
	if err := georeference(ds, r); err != nil {
		ds.Close()
		return err
	}
	buf := make([]float64, r.Width*r.Height)
	for b, band := range ds.Bands() {
		for i := range buf {
			buf[i] = r.Data[i*r.Bands+b]
		}
		if err := band.SetNoData(math.NaN()); err != nil {
			ds.Close()
			return err
		}
		if err := band.Write(0, 0, buf, r.Width, r.Height); err != nil {
			ds.Close()
			return fmt.Errorf("raster: write band %d: %w", b+1, err)
		}
	}
	return ds.Close()
}

// WriteLabels writes a single-band Byte GeoTIFF of class codes using the
// CRS and geotransform of the source raster. nodata, when non-nil, is
// recorded as the band's no-data value.
func WriteLabels(path string, g *LabelGrid, src *Raster, nodata *uint8) error {
	if g.Height != src.Height || g.Width != src.Width {
		return fmt.Errorf("raster: label grid %dx%d does not match source %dx%d", g.Height, g.Width, src.Height, src.Width)
	}
	Register()
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, g.Width, g.Height)
	if err != nil {
		return fmt.Errorf("raster: create %s: %w", path, err)
	}
	if err := georeference(ds, src); err != nil {
		ds.Close()
		return err
	}
	band := ds.Bands()[0]
	if nodata != nil {
		if err := band.SetNoData(float64(*nodata)); err != nil {
			ds.Close()
			return err
		}
	}
	if err := band.Write(0, 0, g.Codes, g.Width, g.Height); err != nil {
		ds.Close()
		return fmt.Errorf("raster: write labels: %w", err)
	}
	return ds.Close()
}

func georeference(ds *godal.Dataset, r *Raster) error {
	if err := ds.SetGeoTransform(r.GeoTransform); err != nil {
		return fmt.Errorf("raster: set geotransform: %w", err)
	}
	if r.WKT != "" {
		if err := ds.SetProjection(r.WKT); err != nil {
			return fmt.Errorf("raster: set projection: %w", err)
		}
	}
	return nil
}

// ReadLabels reads back a single-band label raster.
func ReadLabels(path string) (*LabelGrid, *uint8, error) {
	Register()
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer ds.Close()
	st := ds.Structure()
	g := NewLabelGrid(st.SizeY, st.SizeX)
	band := ds.Bands()[0]
	if err := band.Read(0, 0, g.Codes, g.Width, g.Height); err != nil {
		return nil, nil, err
	}
	var nodata *uint8
	if nd, ok := band.NoData(); ok {
		v := uint8(nd)
		nodata = &v
	}
	return g, nodata, nil
}
