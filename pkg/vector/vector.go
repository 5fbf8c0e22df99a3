package vector

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"landcover/pkg/raster"
)

var (
	ErrNoLayer    = errors.New("vector: file has no layers")
	ErrNoGeometry = errors.New("vector: feature has no geometry")
)

// Sample is one labeled polygon. Err is set, and Geometry nil, when the
// feature's geometry could not be read or reprojected.
type Sample struct {
	Index    int
	Class    string
	Geometry orb.Geometry
	Err      error
}

// Collection is the sample set read from a vector file.
type Collection struct {
	Samples []Sample
	// WKT is the CRS the geometries are expressed in.
	WKT string
}

// Load reads the first layer of a vector file and returns its features with
// the class attribute. Geometries are brought into the raster's CRS; when the
// raster has none it adopts the layer's (r.WKT is updated).
func Load(path, classColumn string, r *raster.Raster) (*Collection, error) {
	raster.Register()
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("vector: open %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, ErrNoLayer
	}
	layer := layers[0]

	var layerWKT string
	layerSR := layer.SpatialRef()
	if layerSR != nil {
		layerWKT, _ = layerSR.WKT()
	}

	var target *godal.SpatialRef
	switch {
	case r.WKT == "":
		r.WKT = layerWKT
	case layerWKT != "":
		target, err = godal.NewSpatialRefFromWKT(r.WKT)
		if err != nil {
			return nil, fmt.Errorf("vector: raster CRS: %w", err)
		}
		defer target.Close()
		if layerSR.IsSame(target) {
			target = nil
		}
	}

	c := &Collection{WKT: r.WKT}
	layer.ResetReading()
	for i := 0; ; i++ {
		f := layer.NextFeature()
		if f == nil {
			break
		}
		s, err := readFeature(f, i, classColumn, target)
		f.Close()
		if err != nil {
			return nil, err
		}
		c.Samples = append(c.Samples, s)
	}
	return c, nil
}

// readFeature fails only when the class attribute is missing. Geometry
// problems stay with the sample so one bad feature does not end the run.
func readFeature(f *godal.Feature, i int, classColumn string, target *godal.SpatialRef) (Sample, error) {
	field, ok := f.Fields()[classColumn]
	if !ok {
		return Sample{}, fmt.Errorf("vector: feature %d has no %q attribute", i, classColumn)
	}
	s := Sample{Index: i, Class: field.String()}
	s.Geometry, s.Err = readGeometry(f, target)
	return s, nil
}

func readGeometry(f *godal.Feature, target *godal.SpatialRef) (orb.Geometry, error) {
	g := f.Geometry()
	defer g.Close()
	if g.Empty() {
		return nil, ErrNoGeometry
	}
	if target != nil {
		if err := g.Reproject(target); err != nil {
			return nil, fmt.Errorf("vector: reproject: %w", err)
		}
	}
	data, err := g.WKB()
	if err != nil {
		return nil, fmt.Errorf("vector: export geometry: %w", err)
	}
	geom, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("vector: decode geometry: %w", err)
	}
	return geom, nil
}

// Sample draws n samples at random (seeded) keeping their original order.
// n <= 0 or n >= len returns all samples.
func (c *Collection) Sample(n int, seed int64) []Sample {
	if n <= 0 || n >= len(c.Samples) {
		return c.Samples
	}
	idx := rand.New(rand.NewSource(seed)).Perm(len(c.Samples))[:n]
	sort.Ints(idx)
	out := make([]Sample, n)
	for k, i := range idx {
		out[k] = c.Samples[i]
	}
	return out
}

// Classes counts samples per class name.
func (c *Collection) Classes() map[string]int {
	out := map[string]int{}
	for _, s := range c.Samples {
		out[s.Class]++
	}
	return out
}
