// Package region describes the geographic windows the global tide model is
// clipped into. Regions come from a GeoJSON FeatureCollection whose features
// carry an integer "region_id" property; the bounding box of each feature's
// geometry is the clip window.
package region

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	idProperty   = "region_id"
	nameProperty = "name"
)

//go:embed tide_regions_map.geojson
var defaultMap []byte

type Region struct {
	ID    int
	Name  string
	Bound orb.Bound
}

// Dir is the folder name of the region below the model folder.
func (r Region) Dir() string {
	return fmt.Sprintf("region%d", r.ID)
}

// Contains reports whether the point is inside the region. Longitudes may be
// given in either -180..180 or 0..360.
func (r Region) Contains(lon, lat float64) bool {
	lon = NormalizeLon(lon)
	if lat < r.Bound.Bottom() || lat > r.Bound.Top() {
		return false
	}
	if r.Bound.Left() <= r.Bound.Right() {
		return lon >= r.Bound.Left() && lon <= r.Bound.Right()
	}
	// Window crossing the antimeridian.
	return lon >= r.Bound.Left() || lon <= r.Bound.Right()
}

func (r Region) String() string {
	return fmt.Sprintf("%s %q [%.2f, %.2f, %.2f, %.2f]",
		r.Dir(), r.Name, r.Bound.Left(), r.Bound.Bottom(), r.Bound.Right(), r.Bound.Top())
}

// NormalizeLon maps a longitude into -180..180.
func NormalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Default returns the embedded region map.
func Default() []Region {
	regions, err := Parse(defaultMap)
	if err != nil {
		panic(errors.Wrap(err, "Embedded region map is invalid"))
	}
	return regions
}

// Load reads a region map from fs. A blank path means the embedded map.
func Load(fs afero.Fs, path string) ([]Region, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read region map ["+path+"]")
	}

	regions, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid region map ["+path+"]")
	}
	return regions, nil
}

// Parse decodes a GeoJSON FeatureCollection into regions sorted by ID.
func Parse(data []byte) ([]Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("region map has no features")
	}

	seen := make(map[int]bool, len(fc.Features))
	regions := make([]Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, errors.Errorf("feature %d has no geometry", i)
		}
		id, ok := intProperty(f.Properties, idProperty)
		if !ok || id < 0 {
			return nil, errors.Errorf("feature %d has no valid %s property", i, idProperty)
		}
		if seen[id] {
			return nil, errors.Errorf("duplicate %s %d", idProperty, id)
		}
		seen[id] = true

		bound := f.Geometry.Bound()
		if bound.Left() == bound.Right() || bound.Bottom() == bound.Top() {
			return nil, errors.Errorf("region %d has an empty bound", id)
		}

		name, _ := f.Properties[nameProperty].(string)
		if name == "" {
			name = fmt.Sprintf("region %d", id)
		}

		regions = append(regions, Region{
			ID:    id,
			Name:  name,
			Bound: bound,
		})
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].ID < regions[j].ID
	})
	return regions, nil
}

func intProperty(p geojson.Properties, key string) (int, bool) {
	switch v := p[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Find returns the first region containing the point.
func Find(regions []Region, lon, lat float64) (Region, bool) {
	for _, r := range regions {
		if r.Contains(lon, lat) {
			return r, true
		}
	}
	return Region{}, false
}

// Path of the region folder below modelDir.
func Path(modelDir string, r Region) string {
	return filepath.Join(modelDir, r.Dir())
}
