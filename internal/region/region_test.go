package region

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRegions = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"region_id": 7, "name": "Monterey Bay"},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.5, 36.4], [-121.7, 36.4], [-121.7, 37.1], [-122.5, 37.1], [-122.5, 36.4]]]}},
    {"type": "Feature", "properties": {"region_id": 2},
     "geometry": {"type": "Polygon", "coordinates": [[[-10, 40], [5, 40], [5, 52], [-10, 52], [-10, 40]]]}}
  ]
}`

func TestDefault(t *testing.T) {
	regions := Default()
	require.Len(t, regions, 12)
	for i, r := range regions {
		assert.Equal(t, i, r.ID)
		assert.NotEmpty(t, r.Name)
	}

	// every point on the globe falls into one of the default regions
	for _, p := range [][2]float64{{-179.9, 89}, {0, 0}, {179.9, -89}, {200, 10}, {-122, 36.9}} {
		_, ok := Find(regions, p[0], p[1])
		assert.Truef(t, ok, "point %v", p)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/regions.geojson", []byte(twoRegions), 0644))

	regions, err := Load(fs, "/cfg/regions.geojson")
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, 2, regions[0].ID)
	assert.Equal(t, "region 2", regions[0].Name)
	assert.Equal(t, orb.Bound{Min: orb.Point{-10, 40}, Max: orb.Point{5, 52}}, regions[0].Bound)

	assert.Equal(t, 7, regions[1].ID)
	assert.Equal(t, "Monterey Bay", regions[1].Name)
	assert.Equal(t, "region7", regions[1].Dir())
	assert.Equal(t, filepath.Join("/tide_model", "region7"), Path("/tide_model", regions[1]))
}

func TestLoad_blankPathUsesDefault(t *testing.T) {
	regions, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Len(t, regions, 12)
}

func TestLoad_errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "/missing.geojson")
	assert.Error(t, err)

	for name, content := range map[string]string{
		"notJson":   "{",
		"empty":     `{"type": "FeatureCollection", "features": []}`,
		"noId":      `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
		"duplicate": `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"region_id": 1}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}, {"type": "Feature", "properties": {"region_id": 1}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
		"stringId":  `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"region_id": "a"}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
		"point":     `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"region_id": 1}, "geometry": {"type": "Point", "coordinates": [1, 1]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, afero.WriteFile(fs, "/"+name, []byte(content), 0644))
			_, err := Load(fs, "/"+name)
			assert.Error(t, err)
		})
	}
}

func TestRegion_Contains(t *testing.T) {
	r := Region{ID: 1, Bound: orb.Bound{Min: orb.Point{-10, 40}, Max: orb.Point{5, 52}}}
	assert.True(t, r.Contains(-5, 45))
	assert.True(t, r.Contains(355, 45))
	assert.False(t, r.Contains(6, 45))
	assert.False(t, r.Contains(0, 53))

	antimeridian := Region{ID: 2, Bound: orb.Bound{Min: orb.Point{170, -20}, Max: orb.Point{-170, 0}}}
	assert.True(t, antimeridian.Contains(175, -10))
	assert.True(t, antimeridian.Contains(-175, -10))
	assert.True(t, antimeridian.Contains(185, -10))
	assert.False(t, antimeridian.Contains(0, -10))
}

func TestNormalizeLon(t *testing.T) {
	assert.Equal(t, -170.0, NormalizeLon(190))
	assert.Equal(t, 180.0, NormalizeLon(180))
	assert.Equal(t, 10.0, NormalizeLon(-350))
	assert.Equal(t, 0.0, NormalizeLon(360))
}
