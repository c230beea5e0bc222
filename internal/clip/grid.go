package clip

import (
	"sort"

	"github.com/edward-yakop/go-tidemodel/internal/region"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Grid of one tidal constituent. Amplitude and Phase are row-major, one row
// per latitude.
type Grid struct {
	Lat       []float64
	Lon       []float64
	Amplitude []float64
	Phase     []float64
}

func (g Grid) Rows() int {
	return len(g.Lat)
}

func (g Grid) Cols() int {
	return len(g.Lon)
}

func (g Grid) Validate() error {
	if len(g.Lat) == 0 || len(g.Lon) == 0 {
		return errors.New("grid has an empty axis")
	}
	n := len(g.Lat) * len(g.Lon)
	if len(g.Amplitude) != n {
		return errors.Errorf("amplitude holds %d values, expected %d", len(g.Amplitude), n)
	}
	if len(g.Phase) != n {
		return errors.Errorf("phase holds %d values, expected %d", len(g.Phase), n)
	}
	return nil
}

// Bound of the grid axes.
func (g Grid) Bound() orb.Bound {
	b := orb.Bound{Min: orb.Point{g.Lon[0], g.Lat[0]}, Max: orb.Point{g.Lon[0], g.Lat[0]}}
	for _, lat := range g.Lat {
		b = b.Extend(orb.Point{g.Lon[0], lat})
	}
	for _, lon := range g.Lon {
		b = b.Extend(orb.Point{lon, g.Lat[0]})
	}
	return b
}

type lonIndex struct {
	idx int
	key float64
}

// Subset cuts the window b out of g. Longitudes of g may use either the
// 0..360 or the -180..180 convention; the subset uses -180..180, except for a
// window crossing the antimeridian (b.Min[0] > b.Max[0]) which keeps counting
// past 180 so the axis stays ascending.
func Subset(g Grid, b orb.Bound) (Grid, error) {
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}

	latIdx := make([]int, 0)
	for i, lat := range g.Lat {
		if lat >= b.Bottom() && lat <= b.Top() {
			latIdx = append(latIdx, i)
		}
	}

	left, right := b.Left(), b.Right()
	crossing := left > right
	lons := make([]lonIndex, 0)
	for i, lon := range g.Lon {
		n := region.NormalizeLon(lon)
		switch {
		case !crossing && n >= left && n <= right:
			lons = append(lons, lonIndex{idx: i, key: n})
		case crossing && n >= left:
			lons = append(lons, lonIndex{idx: i, key: n})
		case crossing && n <= right:
			lons = append(lons, lonIndex{idx: i, key: n + 360})
		}
	}
	sort.SliceStable(lons, func(i, j int) bool {
		return lons[i].key < lons[j].key
	})
	lons = dedupLon(lons)

	if len(latIdx) == 0 || len(lons) == 0 {
		return Grid{}, errors.Errorf("window [%.3f, %.3f, %.3f, %.3f] selects no grid cell",
			left, b.Bottom(), right, b.Top())
	}

	cols := len(g.Lon)
	out := Grid{
		Lat:       make([]float64, len(latIdx)),
		Lon:       make([]float64, len(lons)),
		Amplitude: make([]float64, 0, len(latIdx)*len(lons)),
		Phase:     make([]float64, 0, len(latIdx)*len(lons)),
	}
	for j, l := range lons {
		out.Lon[j] = l.key
	}
	for i, li := range latIdx {
		out.Lat[i] = g.Lat[li]
		row := li * cols
		for _, l := range lons {
			out.Amplitude = append(out.Amplitude, g.Amplitude[row+l.idx])
			out.Phase = append(out.Phase, g.Phase[row+l.idx])
		}
	}
	return out, nil
}

// dedupLon drops the duplicate produced by grids holding both 0 and 360.
func dedupLon(lons []lonIndex) []lonIndex {
	if len(lons) < 2 {
		return lons
	}
	out := lons[:1]
	for _, l := range lons[1:] {
		if l.key != out[len(out)-1].key {
			out = append(out, l)
		}
	}
	return out
}
