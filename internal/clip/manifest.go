package clip

import (
	"bufio"
	"encoding/csv"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ManifestFile is written into the model folder after every clip run.
const ManifestFile = "manifest.csv"

var manifestHeader = []string{
	"region", "region_name", "constituent", "path",
	"lat_min", "lat_max", "lon_min", "lon_max", "rows", "cols",
}

// Entry describes one regional constituent grid.
type Entry struct {
	Region      int
	RegionName  string
	Constituent string
	Path        string // relative to the model folder
	LatMin      float64
	LatMax      float64
	LonMin      float64
	LonMax      float64
	Rows        int
	Cols        int
}

func newEntry(regionID int, regionName, code, path string, g Grid) Entry {
	b := g.Bound()
	return Entry{
		Region:      regionID,
		RegionName:  regionName,
		Constituent: code,
		Path:        path,
		LatMin:      b.Bottom(),
		LatMax:      b.Top(),
		LonMin:      b.Left(),
		LonMax:      b.Right(),
		Rows:        g.Rows(),
		Cols:        g.Cols(),
	}
}

func (e Entry) toRow() []string {
	return []string{
		strconv.Itoa(e.Region),
		e.RegionName,
		e.Constituent,
		filepath.ToSlash(e.Path),
		formatCoord(e.LatMin),
		formatCoord(e.LatMax),
		formatCoord(e.LonMin),
		formatCoord(e.LonMax),
		strconv.Itoa(e.Rows),
		strconv.Itoa(e.Cols),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Region != entries[j].Region {
			return entries[i].Region < entries[j].Region
		}
		return entries[i].Constituent < entries[j].Constituent
	})
}

// WriteManifest replaces path with one row per entry, ordered by region then
// constituent.
func WriteManifest(fs afero.Fs, path string, entries []Entry) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrap(err, "Create manifest ["+path+"] failed")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "Close manifest ["+path+"] failed")
		}
	}()

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err = w.Write(manifestHeader); err != nil {
		return errors.Wrap(err, "Write manifest ["+path+"] failed")
	}
	for _, e := range sorted {
		if err = w.Write(e.toRow()); err != nil {
			return errors.Wrap(err, "Write manifest ["+path+"] failed")
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrap(err, "Write manifest ["+path+"] failed")
	}
	return bw.Flush()
}

// ReadManifest parses a manifest written by WriteManifest.
func ReadManifest(fs afero.Fs, path string) ([]Entry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open manifest ["+path+"] failed")
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(bufio.NewReader(f)).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "Read manifest ["+path+"] failed")
	}
	if len(rows) == 0 {
		return nil, errors.New("manifest [" + path + "] has no header")
	}

	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e, err := parseRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "manifest [%s] line %d", path, i+2)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRow(row []string) (e Entry, err error) {
	if len(row) != len(manifestHeader) {
		return e, errors.Errorf("expected %d columns, got %d", len(manifestHeader), len(row))
	}
	if e.Region, err = strconv.Atoi(row[0]); err != nil {
		return e, err
	}
	e.RegionName = row[1]
	e.Constituent = row[2]
	e.Path = filepath.FromSlash(row[3])
	coords := []*float64{&e.LatMin, &e.LatMax, &e.LonMin, &e.LonMax}
	for i, c := range coords {
		if *c, err = strconv.ParseFloat(row[4+i], 64); err != nil {
			return e, err
		}
	}
	if e.Rows, err = strconv.Atoi(row[8]); err != nil {
		return e, err
	}
	e.Cols, err = strconv.Atoi(row[9])
	return e, err
}
