// Package locate finds the clipped tide model on disk.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edward-yakop/go-tidemodel/internal/fes"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/edward-yakop/go-tidemodel/internal/region"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	ErrModelNotFound   = errors.New("tide model not found")
	ErrModelIncomplete = errors.New("tide model incomplete")
	ErrNoRegion        = errors.New("no region covers the point")
)

type Locator struct {
	fs      afero.Fs
	dir     string
	regions []region.Region
}

func New(fs afero.Fs, dir string, regions []region.Region) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(regions) == 0 {
		regions = region.Default()
	}
	return &Locator{
		fs:      fs,
		dir:     dir,
		regions: regions,
	}
}

// Locate returns the absolute model folder once every region holds at least
// one clipped constituent grid.
func (l *Locator) Locate() (string, error) {
	dir, err := l.absDir()
	if err != nil {
		return "", err
	}

	missing := make([]string, 0)
	for _, r := range l.regions {
		ok, err := l.hasGrids(dir, r)
		if err != nil {
			return "", err
		}
		if !ok {
			missing = append(missing, r.Dir())
		}
	}
	if len(missing) > 0 {
		return "", errors.Wrap(ErrModelIncomplete,
			fmt.Sprintf("[%s] misses %s, run the clip step", dir, strings.Join(missing, ", ")))
	}
	return dir, nil
}

// RegionPath returns the folder with the clipped grids covering the point.
func (l *Locator) RegionPath(lon, lat float64) (string, error) {
	r, ok := region.Find(l.regions, lon, lat)
	if !ok {
		return "", errors.Wrapf(ErrNoRegion, "lon %.4f lat %.4f", lon, lat)
	}

	dir, err := l.absDir()
	if err != nil {
		return "", err
	}
	ok, err = l.hasGrids(dir, r)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Wrap(ErrModelIncomplete, "["+dir+"] misses "+r.Dir())
	}
	return fes.OceanTideDir(region.Path(dir, r)), nil
}

func (l *Locator) absDir() (string, error) {
	if l.dir == "" {
		return "", errors.Wrap(ErrModelNotFound, "model folder not configured")
	}
	dir, err := filepath.Abs(l.dir)
	if err != nil {
		return "", errors.Wrap(err, "Resolve ["+l.dir+"] failed")
	}
	ok, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return "", errors.Wrap(err, "Stat ["+dir+"] failed")
	}
	if !ok {
		return "", errors.Wrap(ErrModelNotFound, "["+dir+"] does not exist, run the download step")
	}
	return dir, nil
}

func (l *Locator) hasGrids(dir string, r region.Region) (bool, error) {
	files, err := misc.ListFiles(l.fs, fes.OceanTideDir(region.Path(dir, r)), ".nc")
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "List "+r.Dir()+" failed")
	}
	return len(files) > 0, nil
}
