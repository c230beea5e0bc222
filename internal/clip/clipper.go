// Package clip cuts the global FES2014 constituent grids into one subset per
// region so a tide lookup only has to open a small file.
package clip

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/edward-yakop/go-tidemodel/api/constituent"
	"github.com/edward-yakop/go-tidemodel/internal/fes"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/edward-yakop/go-tidemodel/internal/region"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const defaultParallel = 2

var log = misc.NewLogger("Clip", 2)

// ErrModelNotDownloaded is returned when no global grid is found.
var ErrModelNotDownloaded = errors.New("tide model not downloaded")

// Options of a Clipper.
type Options struct {
	ModelDir string
	Regions  []region.Region // defaults to region.Default()
	Parallel int
	Force    bool         // overwrite existing regional grids
	Store    Store        // defaults to NetCDFStore
	Fs       afero.Fs     // defaults to the OS filesystem
	Listener fes.Listener // called once per constituent
}

// Result of a clip run.
type Result struct {
	Entries  []Entry
	Clipped  int // regional grids written
	Skipped  int // regional grids kept from an earlier run
	Manifest string
}

type Clipper struct {
	opts Options
}

func NewClipper(opts Options) *Clipper {
	if len(opts.Regions) == 0 {
		opts.Regions = region.Default()
	}
	if opts.Parallel <= 0 {
		opts.Parallel = defaultParallel
	}
	if opts.Store == nil {
		opts.Store = NetCDFStore{}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Listener == nil {
		opts.Listener = func(string, error, int, int) {}
	}
	return &Clipper{opts: opts}
}

// globalGrids lists the downloaded constituent grids by code.
func (c *Clipper) globalGrids() (map[string]string, error) {
	dir := fes.OceanTideDir(c.opts.ModelDir)
	files, err := misc.ListFiles(c.opts.Fs, dir, ".nc")
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "List ["+dir+"] failed")
	}

	grids := make(map[string]string, len(files))
	for _, f := range files {
		if m := constituent.GetMetadataByFileName(filepath.Base(f)); m != nil {
			grids[m.Code()] = f
		}
	}
	if len(grids) == 0 {
		return nil, errors.Wrap(ErrModelNotDownloaded, "no constituent grid in ["+dir+"]")
	}
	return grids, nil
}

// Run clips every downloaded constituent into every region and rewrites the
// manifest.
func (c *Clipper) Run(ctx context.Context) (*Result, error) {
	grids, err := c.globalGrids()
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(grids))
	for _, m := range constituent.All() {
		if _, ok := grids[m.Code()]; ok {
			codes = append(codes, m.Code())
		}
	}
	log.Info("Clipping %d constituents into %d regions.", len(codes), len(c.opts.Regions))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	go func() {
		defer close(jobs)
		for _, code := range codes {
			select {
			case jobs <- code:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		curr     int
		firstErr error
		result   = &Result{}
	)
	for i := 0; i < c.opts.Parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range jobs {
				entries, clipped, err := c.clipConstituent(ctx, code, grids[code])

				mu.Lock()
				curr++
				c.opts.Listener(code, err, curr, len(codes))
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					cancel()
				} else {
					result.Entries = append(result.Entries, entries...)
					result.Clipped += clipped
					result.Skipped += len(entries) - clipped
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	sortEntries(result.Entries)
	result.Manifest = filepath.Join(c.opts.ModelDir, ManifestFile)
	if err = WriteManifest(c.opts.Fs, result.Manifest, result.Entries); err != nil {
		return nil, err
	}
	log.Info("Clipped %d grids, kept %d, manifest at %s.", result.Clipped, result.Skipped, result.Manifest)
	return result, nil
}

// clipConstituent reads the global grid at most once and writes the subset of
// every region still missing.
func (c *Clipper) clipConstituent(ctx context.Context, code, globalPath string) ([]Entry, int, error) {
	var (
		global  *Grid
		entries = make([]Entry, 0, len(c.opts.Regions))
		clipped int
	)

	for _, r := range c.opts.Regions {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		dir := fes.OceanTideDir(region.Path(c.opts.ModelDir, r))
		target := fes.ConstituentPath(region.Path(c.opts.ModelDir, r), code)
		rel, _ := filepath.Rel(c.opts.ModelDir, target)

		if !c.opts.Force {
			if ok, _ := afero.Exists(c.opts.Fs, target); ok {
				sub, err := c.opts.Store.Read(target)
				if err == nil {
					entries = append(entries, newEntry(r.ID, r.Name, code, rel, sub))
					continue
				}
				log.Warn("Regional grid %s is unreadable, clipping again: %v.", target, err)
			}
		}

		if global == nil {
			g, err := c.opts.Store.Read(globalPath)
			if err != nil {
				return nil, 0, errors.Wrap(err, "Read global grid ["+code+"] failed")
			}
			global = &g
		}

		sub, err := Subset(*global, r.Bound)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "Clip [%s] to %s failed", code, r.Dir())
		}
		if err = c.opts.Fs.MkdirAll(dir, 0755); err != nil {
			return nil, 0, errors.Wrap(err, "Create folder ["+dir+"] failed")
		}
		if err = c.opts.Store.Write(target, sub); err != nil {
			return nil, 0, err
		}
		log.Trace("Clipped %s to %s: %dx%d.", code, r.Dir(), sub.Rows(), sub.Cols())

		entries = append(entries, newEntry(r.ID, r.Name, code, rel, sub))
		clipped++
	}
	return entries, clipped, nil
}
