// Package tidemodel downloads the FES2014 ocean tide model, clips it into
// regional subsets and locates the result on disk.
//
//	m, err := tidemodel.New(tidemodel.Options{Dir: "tide_model"})
//	_, err = m.Download(ctx, auth.NewCredentials(user, password))
//	_, err = m.Clip(ctx)
//	dir, err := m.Locate(ctx)
package tidemodel

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/internal/clip"
	"github.com/edward-yakop/go-tidemodel/internal/core"
	"github.com/edward-yakop/go-tidemodel/internal/fes"
	"github.com/edward-yakop/go-tidemodel/internal/locate"
	"github.com/edward-yakop/go-tidemodel/internal/region"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultDir of the model when Options.Dir is blank.
const DefaultDir = "tide_model"

var (
	ErrModelNotFound      = locate.ErrModelNotFound
	ErrModelIncomplete    = locate.ErrModelIncomplete
	ErrModelNotDownloaded = clip.ErrModelNotDownloaded
	ErrUnauthorized       = core.ErrUnauthorized
)

// Listener is told about every constituent downloaded or clipped.
type Listener func(code string, err error, curr, count int)

type (
	DownloadResult = fes.Result
	ClipResult     = clip.Result
)

type Options struct {
	Dir string
	// Source is "ftp" (AVISO, default), "ftps", an ftp(s)://host[:port] URL
	// or the http(s) base URL of a mirror.
	Source     string
	Layout     string // "archive" (default) or "files"
	RemotePath string
	// RegionsFile is a GeoJSON region map, the built-in map when blank.
	RegionsFile string
	Parallel    int
	Force       bool
	Retries     int
	RetryWait   time.Duration
	Listener    Listener
}

type Model struct {
	dir     string
	src     core.Source
	layout  fes.Layout
	regions []region.Region
	opts    Options
	fs      afero.Fs
}

func New(opts Options) (*Model, error) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}

	layout, err := fes.ParseLayout(opts.Layout)
	if err != nil {
		return nil, err
	}

	src, err := newSource(opts)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	regions, err := region.Load(fs, opts.RegionsFile)
	if err != nil {
		return nil, err
	}

	return &Model{
		dir:     opts.Dir,
		src:     src,
		layout:  layout,
		regions: regions,
		opts:    opts,
		fs:      fs,
	}, nil
}

func newSource(opts Options) (core.Source, error) {
	retry := core.RetryOptions{
		Retries:   opts.Retries,
		RetryWait: opts.RetryWait,
	}

	switch s := strings.ToLower(strings.TrimSpace(opts.Source)); s {
	case "", "ftp":
		return core.NewFTPSource("", 0, false, retry), nil
	case "ftps":
		return core.NewFTPSource("", 0, true, retry), nil
	}

	u, err := url.Parse(opts.Source)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source ["+opts.Source+"]")
	}
	switch u.Scheme {
	case "http", "https":
		return core.NewHTTPSource(opts.Source, retry), nil
	case "ftp", "ftps":
		host, port := u.Host, 0
		if h, p, err := net.SplitHostPort(u.Host); err == nil {
			host = h
			if port, err = strconv.Atoi(p); err != nil {
				return nil, errors.New("invalid port in source [" + opts.Source + "]")
			}
		}
		return core.NewFTPSource(host, port, u.Scheme == "ftps", retry), nil
	}
	return nil, errors.New("unsupported source [" + opts.Source + "], expected ftp, ftps or an http(s) URL")
}

// Dir of the model as configured.
func (m *Model) Dir() string {
	return m.dir
}

func (m *Model) Regions() []region.Region {
	return m.regions
}

// Download fetches the global FES2014 grids into the model folder.
func (m *Model) Download(ctx context.Context, creds auth.Credentials) (*DownloadResult, error) {
	return fes.NewDownloader(m.src, fes.Options{
		Folder:     m.dir,
		Layout:     m.layout,
		RemotePath: m.opts.RemotePath,
		Parallel:   m.opts.Parallel,
		Listener:   fes.Listener(m.opts.Listener),
	}).Download(ctx, creds)
}

// Clip cuts the downloaded grids into one folder per region.
func (m *Model) Clip(ctx context.Context) (*ClipResult, error) {
	return clip.NewClipper(clip.Options{
		ModelDir: m.dir,
		Regions:  m.regions,
		Parallel: m.opts.Parallel,
		Force:    m.opts.Force,
		Fs:       m.fs,
		Listener: fes.Listener(m.opts.Listener),
	}).Run(ctx)
}

// Locate returns the absolute folder of the clipped model.
func (m *Model) Locate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return locate.New(m.fs, m.dir, m.regions).Locate()
}

// RegionPath returns the folder of clipped grids covering the point.
func (m *Model) RegionPath(lon, lat float64) (string, error) {
	return locate.New(m.fs, m.dir, m.regions).RegionPath(lon, lat)
}
