package fes

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/api/constituent"
	"github.com/edward-yakop/go-tidemodel/internal/core"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/pkg/errors"
)

const defaultParallelDownloads = 3

var log = misc.NewLogger("Fes", 2)

// Layout of the model on the remote side.
type Layout string

const (
	// LayoutArchive is a single tar.xz holding every constituent (AVISO).
	LayoutArchive Layout = "archive"
	// LayoutFiles is one <code>.nc.xz per constituent.
	LayoutFiles Layout = "files"
)

func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutArchive, LayoutFiles:
		return l, nil
	case "":
		return LayoutArchive, nil
	}
	return "", errors.New("invalid layout [" + s + "], expected archive or files")
}

// Listener is told about every constituent handled, curr counts from 1.
type Listener func(code string, err error, curr, count int)

var doNothingListener Listener = func(string, error, int, int) {
	// Substitution when no listener is configured.
}

// Result of a download run.
type Result struct {
	Files   []string // global constituent grids present on disk
	Missing []string // constituents the source does not provide
	Bytes   int64    // bytes transferred over the wire
	Skipped bool     // everything was already on disk
}

// Options of a Downloader.
type Options struct {
	Folder     string
	Layout     Layout
	RemotePath string
	Parallel   int
	Listener   Listener
}

type Downloader struct {
	src  core.Source
	opts Options
}

func NewDownloader(src core.Source, opts Options) *Downloader {
	if opts.Layout == "" {
		opts.Layout = LayoutArchive
	}
	if opts.RemotePath == "" {
		if opts.Layout == LayoutArchive {
			opts.RemotePath = DefaultArchivePath
		} else {
			opts.RemotePath = DefaultFilesPath
		}
	}
	if opts.Parallel <= 0 {
		opts.Parallel = defaultParallelDownloads
	}
	if opts.Listener == nil {
		opts.Listener = doNothingListener
	}
	return &Downloader{
		src:  src,
		opts: opts,
	}
}

// Download fetches FES2014 into Folder. Constituents already on disk are kept.
func (d *Downloader) Download(ctx context.Context, creds auth.Credentials) (*Result, error) {
	if creds.IsZero() {
		return nil, errors.New("username and password are required")
	}

	if files, ok := d.isDownloaded(); ok {
		log.Info("FES2014 already present in %s, skipping download.", OceanTideDir(d.opts.Folder))
		return &Result{Files: files, Skipped: true}, nil
	}

	log.Info("Downloading FES2014 (%s layout) as %s.", d.opts.Layout, creds)
	var (
		result *Result
		err    error
	)
	if d.opts.Layout == LayoutFiles {
		result, err = d.downloadFiles(ctx, creds)
	} else {
		result, err = d.downloadArchive(ctx, creds)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(result.Files)
	sort.Strings(result.Missing)
	return result, nil
}

// isDownloaded when every constituent is either on disk or known missing.
func (d *Downloader) isDownloaded() ([]string, bool) {
	all := constituent.All()
	files := make([]string, 0, len(all))
	for _, m := range all {
		path := ConstituentPath(d.opts.Folder, m.Code())
		if !misc.IsAnyFileExists(path, notFoundExt) {
			return nil, false
		}
		if misc.IsFileExists(path) {
			files = append(files, path)
		}
	}
	return files, len(files) > 0
}

func (d *Downloader) downloadArchive(ctx context.Context, creds auth.Credentials) (*Result, error) {
	target := archivePath(d.opts.Folder, d.opts.RemotePath)
	result := &Result{}

	if misc.IsFileExists(target + emptyExt) {
		return nil, errors.New("FES2014 archive [" + d.opts.RemotePath + "] is empty")
	}
	if !misc.IsFileExists(target) {
		size, err := d.src.Fetch(ctx, creds, d.opts.RemotePath, target)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to download FES2014 archive ["+d.opts.RemotePath+"]")
		}
		if size == 0 {
			_ = os.Rename(target, target+emptyExt)
			return nil, errors.New("FES2014 archive [" + d.opts.RemotePath + "] is empty")
		}
		result.Bytes = size
	}

	count := len(constituent.All())
	curr := 0
	err := extractArchive(target, d.opts.Folder, func(code, path string, size int64, err error) bool {
		curr++
		d.opts.Listener(code, err, curr, count)
		if err == nil {
			result.Files = append(result.Files, path)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(result.Files))
	for _, f := range result.Files {
		found[f] = true
	}
	for _, m := range constituent.All() {
		if !found[ConstituentPath(d.opts.Folder, m.Code())] {
			result.Missing = append(result.Missing, m.Code())
		}
	}
	if len(result.Files) == 0 {
		return nil, errors.New("FES2014 archive [" + target + "] holds no constituent grid")
	}
	for _, code := range result.Missing {
		if err = misc.CreateFile(ConstituentPath(d.opts.Folder, code) + notFoundExt); err != nil {
			return nil, errors.Wrap(err, "Failed to create ["+code+"] not found file")
		}
	}

	// The grids are extracted, the archive is only dead weight now.
	if err = os.Remove(target); err != nil {
		log.Warn("Failed to remove %s: %v.", target, err)
	}
	return result, nil
}

type fileResult struct {
	code    string
	path    string
	size    int64
	missing bool
	err     error
}

func (d *Downloader) downloadFiles(ctx context.Context, creds auth.Credentials) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	all := constituent.All()
	codes := make(chan string)
	go func() {
		defer close(codes)
		for _, m := range all {
			select {
			case codes <- m.Code():
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		curr    int
		results = make([]fileResult, 0, len(all))
	)
	for i := 0; i < d.opts.Parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range codes {
				r := d.downloadFile(ctx, creds, code)
				if errors.Is(r.err, core.ErrUnauthorized) {
					cancel()
				}

				mu.Lock()
				curr++
				results = append(results, r)
				d.opts.Listener(code, r.err, curr, len(all))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result := &Result{}
	var firstErr error
	for _, r := range results {
		switch {
		case r.err != nil:
			if firstErr == nil || errors.Is(r.err, core.ErrUnauthorized) {
				firstErr = r.err
			}
		case r.missing:
			result.Missing = append(result.Missing, r.code)
		default:
			result.Files = append(result.Files, r.path)
			result.Bytes += r.size
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if len(result.Files) == 0 {
		return nil, errors.New("no constituent grid found under [" + d.opts.RemotePath + "]")
	}
	return result, nil
}

func (d *Downloader) downloadFile(ctx context.Context, creds auth.Credentials, code string) fileResult {
	target := ConstituentPath(d.opts.Folder, code)
	r := fileResult{code: code, path: target}

	if misc.IsFileExists(target) {
		return r
	}
	if misc.IsFileExists(target + notFoundExt) {
		r.missing = true
		return r
	}
	compressed := compressedPath(d.opts.Folder, code)
	if misc.IsFileExists(compressed + emptyExt) {
		r.err = errors.New("constituent [" + code + "] is empty")
		return r
	}

	remote := d.opts.RemotePath + "/" + code + ".nc" + xzExt
	size, err := d.src.Fetch(ctx, creds, remote, compressed)
	if errors.Is(err, core.ErrNotFound) {
		log.Warn("Constituent %s not found at %s.", code, remote)
		if err = misc.CreateFile(target + notFoundExt); err != nil {
			r.err = errors.Wrap(err, "Failed to create ["+code+"] not found file")
			return r
		}
		r.missing = true
		return r
	}
	if err != nil {
		r.err = errors.Wrap(err, "Failed to download ["+code+"]")
		return r
	}
	if size == 0 {
		if err = os.Rename(compressed, compressed+emptyExt); err != nil {
			r.err = errors.Wrap(err, "Failed to create ["+code+"] empty file")
		} else {
			r.err = errors.New("constituent [" + code + "] is empty")
		}
		return r
	}

	if _, err = decompressFile(compressed, target); err != nil {
		r.err = err
		return r
	}
	_ = os.Remove(compressed)

	r.size = size
	return r
}
