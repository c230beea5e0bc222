package fes

import (
	"archive/tar"
	"io"
	"os"
	"path"

	"github.com/edward-yakop/go-tidemodel/api/constituent"
	"github.com/edward-yakop/go-tidemodel/internal/core"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// decompressFile writes the xz content of src into dst.
func decompressFile(src, dst string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to open ["+src+"]")
	}
	defer f.Close()

	reader, err := xz.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to create xz reader for ["+src+"]")
	}

	size, err := core.SaveBodyToDisk(reader, dst)
	if err != nil {
		return 0, errors.Wrap(err, "XZ decode failed for file ["+src+"]")
	}
	return size, nil
}

// extractedFile reports one constituent grid pulled out of an archive.
type extractedFile func(code, path string, size int64, err error) bool

// extractArchive walks a .tar.xz archive and stores every member named after a
// known constituent as ConstituentPath(dir, code). Other members are ignored.
func extractArchive(src, dir string, it extractedFile) error {
	f, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "Failed to open ["+src+"]")
	}
	defer f.Close()

	xzReader, err := xz.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "Failed to create xz reader for ["+src+"]")
	}

	tr := tar.NewReader(xzReader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "Failed to read archive ["+src+"]")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		metadata := constituent.GetMetadataByFileName(path.Base(hdr.Name))
		if metadata == nil {
			continue
		}

		target := ConstituentPath(dir, metadata.Code())
		size, err := core.SaveBodyToDisk(tr, target)
		if err != nil {
			err = errors.Wrap(err, "Extract ["+hdr.Name+"] failed")
		}
		if !it(metadata.Code(), target, size, err) {
			return err
		}
	}
}
