package core

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const partExt = ".part"

// SaveBodyToDisk streams body into a uniquely named part file next to path and
// renames it into place once the copy succeeded.
func SaveBodyToDisk(body io.Reader, path string) (filesize int64, err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		err = errors.Wrap(err, "Create folder ["+dir+"] failed")
		return
	}

	partPath := path + "." + uuid.NewString() + partExt
	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		err = errors.Wrap(err, "Create file ["+partPath+"] failed")
		return
	}

	filesize, err = io.Copy(f, body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(partPath)
		err = errors.Wrap(err, "Saving ["+path+"] failed")
		return
	}

	if err = os.Rename(partPath, path); err != nil {
		_ = os.Remove(partPath)
		err = errors.Wrap(err, "Rename ["+partPath+"] failed")
	}
	return
}
