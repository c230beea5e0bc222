package misc

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func IsFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

// IsAnyFileExists reports whether path or any of path+suffix exists.
func IsAnyFileExists(path string, suffixes ...string) bool {
	if IsFileExists(path) {
		return true
	}
	for _, s := range suffixes {
		if IsFileExists(path + s) {
			return true
		}
	}
	return false
}

// CreateFile creates an empty file, creating its folder when missing.
func CreateFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "Create folder ["+dir+"] failed")
	}

	emptyFile, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "Create file ["+path+"] failed")
	}

	return emptyFile.Close()
}

// ListFiles returns the regular files in dir whose name has ext, sorted by name.
func ListFiles(fs afero.Fs, dir, ext string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
