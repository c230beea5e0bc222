package misc

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "unknwon.dev/clog/v2"
)

const logBufferSize = 100

// SetupLog registers the console logger unless quiet and, when filename is not
// blank, a daily rotated file logger. Call log.Stop before exiting to flush.
func SetupLog(verbose, quiet bool, filename string) error {
	level := log.LevelInfo
	if verbose {
		level = log.LevelTrace
	}

	if !quiet {
		if err := log.NewConsole(0, log.ConsoleConfig{Level: level}); err != nil {
			return errors.Wrap(err, "Create console logger failed")
		}
	}

	if filename == "" {
		return nil
	}

	fpath, err := filepath.Abs(filename)
	if err != nil {
		return errors.Wrap(err, "Invalid log file ["+filename+"]")
	}
	if err = os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
		return errors.Wrap(err, "Create log folder ["+filepath.Dir(fpath)+"] failed")
	}

	err = log.NewFile(logBufferSize, log.FileConfig{
		Level:    log.LevelTrace,
		Filename: fpath,
		FileRotationConfig: log.FileRotationConfig{
			Rotate:  true,
			Daily:   true,
			MaxDays: 30,
		},
	})
	return errors.Wrap(err, "Create file logger ["+fpath+"] failed")
}
