package fes

import (
	"path/filepath"
)

const (
	// DefaultArchivePath of the extrapolated FES2014b ocean tide on the AVISO FTP.
	DefaultArchivePath = "/auxiliary/tide_model/fes2014_elevations_and_load/fes2014b_elevations_extrapolated/ocean_tide_extrapolated.tar.xz"
	// DefaultFilesPath is the folder holding one <code>.nc.xz per constituent on a mirror.
	DefaultFilesPath = "/fes2014/ocean_tide"

	xzExt = ".xz"

	notFoundExt = ".notFound"
	emptyExt    = ".empty"
)

// OceanTideDir is where the global constituent grids are stored below dir.
func OceanTideDir(dir string) string {
	return filepath.Join(dir, "fes2014", "ocean_tide")
}

// ConstituentPath of the global grid of constituent code.
func ConstituentPath(dir, code string) string {
	return filepath.Join(OceanTideDir(dir), code+".nc")
}

// DownloadDir holds the compressed files while they are being fetched.
func DownloadDir(dir string) string {
	return filepath.Join(dir, "download")
}

func archivePath(dir, remotePath string) string {
	return filepath.Join(DownloadDir(dir), filepath.Base(filepath.FromSlash(remotePath)))
}

func compressedPath(dir, code string) string {
	return filepath.Join(DownloadDir(dir), code+".nc"+xzExt)
}
