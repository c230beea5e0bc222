package clip

// Store reads and writes constituent grids.
type Store interface {
	Read(path string) (Grid, error)
	Write(path string, g Grid) error
}
