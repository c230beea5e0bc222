package clip

import (
	"os"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/pkg/errors"
)

const (
	latVar       = "lat"
	lonVar       = "lon"
	amplitudeVar = "amplitude"
	phaseVar     = "phase"
)

// NetCDFStore reads FES2014 constituent files and writes NetCDF4 subsets with
// the same variable names.
type NetCDFStore struct{}

var _ Store = NetCDFStore{}

func (NetCDFStore) Read(path string) (g Grid, err error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return g, errors.Wrap(err, "Failed to open ["+path+"]")
	}
	defer func() {
		if cerr := ds.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "Failed to close ["+path+"]")
		}
	}()

	if g.Lat, err = readFloat64s(ds, latVar); err != nil {
		return g, errors.Wrap(err, path)
	}
	if g.Lon, err = readFloat64s(ds, lonVar); err != nil {
		return g, errors.Wrap(err, path)
	}
	if g.Amplitude, err = readFloat64s(ds, amplitudeVar); err != nil {
		return g, errors.Wrap(err, path)
	}
	if g.Phase, err = readFloat64s(ds, phaseVar); err != nil {
		return g, errors.Wrap(err, path)
	}

	if err = checkLatLonOrder(ds, amplitudeVar); err != nil {
		return g, errors.Wrap(err, path)
	}
	return g, g.Validate()
}

func readFloat64s(ds netcdf.Dataset, name string) ([]float64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, errors.Wrap(err, "variable ["+name+"]")
	}
	n, err := v.Len()
	if err != nil {
		return nil, errors.Wrap(err, "variable ["+name+"] length")
	}
	t, err := v.Type()
	if err != nil {
		return nil, errors.Wrap(err, "variable ["+name+"] type")
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, n)
		if err = v.ReadFloat64s(data); err != nil {
			return nil, errors.Wrap(err, "read ["+name+"]")
		}
		return data, nil
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err = v.ReadFloat32s(buf); err != nil {
			return nil, errors.Wrap(err, "read ["+name+"]")
		}
		data := make([]float64, n)
		for i, f := range buf {
			data[i] = float64(f)
		}
		return data, nil
	}
	return nil, errors.Errorf("variable [%s] has unsupported type %v", name, t)
}

// checkLatLonOrder makes sure a 2D variable is laid out (lat, lon).
func checkLatLonOrder(ds netcdf.Dataset, name string) error {
	v, err := ds.Var(name)
	if err != nil {
		return err
	}
	dims, err := v.Dims()
	if err != nil {
		return err
	}
	if len(dims) != 2 {
		return errors.Errorf("variable [%s] has %d dimensions, expected 2", name, len(dims))
	}
	first, err := dims[0].Name()
	if err != nil {
		return err
	}
	if first != latVar {
		return errors.Errorf("variable [%s] is not laid out (lat, lon)", name)
	}
	return nil
}

// Write stores g at path. The file only appears once it is complete.
func (NetCDFStore) Write(path string, g Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}

	partPath := path + ".part"
	if err := writeNetCDF(partPath, g); err != nil {
		_ = os.Remove(partPath)
		return errors.Wrap(err, "Failed to write ["+path+"]")
	}
	return os.Rename(partPath, path)
}

func writeNetCDF(path string, g Grid) (err error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ds.Close(); err == nil {
			err = cerr
		}
	}()

	latDim, err := ds.AddDim(latVar, uint64(len(g.Lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim(lonVar, uint64(len(g.Lon)))
	if err != nil {
		return err
	}

	lat, err := addVar(ds, latVar, netcdf.DOUBLE, []netcdf.Dim{latDim}, "degrees_north")
	if err != nil {
		return err
	}
	lon, err := addVar(ds, lonVar, netcdf.DOUBLE, []netcdf.Dim{lonDim}, "degrees_east")
	if err != nil {
		return err
	}
	amplitude, err := addVar(ds, amplitudeVar, netcdf.FLOAT, []netcdf.Dim{latDim, lonDim}, "cm")
	if err != nil {
		return err
	}
	phase, err := addVar(ds, phaseVar, netcdf.FLOAT, []netcdf.Dim{latDim, lonDim}, "degrees")
	if err != nil {
		return err
	}

	if err = ds.EndDef(); err != nil {
		return err
	}

	if err = lat.WriteFloat64s(g.Lat); err != nil {
		return err
	}
	if err = lon.WriteFloat64s(g.Lon); err != nil {
		return err
	}
	if err = amplitude.WriteFloat32s(toFloat32s(g.Amplitude)); err != nil {
		return err
	}
	return phase.WriteFloat32s(toFloat32s(g.Phase))
}

func addVar(ds netcdf.Dataset, name string, t netcdf.Type, dims []netcdf.Dim, units string) (netcdf.Var, error) {
	v, err := ds.AddVar(name, t, dims)
	if err != nil {
		return v, errors.Wrap(err, "add variable ["+name+"]")
	}
	if err = v.Attr("units").WriteBytes([]byte(units)); err != nil {
		return v, errors.Wrap(err, "add units to ["+name+"]")
	}
	return v, nil
}

func toFloat32s(data []float64) []float32 {
	r := make([]float32, len(data))
	for i, d := range data {
		r[i] = float32(d)
	}
	return r
}
