package clip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetCDFStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m2.nc")
	want := testGrid()

	store := NetCDFStore{}
	require.NoError(t, store.Write(path, want))

	_, err := os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(err), "part file is renamed")

	got, err := store.Read(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestNetCDFStoreErrors(t *testing.T) {
	store := NetCDFStore{}

	_, err := store.Read(filepath.Join(t.TempDir(), "missing.nc"))
	assert.Error(t, err)

	err = store.Write(filepath.Join(t.TempDir(), "broken.nc"), Grid{Lat: []float64{0}})
	assert.Error(t, err)
}
