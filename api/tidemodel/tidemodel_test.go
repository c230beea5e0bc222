package tidemodel

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/internal/clip"
	"github.com/edward-yakop/go-tidemodel/internal/core"
	"github.com/edward-yakop/go-tidemodel/internal/fes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const twoRegions = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"region_id": 0, "name": "west"},
     "geometry": {"type": "Polygon", "coordinates": [[[-180,-90],[0,-90],[0,90],[-180,90],[-180,-90]]]}},
    {"type": "Feature", "properties": {"region_id": 1, "name": "east"},
     "geometry": {"type": "Polygon", "coordinates": [[[0.5,-90],[180,-90],[180,90],[0.5,90],[0.5,-90]]]}}
  ]
}`

func xzBytes(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func mirror(t *testing.T, files map[string][]byte) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "alice" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		data, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestModelDownload(t *testing.T) {
	server := mirror(t, map[string][]byte{
		"/fes2014/ocean_tide/m2.nc.xz": xzBytes(t, []byte("m2 grid")),
		"/fes2014/ocean_tide/k1.nc.xz": xzBytes(t, []byte("k1 grid")),
	})
	dir := t.TempDir()

	var (
		mu    sync.Mutex
		calls int
	)
	m, err := New(Options{
		Dir:       dir,
		Source:    server.URL,
		Layout:    "files",
		RetryWait: time.Millisecond,
		Listener: func(code string, err error, curr, count int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
		},
	})
	require.NoError(t, err)

	result, err := m.Download(context.Background(), auth.NewCredentials("alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, []string{fes.ConstituentPath(dir, "k1"), fes.ConstituentPath(dir, "m2")}, result.Files)
	assert.Len(t, result.Missing, 32)
	assert.Equal(t, 34, calls)

	data, err := os.ReadFile(fes.ConstituentPath(dir, "m2"))
	require.NoError(t, err)
	assert.Equal(t, "m2 grid", string(data))
}

func TestModelDownloadUnauthorized(t *testing.T) {
	server := mirror(t, nil)

	m, err := New(Options{Dir: t.TempDir(), Source: server.URL, Layout: "files", RetryWait: time.Millisecond})
	require.NoError(t, err)

	_, err = m.Download(context.Background(), auth.NewCredentials("alice", "wrong"))
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)
	assert.NotContains(t, err.Error(), "wrong")
}

// writeGlobal stores a coarse global grid (lat -90..90, lon 0..315 every 45°).
func writeGlobal(t *testing.T, dir, code string) {
	g := clip.Grid{
		Lat: []float64{-90, -45, 0, 45, 90},
		Lon: []float64{0, 45, 90, 135, 180, 225, 270, 315},
	}
	for i := range g.Lat {
		for j := range g.Lon {
			g.Amplitude = append(g.Amplitude, float64(i*len(g.Lon)+j))
			g.Phase = append(g.Phase, float64(j))
		}
	}
	path := fes.ConstituentPath(dir, code)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, clip.NetCDFStore{}.Write(path, g))
}

func TestModelClipAndLocate(t *testing.T) {
	dir := t.TempDir()
	regionsFile := filepath.Join(t.TempDir(), "regions.geojson")
	require.NoError(t, os.WriteFile(regionsFile, []byte(twoRegions), 0644))

	m, err := New(Options{Dir: dir, RegionsFile: regionsFile})
	require.NoError(t, err)
	require.Len(t, m.Regions(), 2)

	_, err = m.Clip(context.Background())
	assert.True(t, errors.Is(err, ErrModelNotDownloaded), "got %v", err)
	_, err = m.Locate(context.Background())
	assert.True(t, errors.Is(err, ErrModelIncomplete), "got %v", err)

	writeGlobal(t, dir, "m2")
	writeGlobal(t, dir, "s2")

	result, err := m.Clip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Clipped)
	require.Len(t, result.Entries, 4)

	west := result.Entries[0]
	assert.Equal(t, "m2", west.Constituent)
	assert.Equal(t, -135.0, west.LonMin)
	assert.Equal(t, 0.0, west.LonMax)
	assert.Equal(t, 4, west.Cols)
	assert.Equal(t, 5, west.Rows)

	east, err := clip.NetCDFStore{}.Read(filepath.Join(dir, "region1", "fes2014", "ocean_tide", "s2.nc"))
	require.NoError(t, err)
	assert.Equal(t, []float64{45, 90, 135, 180}, east.Lon)

	located, err := m.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, located)

	path, err := m.RegionPath(-70.5, 41.5)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "region0", "fes2014", "ocean_tide"), path)
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		source  string
		wantFTP string
		wantErr bool
	}{
		{source: "", wantFTP: "ftp-access.aviso.altimetry.fr:21"},
		{source: "FTPS", wantFTP: "ftp-access.aviso.altimetry.fr:21"},
		{source: "ftp://mirror.example:2121", wantFTP: "mirror.example:2121"},
		{source: "ftps://mirror.example", wantFTP: "mirror.example:21"},
		{source: "ftp://mirror.example:port", wantErr: true},
		{source: "https://mirror.example/fes"},
		{source: "s3://bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			src, err := newSource(Options{Source: tt.source})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantFTP == "" {
				assert.IsType(t, &core.HTTPSource{}, src)
				return
			}
			ftpSrc, ok := src.(*core.FTPSource)
			require.True(t, ok)
			assert.Equal(t, tt.wantFTP, ftpSrc.Addr())
		})
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(Options{Layout: "zip"})
	assert.Error(t, err)

	_, err = New(Options{RegionsFile: filepath.Join(t.TempDir(), "missing.geojson")})
	assert.Error(t, err)

	m, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultDir, m.Dir())
	assert.True(t, strings.HasPrefix(m.Regions()[0].Dir(), "region"))
}
