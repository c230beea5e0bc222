package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "tidemodel.yml", `
dir: /data/tide_model
source: ftps
layout: files
remote_path: /mirror/fes2014
regions_file: regions.geojson
parallel: 4
retries: 2
retry_wait: 3s
metrics_file: tidemodel.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := &Config{
		Dir:         "/data/tide_model",
		Source:      "ftps",
		Layout:      "files",
		RemotePath:  "/mirror/fes2014",
		RegionsFile: "regions.geojson",
		Parallel:    4,
		Retries:     2,
		RetryWait:   3 * time.Second,
		MetricsFile: "tidemodel.prom",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := writeFile(t, "tidemodel.yml", "dir: /from/file\nparallel: 4\n")
	t.Setenv("TIDEMODEL_DIR", "/from/env")
	t.Setenv("TIDEMODEL_REMOTE_PATH", "/env/path")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Dir)
	assert.Equal(t, "/env/path", cfg.RemotePath)
	assert.Equal(t, 4, cfg.Parallel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "explicit file must exist")

	_, err = Load(writeFile(t, "bad.yml", "unknown_key: 1\n"))
	assert.Error(t, err)

	t.Setenv("TIDEMODEL_PARALLEL", "many")
	_, err = Load(writeFile(t, "ok.yml", "dir: x\n"))
	assert.Error(t, err)
}

func TestLoadDefaultFileIsOptional(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestCredentials(t *testing.T) {
	t.Setenv("AVISO_USERNAME", " alice ")
	t.Setenv("AVISO_PASSWORD", "secret")

	creds, err := Credentials()
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username())
	assert.Equal(t, "secret", creds.Password())
}

func TestLoadEnv(t *testing.T) {
	env := writeFile(t, ".env", "AVISO_USERNAME=bob\nAVISO_PASSWORD=hunter2\n")
	t.Setenv("AVISO_USERNAME", "alice")
	// Registered so the variable is restored after the test.
	t.Setenv("AVISO_PASSWORD", "")
	require.NoError(t, os.Unsetenv("AVISO_PASSWORD"))

	require.NoError(t, LoadEnv(env, filepath.Join(t.TempDir(), "missing.env")))

	creds, err := Credentials()
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username(), "environment wins over .env")
	assert.Equal(t, "hunter2", creds.Password())
}
