package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = auth.NewCredentials("alice", "secret")

func fastRetry() RetryOptions {
	return RetryOptions{Retries: 3, RetryWait: time.Millisecond, Timeout: 5 * time.Second}
}

func basicAuthServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := basicAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fes2014/m2.nc.xz", r.URL.Path)
		_, _ = w.Write([]byte("tide grid"))
	})
	dst := filepath.Join(t.TempDir(), "download", "m2.nc.xz")

	size, err := NewHTTPSource(srv.URL+"/", fastRetry()).Fetch(context.Background(), testCreds, "/fes2014/m2.nc.xz", dst)
	require.NoError(t, err)
	assert.Equal(t, int64(9), size)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "tide grid", string(content))

	parts, _ := filepath.Glob(filepath.Join(filepath.Dir(dst), "*"+partExt))
	assert.Empty(t, parts)
}

func TestHTTPSource_Fetch_unauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPSource(srv.URL, fastRetry()).Fetch(context.Background(), testCreds, "m2.nc.xz", filepath.Join(t.TempDir(), "m2"))
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.NotContains(t, err.Error(), "secret")
}

func TestHTTPSource_Fetch_notFound(t *testing.T) {
	srv := basicAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	dst := filepath.Join(t.TempDir(), "m2")

	_, err := NewHTTPSource(srv.URL, fastRetry()).Fetch(context.Background(), testCreds, "m2.nc.xz", dst)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHTTPSource_Fetch_retriesServerErrors(t *testing.T) {
	var calls int32
	srv := basicAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	size, err := NewHTTPSource(srv.URL, fastRetry()).Fetch(context.Background(), testCreds, "m2.nc.xz", filepath.Join(t.TempDir(), "m2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSource_Fetch_givesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := basicAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := NewHTTPSource(srv.URL, fastRetry()).Fetch(context.Background(), testCreds, "m2.nc.xz", filepath.Join(t.TempDir(), "m2"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "http error 502")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSource_Fetch_cancelled(t *testing.T) {
	srv := basicAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(srv.URL, fastRetry()).Fetch(ctx, testCreds, "m2.nc.xz", filepath.Join(t.TempDir(), "m2"))
	assert.Error(t, err)
}

func TestNewFTPSource_defaults(t *testing.T) {
	s := NewFTPSource("", 0, false, RetryOptions{})
	assert.Equal(t, "ftp-access.aviso.altimetry.fr:21", s.Addr())
	assert.Equal(t, defaultRetryTimes, s.opts.Retries)
	assert.Equal(t, defaultRetryWait, s.opts.RetryWait)
}

func TestClassifyFTPError(t *testing.T) {
	err := classifyFTPError(&textproto.Error{Code: ftp.StatusNotLoggedIn, Msg: "Login incorrect."}, "Login failed")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	err = classifyFTPError(&textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "No such file"}, "Retrieve failed")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = classifyFTPError(errors.New("connection reset"), "Retrieve failed")
	assert.False(t, isPermanent(err))
	assert.Contains(t, err.Error(), "connection reset")
}
