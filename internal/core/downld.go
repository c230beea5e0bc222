package core

import (
	"context"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/pkg/errors"
)

const (
	// AVISO FTP service hosting FES2014.
	AvisoFTPHost = "ftp-access.aviso.altimetry.fr"
	AvisoFTPPort = 21

	defaultRetryTimes = 5
	defaultRetryWait  = 5 * time.Second
	defaultTimeout    = 30 * time.Minute
)

var (
	ErrNotFound     = errors.New("remote file not found")
	ErrUnauthorized = errors.New("authentication rejected by the data service")
)

// Source fetches a remote file into dstPath using the given credentials.
type Source interface {
	Fetch(ctx context.Context, creds auth.Credentials, remotePath, dstPath string) (filesize int64, err error)
}

// RetryOptions shared by every source.
type RetryOptions struct {
	Retries   int
	RetryWait time.Duration
	Timeout   time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.Retries <= 0 {
		o.Retries = defaultRetryTimes
	}
	if o.RetryWait <= 0 {
		o.RetryWait = defaultRetryWait
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// isPermanent errors are never retried.
func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func delay(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
