package core

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/textproto"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

// FTPSource downloads from an FTP server, AVISO by default.
type FTPSource struct {
	addr   string
	useTLS bool
	opts   RetryOptions
}

func NewFTPSource(host string, port int, useTLS bool, opts RetryOptions) *FTPSource {
	if host == "" {
		host = AvisoFTPHost
	}
	if port <= 0 {
		port = AvisoFTPPort
	}
	return &FTPSource{
		addr:   fmt.Sprintf("%s:%d", host, port),
		useTLS: useTLS,
		opts:   opts.withDefaults(),
	}
}

func (f *FTPSource) Addr() string {
	return f.addr
}

func (f *FTPSource) Fetch(ctx context.Context, creds auth.Credentials, remotePath, dstPath string) (filesize int64, err error) {
	for retry := 0; retry < f.opts.Retries; retry++ {
		if retry > 0 {
			if err = delay(ctx, f.opts.RetryWait); err != nil {
				return
			}
		}

		filesize, err = f.fetchOnce(ctx, creds, remotePath, dstPath)
		if err == nil || isPermanent(err) {
			return
		}
		log.Warn("[%d] Download ftp://%s%s as %s failed: %v.", retry, f.addr, remotePath, creds, err)
	}
	return
}

func (f *FTPSource) fetchOnce(ctx context.Context, creds auth.Credentials, remotePath, dstPath string) (int64, error) {
	dialOpts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.opts.Timeout),
	}
	if f.useTLS {
		host, _, _ := net.SplitHostPort(f.addr)
		dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: host}))
	}

	conn, err := ftp.Dial(f.addr, dialOpts...)
	if err != nil {
		return 0, errors.Wrap(err, "Connect ["+f.addr+"] failed")
	}
	defer func() {
		_ = conn.Quit()
	}()

	if err = conn.Login(creds.Username(), creds.Password()); err != nil {
		return 0, classifyFTPError(err, "Login as ["+creds.Username()+"] failed")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return 0, classifyFTPError(err, "Retrieve ["+remotePath+"] failed")
	}
	defer resp.Close()

	return SaveBodyToDisk(resp, dstPath)
}

func classifyFTPError(err error, msg string) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case ftp.StatusNotLoggedIn:
			return errors.Wrap(ErrUnauthorized, msg)
		case ftp.StatusFileUnavailable:
			return errors.Wrap(ErrNotFound, msg)
		}
	}
	return errors.Wrap(err, msg)
}
