package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var log = misc.NewLogger("Source", 2)

// HTTPSource downloads from an HTTP(S) mirror using basic authentication.
type HTTPSource struct {
	baseURL string
	opts    RetryOptions
	client  *resty.Client
}

func NewHTTPSource(baseURL string, opts RetryOptions) *HTTPSource {
	opts = opts.withDefaults()
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("User-Agent", "go-tidemodel"),
	}
}

func (h *HTTPSource) url(remotePath string) string {
	return h.baseURL + "/" + strings.TrimLeft(remotePath, "/")
}

func (h *HTTPSource) Fetch(ctx context.Context, creds auth.Credentials, remotePath, dstPath string) (filesize int64, err error) {
	URL := h.url(remotePath)
	for retry := 0; retry < h.opts.Retries; retry++ {
		if retry > 0 {
			if err = delay(ctx, h.opts.RetryWait); err != nil {
				return
			}
		}

		filesize, err = h.fetchOnce(ctx, creds, URL, dstPath)
		if err == nil || isPermanent(err) {
			return
		}
		log.Warn("[%d] Download %s as %s failed: %v.", retry, URL, creds, err)
	}
	return
}

func (h *HTTPSource) fetchOnce(ctx context.Context, creds auth.Credentials, URL, dstPath string) (int64, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBasicAuth(creds.Username(), creds.Password()).
		SetDoNotParseResponse(true).
		Get(URL)
	if err != nil {
		return 0, errors.Wrap(err, "Request ["+URL+"] failed")
	}

	body := resp.RawBody()
	defer body.Close()

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		return SaveBodyToDisk(body, dstPath)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return 0, errors.Wrap(ErrUnauthorized, fmt.Sprintf("http error %d", code))
	case code == http.StatusNotFound:
		return 0, errors.Wrap(ErrNotFound, URL)
	default:
		return 0, fmt.Errorf("http error %d:%s", code, resp.Status())
	}
}
