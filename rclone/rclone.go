// Package rclone provides the default [filebox.Transport], built on
// rclone's HTTP client and REST helper.
//
// Import it for its side effect to make the "rclone" transport available:
//
//	import _ "github.com/nuln/filebox/rclone"
package rclone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/fshttp"
	"github.com/rclone/rclone/lib/rest"

	"github.com/nuln/filebox"
)

// Default timeouts used when the config leaves them zero.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 30 * time.Second
)

// Auto-register the rclone transport.
func init() {
	filebox.RegisterTransport("rclone", func(cfg *filebox.Config) (filebox.Transport, error) {
		return New(cfg.ConnectTimeout, cfg.ReadTimeout), nil
	})
}

// Transport issues GETs through an rclone rest.Client.
type Transport struct {
	client *rest.Client
}

// New creates a Transport with the given connect and read timeouts.
// Zero values fall back to the defaults.
func New(connectTimeout, readTimeout time.Duration) *Transport {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	ctx, ci := fs.AddConfig(context.Background())
	ci.ConnectTimeout = fs.Duration(connectTimeout)
	ci.Timeout = fs.Duration(readTimeout)

	return &Transport{client: rest.NewClient(fshttp.NewClient(ctx))}
}

// Get performs a single GET of uri. Any status is returned to the
// caller; only transport failures are errors.
func (t *Transport) Get(ctx context.Context, uri string) (*filebox.Response, error) {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return nil, filebox.E("get", uri, filebox.KindInvalid, fmt.Errorf("unsupported scheme: %w", filebox.ErrInvalid))
	}

	resp, err := t.client.Call(ctx, &rest.Opts{
		Method:       http.MethodGet,
		RootURL:      uri,
		IgnoreStatus: true,
	})
	if err != nil {
		return nil, convertError(uri, err)
	}

	return &filebox.Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
	}, nil
}

func convertError(uri string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return filebox.E("get", uri, filebox.KindTransport, err)
}

// Compile-time interface check.
var _ filebox.Transport = (*Transport)(nil)
