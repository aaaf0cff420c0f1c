// Package manager builds the caller-facing file managers from a
// [filebox.Config].
package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/local"
	"github.com/nuln/filebox/logging"
	"github.com/nuln/filebox/metrics"
	"github.com/nuln/filebox/remote"
	"github.com/nuln/filebox/retry"

	// Default transport.
	_ "github.com/nuln/filebox/rclone"
)

// Manager bundles the local and remote facades over one store.
type Manager struct {
	Local  *Local
	Remote *Remote
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	fs         afero.Fs
	transport  filebox.Transport
}

// Option customizes [New].
type Option func(*options)

// WithLogger sets the logger. Without it one is built from cfg.Log.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the metrics with reg. Without it metrics are
// collected but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithFs replaces the OS filesystem, e.g. with afero.NewMemMapFs.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithTransport replaces the transport named by cfg.Transport.
func WithTransport(t filebox.Transport) Option {
	return func(o *options) { o.transport = t }
}

// New creates both facades from cfg.
func New(cfg *filebox.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = &filebox.Config{}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		if log, err = logging.New(cfg.Log); err != nil {
			return nil, err
		}
	}

	tr := o.transport
	if tr == nil {
		var err error
		if tr, err = filebox.OpenTransport(cfg); err != nil {
			return nil, err
		}
	}

	store := local.New(cfg)
	if o.fs != nil {
		store = local.NewWithFs(o.fs, cfg.InternalDir, cfg.ExternalDir)
	}
	m := metrics.New(o.registerer)

	return &Manager{
		Local:  NewLocal(store, log, m),
		Remote: NewRemote(remote.New(store, tr), retry.For(cfg), log, m),
	}, nil
}
