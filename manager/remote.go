package manager

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/logging"
	"github.com/nuln/filebox/metrics"
	"github.com/nuln/filebox/remote"
	"github.com/nuln/filebox/retry"
)

// Download status values logged by [Remote.DownloadFile].
const (
	StatusStarted    = "started"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

// Remote is the [filebox.RemoteFileManager] over a remote.Fetcher.
// An empty uri or path, a rejected response or an unconfigured storage
// root yields nil, nil. Any other failure, a malformed uri included, is
// retried under the configured policy and the last error is returned.
type Remote struct {
	fetcher *remote.Fetcher
	policy  retry.Policy
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewRemote creates a Remote facade. log and m may be nil.
func NewRemote(fetcher *remote.Fetcher, policy retry.Policy, log *zap.Logger, m *metrics.Collector) *Remote {
	return &Remote{fetcher: fetcher, policy: policy, log: logging.OrNop(log), metrics: m}
}

// quiet reports whether err ends an operation without a retry or an
// error for the caller.
func quiet(err error) bool {
	switch filebox.KindOf(err) {
	case filebox.KindRejected, filebox.KindRootUnavailable:
		return true
	}
	return false
}

// policyFor keeps rejected responses and missing roots out of the retry.
func (r *Remote) policyFor() retry.Policy {
	p := r.policy
	inner := p.Retryable
	p.Retryable = func(err error) bool {
		if quiet(err) {
			return false
		}
		return inner == nil || inner(err)
	}
	return p
}

func (r *Remote) onRetry(op string) func(int, error) {
	return func(attempt int, err error) {
		r.log.Warn("remote operation failed, retrying",
			zap.String("op", op),
			zap.String("policy", r.policy.Name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

func (r *Remote) DownloadFile(ctx context.Context, uri, localPath string, root filebox.StorageRoot, progress filebox.ProgressFunc) (*filebox.DownloadResult, error) {
	const op = "downloadFile"
	if uri == "" || localPath == "" {
		logFailure(r.log, op, filebox.E(op, localPath, filebox.KindInvalid, filebox.ErrInvalid))
		return nil, nil
	}

	r.log.Info("download", zap.String("status", StatusStarted), zap.String("uri", uri))
	start := time.Now()

	res, err := retry.Do(ctx, r.policyFor(), func(ctx context.Context) (*filebox.DownloadResult, error) {
		return r.fetcher.Download(ctx, uri, localPath, root, progress)
	}, r.onRetry(op))

	r.metrics.RecordOperation(op, err == nil)
	if err != nil {
		r.log.Info("download", zap.String("status", StatusFailed), zap.String("uri", uri))
		logFailure(r.log, op, err)
		if quiet(err) {
			return nil, nil
		}
		return nil, err
	}

	r.metrics.RecordDownload(res.Size, time.Since(start))
	r.log.Info("download",
		zap.String("status", StatusSuccessful),
		zap.String("uri", uri),
		zap.String("path", res.LocalPath),
		zap.Int64("bytes", res.Size))
	return res, nil
}

func (r *Remote) RemoteFileInfo(ctx context.Context, uri string) (*filebox.FileInfo, error) {
	const op = "getRemoteFileInfo"
	if uri == "" {
		logFailure(r.log, op, filebox.E(op, uri, filebox.KindInvalid, filebox.ErrInvalid))
		return nil, nil
	}

	info, err := retry.Do(ctx, r.policyFor(), func(ctx context.Context) (*filebox.FileInfo, error) {
		return r.fetcher.RemoteFileInfo(ctx, uri)
	}, r.onRetry(op))

	r.metrics.RecordOperation(op, err == nil)
	if err != nil {
		logFailure(r.log, op, err)
		if quiet(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// Compile-time interface check.
var _ filebox.RemoteFileManager = (*Remote)(nil)
