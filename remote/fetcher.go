// Package remote downloads remote resources into the local store and
// reads their metadata from response headers.
package remote

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/local"
)

const tracerName = "github.com/nuln/filebox/remote"

// Fetcher performs single-attempt remote operations. Retrying is left to
// the caller.
type Fetcher struct {
	store     *local.Store
	transport filebox.Transport
	tracer    trace.Tracer
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithTracerProvider traces through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(f *Fetcher) { f.tracer = tp.Tracer(tracerName) }
}

// New creates a Fetcher writing into store through transport.
func New(store *local.Store, transport filebox.Transport, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:     store,
		transport: transport,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download fetches uri into localPath under root. The destination is
// created before the request, so a failed transfer leaves an empty or
// partial file behind. progress, when set, is called after every chunk
// with the bytes copied so far and the content length (-1 if unknown).
func (f *Fetcher) Download(ctx context.Context, uri, localPath string, root filebox.StorageRoot, progress filebox.ProgressFunc) (*filebox.DownloadResult, error) {
	if uri == "" || localPath == "" {
		return nil, filebox.E("downloadFile", localPath, filebox.KindInvalid, filebox.ErrInvalid)
	}

	ctx, span := f.tracer.Start(ctx, "filebox.Download", trace.WithAttributes(
		attribute.String("uri", uri),
		attribute.String("root", root.String()),
	))
	defer span.End()

	entry, err := f.store.Create(localPath, nil, root, false)
	if err != nil {
		return nil, spanError(span, err)
	}

	resp, err := f.get(ctx, "downloadFile", uri)
	if err != nil {
		return nil, spanError(span, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	var onChunk func(int64)
	if progress != nil {
		onChunk = func(copied int64) { progress(copied, total) }
	}

	n, err := f.store.Blob().WriteStream(entry.Path, resp.Body, onChunk)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int64("bytes", n))

	return &filebox.DownloadResult{
		LocalPath: entry.Path,
		Size:      n,
		Info:      ParseFileInfo(resp.Header, resp.ContentLength),
	}, nil
}

// RemoteFileInfo fetches uri, discards the body and returns the metadata
// found in the response headers.
func (f *Fetcher) RemoteFileInfo(ctx context.Context, uri string) (*filebox.FileInfo, error) {
	if uri == "" {
		return nil, filebox.E("getRemoteFileInfo", uri, filebox.KindInvalid, filebox.ErrInvalid)
	}

	ctx, span := f.tracer.Start(ctx, "filebox.RemoteFileInfo", trace.WithAttributes(attribute.String("uri", uri)))
	defer span.End()

	resp, err := f.get(ctx, "getRemoteFileInfo", uri)
	if err != nil {
		return nil, spanError(span, err)
	}
	_ = resp.Body.Close()
	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	info := ParseFileInfo(resp.Header, resp.ContentLength)
	return &info, nil
}

// get issues the GET and rejects responses without a 2xx status or body.
func (f *Fetcher) get(ctx context.Context, op, uri string) (*filebox.Response, error) {
	resp, err := f.transport.Get(ctx, uri)
	if err != nil {
		kind := filebox.KindTransport
		var fe *filebox.Error
		if errors.As(err, &fe) {
			kind = fe.Kind
		}
		return nil, filebox.E(op, uri, kind, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, filebox.E(op, uri, filebox.KindRejected, &StatusError{StatusCode: resp.StatusCode})
	}
	if resp.Body == nil {
		return nil, filebox.E(op, uri, filebox.KindRejected, filebox.ErrRejected)
	}
	return resp, nil
}

// StatusError is a rejected response status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

func (e *StatusError) Unwrap() error { return filebox.ErrRejected }

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ParseFileInfo reads the metadata of one response. contentLength is
// the transport's view of the body length; header values fill in when
// it is unknown.
func ParseFileInfo(h http.Header, contentLength int64) filebox.FileInfo {
	if contentLength < 0 {
		contentLength = -1
		if v := h.Get("Content-Length"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
				contentLength = n
			}
		}
	}
	return filebox.FileInfo{
		ContentLength: contentLength,
		ContentType:   mediaType(h.Get("Content-Type")),
		LastModified:  ParseHTTPDate(h.Get("Last-Modified")),
		Date:          ParseHTTPDate(h.Get("Date")),
	}
}

// mediaType strips parameters such as charset from a Content-Type value.
func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}

// ParseHTTPDate parses an HTTP date in RFC 1123, RFC 850 or asctime
// format and returns epoch milliseconds, or -1.
func ParseHTTPDate(v string) int64 {
	if v == "" {
		return -1
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return -1
	}
	return t.UnixMilli()
}
