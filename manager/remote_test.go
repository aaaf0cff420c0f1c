package manager_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/manager"
)

type flakyTransport struct {
	calls atomic.Int32
	fail  int32 // number of leading calls that fail
	err   error
	body  string
}

func (f *flakyTransport) Get(context.Context, string) (*filebox.Response, error) {
	n := f.calls.Add(1)
	if n <= f.fail {
		return nil, f.err
	}
	return &filebox.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": {"text/plain"}},
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: int64(len(f.body)),
	}, nil
}

func TestRemote_DownloadRetriesOnce(t *testing.T) {
	tr := &flakyTransport{fail: 1, err: errors.New("reset"), body: "hello"}
	e := newEnv(t, nil, manager.WithTransport(tr))

	res, err := e.m.Remote.DownloadFile(context.Background(), "http://host/a.txt", "a.txt", filebox.RootInternal, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int32(2), tr.calls.Load())
	assert.Equal(t, "hello", string(e.m.Local.FileData("a.txt", filebox.RootInternal)))

	assert.Equal(t, 1, e.logs.FilterMessage("remote operation failed, retrying").Len())
	var statuses []string
	for _, entry := range e.logs.FilterMessage("download").All() {
		statuses = append(statuses, entry.ContextMap()["status"].(string))
	}
	assert.Equal(t, []string{manager.StatusStarted, manager.StatusSuccessful}, statuses)
}

func TestRemote_SecondFailureIsReturned(t *testing.T) {
	boom := errors.New("reset")
	tr := &flakyTransport{fail: 2, err: boom}
	e := newEnv(t, nil, manager.WithTransport(tr))

	res, err := e.m.Remote.DownloadFile(context.Background(), "http://host/a.txt", "a.txt", filebox.RootInternal, nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), tr.calls.Load())

	info, err := e.m.Remote.RemoteFileInfo(context.Background(), "http://host/a.txt")
	require.NoError(t, err, "third call succeeds")
	assert.Equal(t, "text/plain", info.ContentType)
}

func TestRemote_TransientOnlyPolicy(t *testing.T) {
	tr := &flakyTransport{fail: 2, err: errors.New("bad request")}
	e := newEnv(t, &filebox.Config{InternalDir: internalDir, RetryTransientOnly: true}, manager.WithTransport(tr))

	_, err := e.m.Remote.RemoteFileInfo(context.Background(), "http://host/a.txt")
	assert.Error(t, err)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestRemote_RejectedIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	e := newEnv(t, nil)

	res, err := e.m.Remote.DownloadFile(context.Background(), srv.URL+"/x", "x.bin", filebox.RootInternal, nil)
	assert.Nil(t, res)
	assert.NoError(t, err)

	info, err := e.m.Remote.RemoteFileInfo(context.Background(), srv.URL+"/x")
	assert.Nil(t, info)
	assert.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestRemote_EmptyInputCreatesNothing(t *testing.T) {
	tr := &flakyTransport{}
	e := newEnv(t, nil, manager.WithTransport(tr))

	res, err := e.m.Remote.DownloadFile(context.Background(), "", "a.txt", filebox.RootInternal, nil)
	assert.Nil(t, res)
	assert.NoError(t, err)

	res, err = e.m.Remote.DownloadFile(context.Background(), "http://host/a", "", filebox.RootInternal, nil)
	assert.Nil(t, res)
	assert.NoError(t, err)

	info, err := e.m.Remote.RemoteFileInfo(context.Background(), "")
	assert.Nil(t, info)
	assert.NoError(t, err)

	assert.Zero(t, tr.calls.Load())
	ok, _ := afero.Exists(e.fs, internalDir+"/a.txt")
	assert.False(t, ok)
}

func TestRemote_DownloadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = io.WriteString(w, "a,b\n1,2\n")
	}))
	defer srv.Close()
	e := newEnv(t, nil)

	var last int64
	res, err := e.m.Remote.DownloadFile(context.Background(), srv.URL+"/data.csv", "data.csv", filebox.RootExternal,
		func(copied, _ int64) { last = copied })
	require.NoError(t, err)
	assert.Equal(t, externalDir+"/data.csv", res.LocalPath)
	assert.Equal(t, "text/csv", res.Info.ContentType)
	assert.Equal(t, int64(8), last)

	info, err := e.m.Remote.RemoteFileInfo(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.ContentLength)
}

type invalidURITransport struct {
	calls atomic.Int32
}

func (f *invalidURITransport) Get(_ context.Context, uri string) (*filebox.Response, error) {
	f.calls.Add(1)
	return nil, filebox.E("get", uri, filebox.KindInvalid, filebox.ErrInvalid)
}

func TestRemote_MalformedURIIsRetriedThenReturned(t *testing.T) {
	tr := &invalidURITransport{}
	e := newEnv(t, nil, manager.WithTransport(tr))

	info, err := e.m.Remote.RemoteFileInfo(context.Background(), "not a uri")
	assert.Nil(t, info)
	require.Error(t, err)
	assert.Equal(t, filebox.KindInvalid, filebox.KindOf(err))
	assert.Equal(t, int32(2), tr.calls.Load())

	res, err := e.m.Remote.DownloadFile(context.Background(), "not a uri", "x.bin", filebox.RootInternal, nil)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, int32(4), tr.calls.Load())
}

func TestRemote_MalformedURIOverRclone(t *testing.T) {
	e := newEnv(t, nil)

	res, err := e.m.Remote.DownloadFile(context.Background(), "not a uri", "x.bin", filebox.RootInternal, nil)
	assert.Nil(t, res)
	assert.Error(t, err)
	assert.Equal(t, 1, e.logs.FilterMessage("remote operation failed, retrying").Len())
}

func TestRemote_MalformedURITransientOnly(t *testing.T) {
	tr := &invalidURITransport{}
	e := newEnv(t, &filebox.Config{InternalDir: internalDir, RetryTransientOnly: true}, manager.WithTransport(tr))

	_, err := e.m.Remote.RemoteFileInfo(context.Background(), "not a uri")
	assert.Error(t, err)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestRemote_UnavailableRootIsQuiet(t *testing.T) {
	tr := &flakyTransport{body: "x"}
	e := newEnv(t, &filebox.Config{InternalDir: internalDir}, manager.WithTransport(tr))

	res, err := e.m.Remote.DownloadFile(context.Background(), "http://host/a.bin", "a.bin", filebox.RootExternal, nil)
	assert.Nil(t, res)
	assert.NoError(t, err)
	assert.Zero(t, tr.calls.Load())

	entries := e.logs.FilterMessage("storage root is not configured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "downloadFile", entries[0].ContextMap()["op"])
	assert.Zero(t, e.logs.FilterMessage("remote operation failed, retrying").Len())
}
