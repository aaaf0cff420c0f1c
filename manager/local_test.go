package manager_test

import (
	"encoding/base64"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/manager"
)

const (
	internalDir = "/app/files"
	externalDir = "/sdcard/app"
)

type env struct {
	m    *manager.Manager
	fs   afero.Fs
	logs *observer.ObservedLogs
	reg  *prometheus.Registry
}

func newEnv(t *testing.T, cfg *filebox.Config, opts ...manager.Option) *env {
	t.Helper()
	if cfg == nil {
		cfg = &filebox.Config{InternalDir: internalDir, ExternalDir: externalDir}
	}
	core, logs := observer.New(zapcore.DebugLevel)
	fs := afero.NewMemMapFs()
	reg := prometheus.NewRegistry()

	opts = append([]manager.Option{
		manager.WithLogger(zap.New(core)),
		manager.WithFs(fs),
		manager.WithRegisterer(reg),
	}, opts...)
	m, err := manager.New(cfg, opts...)
	require.NoError(t, err)
	return &env{m: m, fs: fs, logs: logs, reg: reg}
}

func TestLocal_CreateAndRead(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	entry := l.CreateFile("notes/a.txt", []byte{0x2E, 0x38}, filebox.RootInternal, false)
	require.NotNil(t, entry)
	assert.Equal(t, internalDir+"/notes/a.txt", entry.Path)
	assert.Equal(t, int64(2), entry.Size)

	assert.True(t, l.Exists("notes/a.txt", filebox.RootInternal))
	assert.Equal(t, []byte{0x2E, 0x38}, l.FileData("notes/a.txt", filebox.RootInternal))
	assert.Equal(t, "Ljg=", l.FileBase64("notes/a.txt", filebox.RootInternal))
	assert.Len(t, l.FileMD5("notes/a.txt", filebox.RootInternal), 32)
	assert.Len(t, l.FileChecksum("notes/a.txt", filebox.RootInternal, "SHA256"), 64)
	assert.Empty(t, l.FileChecksum("notes/a.txt", filebox.RootInternal, "crc32"))

	got := l.GetFile(entry.Path, filebox.RootNone)
	require.NotNil(t, got)
	assert.Equal(t, "a.txt", got.Name)
}

func TestLocal_EmptyPathsNeverFail(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	assert.False(t, l.Exists("", filebox.RootInternal))
	assert.Nil(t, l.GetFile("", filebox.RootInternal))
	assert.Nil(t, l.GetImage("", filebox.RootInternal))
	assert.Empty(t, l.MoveTo("", "x", filebox.RootInternal))
	assert.Empty(t, l.SaveTo("", "x", filebox.RootInternal))
	assert.False(t, l.WriteTo("", "x", filebox.RootInternal, true))
	l.DeleteFile("", filebox.RootInternal)
	assert.Nil(t, l.CreateFile("", nil, filebox.RootNone, false))
	assert.Empty(t, l.FileMD5("", filebox.RootInternal))
	assert.Empty(t, l.FileBase64("", filebox.RootInternal))
	assert.Nil(t, l.FileData("", filebox.RootInternal))

	ok, _ := afero.Exists(e.fs, internalDir)
	assert.False(t, ok)
}

func TestLocal_MissingFiles(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	assert.False(t, l.Exists("nope.txt", filebox.RootExternal))
	assert.Nil(t, l.GetFile("nope.txt", filebox.RootExternal))
	assert.Empty(t, l.FileMD5("nope.txt", filebox.RootExternal))
	assert.Nil(t, l.FileData("nope.txt", filebox.RootExternal))
	assert.Empty(t, l.MoveTo("/nope.txt", "b.txt", filebox.RootExternal))
	l.DeleteFile("nope.txt", filebox.RootExternal)

	// Missing-file lookups are not logged as errors.
	assert.Zero(t, e.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestLocal_MoveSaveWrite(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	src := l.CreateFile("src.txt", []byte("abc"), filebox.RootInternal, false)
	require.NotNil(t, src)

	saved := l.SaveTo(src.Path, "copies/src.txt", filebox.RootExternal)
	assert.Equal(t, externalDir+"/copies/src.txt", saved)
	assert.True(t, l.Exists(src.Path, filebox.RootNone))

	assert.True(t, l.WriteTo(src.Path, "log.txt", filebox.RootInternal, false))
	assert.True(t, l.WriteTo(src.Path, "log.txt", filebox.RootInternal, false))
	assert.Equal(t, "abcabc", string(l.FileData("log.txt", filebox.RootInternal)))
	assert.False(t, l.WriteTo(src.Path, src.Path, filebox.RootNone, true))

	moved := l.MoveTo(src.Path, "moved/src.txt", filebox.RootInternal)
	assert.Equal(t, internalDir+"/moved/src.txt", moved)
	assert.False(t, l.Exists(src.Path, filebox.RootNone))

	assert.Equal(t, moved, l.MoveTo(moved, "moved/src.txt", filebox.RootInternal))

	l.DeleteFile("moved", filebox.RootInternal)
	assert.False(t, l.Exists(moved, filebox.RootNone))
}

func TestLocal_Images(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	p := l.SaveImage(img, "img/a.png", filebox.RootExternal)
	assert.Equal(t, externalDir+"/img/a.png", p)

	got := l.GetImage("img/a.png", filebox.RootExternal)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Bounds().Dx())

	assert.Empty(t, l.SaveImage(nil, "img/b.png", filebox.RootExternal))
	assert.Nil(t, l.GetImage("img/missing.png", filebox.RootExternal))
}

type doc struct {
	closed bool
}

func (d *doc) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "%PDF")
	return int64(n), err
}

func (d *doc) Close() error {
	d.closed = true
	return nil
}

func TestLocal_CreatePDFClosesDocument(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	d := &doc{}
	entry := l.CreatePDFFile("doc.pdf", d, filebox.RootInternal)
	require.NotNil(t, entry)
	assert.True(t, d.closed)
	assert.Equal(t, "%PDF", string(l.FileData("doc.pdf", filebox.RootInternal)))

	// Closed even when the write is refused.
	d = &doc{}
	assert.Nil(t, l.CreatePDFFile("", d, filebox.RootNone))
	assert.True(t, d.closed)
}

func TestLocal_UnavailableRootIsLogged(t *testing.T) {
	e := newEnv(t, &filebox.Config{InternalDir: internalDir})
	l := e.m.Local

	assert.Nil(t, l.CreateFile("a.txt", nil, filebox.RootExternal, false))
	assert.False(t, l.Exists("a.txt", filebox.RootExternal))

	entries := e.logs.FilterMessage("storage root is not configured").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "createFile", entries[0].ContextMap()["op"])
	assert.Equal(t, "isExist", entries[1].ContextMap()["op"])

	// A plain miss on a configured root stays silent.
	assert.False(t, l.Exists("a.txt", filebox.RootInternal))
	assert.Equal(t, 2, e.logs.FilterMessage("storage root is not configured").Len())
}

func TestLocal_Base64IsUnwrapped(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	data := []byte(strings.Repeat("0123456789", 20))
	require.NotNil(t, l.CreateFile("long.bin", data, filebox.RootInternal, false))

	got := l.FileBase64("long.bin", filebox.RootInternal)
	assert.Greater(t, len(got), 76)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), got)
}

func TestLocal_Metrics(t *testing.T) {
	e := newEnv(t, nil)
	l := e.m.Local

	l.CreateFile("a.txt", nil, filebox.RootInternal, false)
	l.CreateFile("b.txt", nil, filebox.RootInternal, false)
	l.MoveTo("/missing", "c.txt", filebox.RootInternal)

	n, err := testutil.GatherAndCount(e.reg, "filebox_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
