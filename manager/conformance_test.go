package manager_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/fileboxtest"
	"github.com/nuln/filebox/manager"
)

func TestLocal_MemFs(t *testing.T) {
	m, err := manager.New(
		&filebox.Config{InternalDir: internalDir, ExternalDir: externalDir},
		manager.WithFs(afero.NewMemMapFs()),
		manager.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	fileboxtest.LocalTestSuite(t, m.Local)
}

func TestLocal_OsFs(t *testing.T) {
	dir := t.TempDir()
	m, err := manager.New(
		&filebox.Config{
			InternalDir: filepath.Join(dir, "internal"),
			ExternalDir: filepath.Join(dir, "external"),
		},
		manager.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	fileboxtest.LocalTestSuite(t, m.Local)
}
