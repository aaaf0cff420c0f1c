package local

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/nuln/filebox"
)

// Resolver maps a logical path and a storage root to an absolute path.
type Resolver struct {
	fs    afero.Fs
	roots map[filebox.StorageRoot]string
}

// NewResolver creates a Resolver over fs. An empty directory marks that
// root as unavailable.
func NewResolver(fs afero.Fs, internalDir, externalDir string) *Resolver {
	roots := make(map[filebox.StorageRoot]string, 2)
	if internalDir != "" {
		roots[filebox.RootInternal] = filepath.Clean(internalDir)
	}
	if externalDir != "" {
		roots[filebox.RootExternal] = filepath.Clean(externalDir)
	}
	return &Resolver{fs: fs, roots: roots}
}

// Root returns the base directory of root.
func (r *Resolver) Root(root filebox.StorageRoot) (string, error) {
	dir, ok := r.roots[root]
	if !ok {
		return "", filebox.E("root", root.String(), filebox.KindRootUnavailable, filebox.ErrRootUnavailable)
	}
	return dir, nil
}

// Lookup resolves path for reading. It never creates directories.
func (r *Resolver) Lookup(path string, root filebox.StorageRoot) (string, error) {
	if path == "" {
		return "", filebox.E("resolve", path, filebox.KindInvalid, filebox.ErrInvalid)
	}
	if root == filebox.RootNone {
		return path, nil
	}
	base, err := r.Root(root)
	if err != nil {
		return "", err
	}
	if escapes(path) {
		return "", filebox.E("resolve", path, filebox.KindInvalid, filebox.ErrInvalid)
	}
	return filepath.Join(base, path), nil
}

// Resolve resolves path for writing: under a root the parent directory
// chain is created before the file name is appended.
func (r *Resolver) Resolve(path string, root filebox.StorageRoot) (string, error) {
	if path == "" {
		return "", filebox.E("resolve", path, filebox.KindInvalid, filebox.ErrInvalid)
	}
	if root == filebox.RootNone {
		return path, nil
	}
	base, err := r.Root(root)
	if err != nil {
		return "", err
	}
	if escapes(path) {
		return "", filebox.E("resolve", path, filebox.KindInvalid, filebox.ErrInvalid)
	}

	parent, name := split(path)
	dir := filepath.Join(base, parent)
	if err := r.fs.MkdirAll(dir, 0750); err != nil {
		return "", filebox.E("resolve", dir, filebox.KindIO, err)
	}
	return filepath.Join(dir, name), nil
}

// split cuts path on its last separator.
func split(path string) (parent, name string) {
	i := strings.LastIndex(path, "/")
	return path[:i+1], path[i+1:]
}

// escapes reports whether a root-relative path climbs above its root.
func escapes(path string) bool {
	clean := filepath.Clean(strings.TrimPrefix(path, "/"))
	return clean == ".." || strings.HasPrefix(clean, "../")
}
