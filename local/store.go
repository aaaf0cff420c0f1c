package local

import (
	"image"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/nuln/filebox"
)

// Store implements the file operations over two storage roots. Every
// method takes the root explicitly; [filebox.RootNone] means the path is
// absolute. The store keeps no state besides the filesystem itself.
type Store struct {
	fs       afero.Fs
	resolver *Resolver
	blob     *Blob
}

// New creates a Store on the OS filesystem with the roots from cfg.
func New(cfg *filebox.Config) *Store {
	return NewWithFs(afero.NewOsFs(), cfg.InternalDir, cfg.ExternalDir)
}

// NewWithFs creates a Store backed by a custom afero.Fs.
// This is useful for testing with afero.MemMapFs.
func NewWithFs(fs afero.Fs, internalDir, externalDir string) *Store {
	return &Store{
		fs:       fs,
		resolver: NewResolver(fs, internalDir, externalDir),
		blob:     NewBlob(fs),
	}
}

// Resolver returns the store's path resolver.
func (s *Store) Resolver() *Resolver { return s.resolver }

// Blob returns the store's byte-level I/O.
func (s *Store) Blob() *Blob { return s.blob }

// Stat returns the entry at path. An empty path fails with KindInvalid
// before the filesystem is touched.
func (s *Store) Stat(path string, root filebox.StorageRoot) (*filebox.EntryInfo, error) {
	abs, err := s.resolver.Lookup(path, root)
	if err != nil {
		return nil, err
	}
	info, err := s.fs.Stat(abs)
	if err != nil {
		return nil, filebox.E("isExist", abs, filebox.KindIO, err)
	}
	return filebox.NewEntryInfo(abs, info), nil
}

// Exists reports whether path exists under root.
func (s *Store) Exists(path string, root filebox.StorageRoot) bool {
	_, err := s.Stat(path, root)
	return err == nil
}

// Get returns the entry at path if it exists.
func (s *Store) Get(path string, root filebox.StorageRoot) (*filebox.EntryInfo, error) {
	return s.Stat(path, root)
}

// existing resolves path for reading and fails with KindNotFound when
// nothing is there.
func (s *Store) existing(op, path string, root filebox.StorageRoot) (string, error) {
	entry, err := s.Stat(path, root)
	if err != nil {
		if filebox.KindOf(err) == filebox.KindNotFound {
			return "", filebox.E(op, path, filebox.KindNotFound, filebox.ErrNotFound)
		}
		return "", err
	}
	return entry.Path, nil
}

// Image decodes the image at path.
func (s *Store) Image(path string, root filebox.StorageRoot) (image.Image, error) {
	abs, err := s.existing("getBitmap", path, root)
	if err != nil {
		return nil, err
	}
	return s.blob.ReadImage(abs)
}

// MoveTo copies oldPath to newPath under root and then deletes oldPath.
// The two steps are not atomic: a crash in between leaves both files.
// When newPath resolves to oldPath itself, oldPath is returned untouched.
func (s *Store) MoveTo(oldPath, newPath string, root filebox.StorageRoot) (string, error) {
	dst, err := s.transferTarget("moveTo", oldPath, newPath, root)
	if err != nil {
		return "", err
	}
	if samePath(oldPath, dst) {
		return oldPath, nil
	}
	if err := s.blob.Copy(oldPath, dst); err != nil {
		return "", err
	}
	if err := s.blob.DeleteRecursive(oldPath); err != nil {
		return "", err
	}
	return dst, nil
}

// SaveTo copies inPath to outPath under root, keeping the source.
func (s *Store) SaveTo(inPath, outPath string, root filebox.StorageRoot) (string, error) {
	dst, err := s.transferTarget("saveTo", inPath, outPath, root)
	if err != nil {
		return "", err
	}
	if samePath(inPath, dst) {
		return inPath, nil
	}
	if err := s.blob.Copy(inPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// transferTarget checks the preconditions shared by MoveTo, SaveTo and
// WriteTo: the absolute source exists and the target is named.
func (s *Store) transferTarget(op, src, dst string, root filebox.StorageRoot) (string, error) {
	if src == "" || dst == "" {
		return "", filebox.E(op, src, filebox.KindInvalid, filebox.ErrInvalid)
	}
	if _, err := s.existing(op, src, filebox.RootNone); err != nil {
		return "", err
	}
	return s.resolver.Resolve(dst, root)
}

// SaveImage encodes img as PNG at outPath under root.
func (s *Store) SaveImage(img image.Image, outPath string, root filebox.StorageRoot) (string, error) {
	if img == nil || outPath == "" {
		return "", filebox.E("saveTo", outPath, filebox.KindInvalid, filebox.ErrInvalid)
	}
	dst, err := s.resolver.Resolve(outPath, root)
	if err != nil {
		return "", err
	}
	if err := s.blob.Touch(dst); err != nil {
		return "", err
	}
	if err := s.blob.WriteImage(dst, img); err != nil {
		return "", err
	}
	return dst, nil
}

// WriteTo writes inPath's content onto outPath under root, truncating
// first when overwrite is set and appending otherwise. Writing a file
// onto itself fails with [filebox.ErrSameFile].
func (s *Store) WriteTo(inPath, outPath string, root filebox.StorageRoot, overwrite bool) error {
	dst, err := s.transferTarget("writeTo", inPath, outPath, root)
	if err != nil {
		return err
	}
	if samePath(inPath, dst) {
		return filebox.E("writeTo", dst, filebox.KindInvalid, filebox.ErrSameFile)
	}
	return s.blob.AppendOrOverwrite(inPath, dst, overwrite)
}

// Delete removes path under root, recursively for directories.
// A missing path is a no-op.
func (s *Store) Delete(path string, root filebox.StorageRoot) error {
	abs, err := s.existing("deleteFile", path, root)
	if err != nil {
		if filebox.KindOf(err) == filebox.KindNotFound {
			return nil
		}
		return err
	}
	return s.blob.DeleteRecursive(abs)
}

// Create creates path under root and writes data into it when data is
// not nil. An existing file keeps its content when data is nil. With a
// root and an empty path a random name is used. When temp is set the
// file gets a unique name derived from path, keeping its extension.
func (s *Store) Create(path string, data []byte, root filebox.StorageRoot, temp bool) (*filebox.EntryInfo, error) {
	dst, err := s.createTarget("createFile", path, root)
	if err != nil {
		return nil, err
	}

	if temp {
		dst, err = s.blob.TempFile(dst)
	} else {
		err = s.blob.Touch(dst)
	}
	if err != nil {
		return nil, err
	}

	if data != nil {
		if err := s.blob.WriteBytes(dst, data); err != nil {
			return nil, err
		}
	}
	return s.entry("createFile", dst)
}

// CreatePDF replaces whatever is at path with a fresh file holding doc's
// serialization. A nil doc leaves the file empty. The caller owns doc.
func (s *Store) CreatePDF(path string, doc filebox.Document, root filebox.StorageRoot) (*filebox.EntryInfo, error) {
	dst, err := s.createTarget("createPdfFile", path, root)
	if err != nil {
		return nil, err
	}
	if err := s.blob.DeleteRecursive(dst); err != nil {
		return nil, err
	}
	if err := s.blob.Touch(dst); err != nil {
		return nil, err
	}
	if doc != nil {
		if err := s.blob.WriteDocument(dst, doc); err != nil {
			return nil, err
		}
	}
	return s.entry("createPdfFile", dst)
}

func (s *Store) createTarget(op, path string, root filebox.StorageRoot) (string, error) {
	if path == "" {
		if root == filebox.RootNone {
			return "", filebox.E(op, path, filebox.KindInvalid, filebox.ErrInvalid)
		}
		path = uuid.NewString()
	}
	return s.resolver.Resolve(path, root)
}

func (s *Store) entry(op, abs string) (*filebox.EntryInfo, error) {
	info, err := s.blob.Stat(abs)
	if err != nil {
		return nil, filebox.E(op, abs, filebox.KindIO, err)
	}
	return filebox.NewEntryInfo(abs, info), nil
}

// Checksum digests the file at path with algorithm.
func (s *Store) Checksum(path string, root filebox.StorageRoot, algorithm Algorithm) (string, error) {
	abs, err := s.existing("getFileChecksum", path, root)
	if err != nil {
		return "", err
	}
	return s.blob.Checksum(abs, algorithm)
}

// MD5 returns the 32-character uppercase MD5 of the file at path.
func (s *Store) MD5(path string, root filebox.StorageRoot) (string, error) {
	return s.Checksum(path, root, MD5)
}

// Base64 returns the base64 encoding of the file at path.
func (s *Store) Base64(path string, root filebox.StorageRoot) (string, error) {
	abs, err := s.existing("getFileBase64", path, root)
	if err != nil {
		return "", err
	}
	return s.blob.Base64(abs)
}

// Data returns the content of the file at path.
func (s *Store) Data(path string, root filebox.StorageRoot) ([]byte, error) {
	abs, err := s.existing("getFileData", path, root)
	if err != nil {
		return nil, err
	}
	return s.blob.Read(abs)
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

