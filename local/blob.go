package local

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/nuln/filebox"
)

const (
	// CopyBufferSize is the chunk size of every stream copy.
	CopyBufferSize = 8 * 1024
	// ChecksumChunkSize is the chunk size fed to digests.
	ChecksumChunkSize = 1024
)

var errEmptyImage = errors.New("local: image has no pixels")

// Blob performs byte-level I/O on already resolved absolute paths.
type Blob struct {
	fs afero.Fs
}

// NewBlob creates a Blob over fs.
func NewBlob(fs afero.Fs) *Blob {
	return &Blob{fs: fs}
}

// Stat returns the file info at path.
func (b *Blob) Stat(path string) (os.FileInfo, error) {
	return b.fs.Stat(path)
}

func (b *Blob) ensureParent(path string) error {
	return b.fs.MkdirAll(filepath.Dir(path), 0750)
}

// Touch creates path if it is missing, leaving existing content alone.
func (b *Blob) Touch(path string) error {
	if err := b.ensureParent(path); err != nil {
		return filebox.E("createFile", path, filebox.KindIO, err)
	}
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return filebox.E("createFile", path, filebox.KindIO, err)
	}
	return f.Close()
}

// TempFile creates a uniquely named file next to path, keeping the
// extension of path's base name. It returns the created path.
func (b *Blob) TempFile(path string) (string, error) {
	if err := b.ensureParent(path); err != nil {
		return "", filebox.E("createTempFile", path, filebox.KindIO, err)
	}
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	pattern := name[:len(name)-len(ext)] + "*" + ext

	f, err := afero.TempFile(b.fs, filepath.Dir(path), pattern)
	if err != nil {
		return "", filebox.E("createTempFile", path, filebox.KindIO, err)
	}
	created := f.Name()
	_ = f.Close()
	return created, nil
}

// WriteBytes replaces the content of path with data.
func (b *Blob) WriteBytes(path string, data []byte) error {
	_, err := b.WriteStream(path, bytes.NewReader(data), nil)
	if err != nil {
		return filebox.E("writeInFile", path, filebox.KindIO, err)
	}
	return nil
}

// WriteStream replaces the content of path with everything read from r,
// calling onChunk with the running total after every chunk.
func (b *Blob) WriteStream(path string, r io.Reader, onChunk func(copied int64)) (int64, error) {
	if err := b.ensureParent(path); err != nil {
		return 0, err
	}
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return 0, err
	}
	n, err := copyChunks(f, r, make([]byte, CopyBufferSize), onChunk)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// WriteImage encodes img as PNG into path.
func (b *Blob) WriteImage(path string, img image.Image) error {
	err := b.writeWith(path, func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.PNG)
	})
	if err != nil {
		return filebox.E("writeInBitmap", path, filebox.KindIO, err)
	}
	return nil
}

// WriteDocument serializes doc into path.
func (b *Blob) WriteDocument(path string, doc filebox.Document) error {
	err := b.writeWith(path, func(w io.Writer) error {
		_, err := doc.WriteTo(w)
		return err
	})
	if err != nil {
		return filebox.E("writeInPDF", path, filebox.KindIO, err)
	}
	return nil
}

func (b *Blob) writeWith(path string, fn func(io.Writer) error) error {
	if err := b.ensureParent(path); err != nil {
		return err
	}
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}
	err = fn(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// AppendOrOverwrite copies src onto dst, truncating dst first when
// overwrite is set and appending otherwise.
func (b *Blob) AppendOrOverwrite(src, dst string, overwrite bool) error {
	if err := b.copyFile(src, dst, overwrite); err != nil {
		return filebox.E("rewriteFile", dst, filebox.KindIO, err)
	}
	return nil
}

// Copy replaces dst with a copy of src.
func (b *Blob) Copy(src, dst string) error {
	if err := b.copyFile(src, dst, true); err != nil {
		return filebox.E("copyFile", dst, filebox.KindIO, err)
	}
	return nil
}

func (b *Blob) copyFile(src, dst string, overwrite bool) error {
	if err := b.ensureParent(dst); err != nil {
		return err
	}
	sf, err := b.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()

	flag := os.O_CREATE | os.O_WRONLY
	if overwrite {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_APPEND
	}
	df, err := b.fs.OpenFile(dst, flag, 0640)
	if err != nil {
		return err
	}

	_, err = copyChunks(df, sf, make([]byte, CopyBufferSize), nil)
	if cerr := df.Close(); err == nil {
		err = cerr
	}
	return err
}

// DeleteRecursive removes path. Directories are emptied depth-first
// before being removed. A missing path is not an error.
func (b *Blob) DeleteRecursive(path string) error {
	info, err := b.lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return filebox.E("deleteFile", path, filebox.KindIO, err)
	}

	if info.IsDir() {
		entries, err := afero.ReadDir(b.fs, path)
		if err != nil {
			return filebox.E("deleteFile", path, filebox.KindIO, err)
		}
		for _, entry := range entries {
			if err := b.DeleteRecursive(filepath.Join(path, entry.Name())); err != nil {
				return err
			}
		}
	}

	if err := b.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return filebox.E("deleteFile", path, filebox.KindIO, err)
	}
	return nil
}

// lstat does not follow a symlink, so a linked directory is removed as a
// link and its target is left alone.
func (b *Blob) lstat(path string) (os.FileInfo, error) {
	if l, ok := b.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return b.fs.Stat(path)
}

// Checksum digests path with algorithm. See [FormatChecksum] for the
// output format.
func (b *Blob) Checksum(path string, algorithm Algorithm) (string, error) {
	h, err := algorithm.New()
	if err != nil {
		return "", filebox.E("getFileChecksum", path, filebox.KindInvalid, err)
	}

	f, err := b.fs.Open(path)
	if err != nil {
		return "", filebox.E("getFileChecksum", path, filebox.KindIO, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := copyChunks(h, f, make([]byte, ChecksumChunkSize), nil); err != nil {
		return "", filebox.E("getFileChecksum", path, filebox.KindIO, err)
	}
	return FormatChecksum(algorithm, h.Sum(nil)), nil
}

// Base64 returns the standard base64 encoding of path's content.
// The whole result is held in memory.
func (b *Blob) Base64(path string) (string, error) {
	f, err := b.fs.Open(path)
	if err != nil {
		return "", filebox.E("getFileBase64", path, filebox.KindIO, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := copyChunks(enc, f, make([]byte, CopyBufferSize), nil); err != nil {
		return "", filebox.E("getFileBase64", path, filebox.KindIO, err)
	}
	if err := enc.Close(); err != nil {
		return "", filebox.E("getFileBase64", path, filebox.KindIO, err)
	}
	return buf.String(), nil
}

// Read returns the whole content of path.
func (b *Blob) Read(path string) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, filebox.E("readFile", path, filebox.KindIO, err)
	}
	return data, nil
}

// ReadImage decodes the image at path.
func (b *Blob) ReadImage(path string) (image.Image, error) {
	f, err := b.fs.Open(path)
	if err != nil {
		return nil, filebox.E("getBitmap", path, filebox.KindIO, err)
	}
	defer func() { _ = f.Close() }()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, filebox.E("getBitmap", path, filebox.KindIO, err)
	}
	if img.Bounds().Empty() {
		return nil, filebox.E("getBitmap", path, filebox.KindIO, errEmptyImage)
	}
	return img, nil
}

// copyChunks copies src to dst through buf, reporting the running total
// after every chunk written.
func copyChunks(dst io.Writer, src io.Reader, buf []byte, onChunk func(copied int64)) (int64, error) {
	var copied int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			copied += int64(w)
			if werr != nil {
				return copied, werr
			}
			if w != n {
				return copied, io.ErrShortWrite
			}
			if onChunk != nil {
				onChunk(copied)
			}
		}
		if rerr == io.EOF {
			return copied, nil
		}
		if rerr != nil {
			return copied, rerr
		}
	}
}
