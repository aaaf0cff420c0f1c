// Package fileboxtest provides a conformance suite for
// [filebox.LocalFileManager] implementations.
package fileboxtest

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nuln/filebox"
)

// Document is a minimal [filebox.Document] that records whether it was
// closed.
type Document struct {
	Body   string
	Closed bool
}

func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.Body)
	return int64(n), err
}

func (d *Document) Close() error {
	d.Closed = true
	return nil
}

// LocalTestSuite runs the conformance tests against m, which must have
// both storage roots configured. Call this in your backend tests:
//
//	func TestMemFs(t *testing.T) {
//	    m := setupManager(t)
//	    fileboxtest.LocalTestSuite(t, m)
//	}
func LocalTestSuite(t *testing.T, m filebox.LocalFileManager) { //nolint:gocyclo
	t.Helper()

	for _, root := range []filebox.StorageRoot{filebox.RootInternal, filebox.RootExternal} {
		t.Run(root.String(), func(t *testing.T) {
			rootSuite(t, m, root)
		})
	}
}

func rootSuite(t *testing.T, m filebox.LocalFileManager, root filebox.StorageRoot) { //nolint:gocyclo
	t.Run("Create_Exists_Data", func(t *testing.T) {
		entry := m.CreateFile("suite/hello.txt", []byte("hello world"), root, false)
		if entry == nil {
			t.Fatal("CreateFile returned nil")
		}
		if entry.Name != "hello.txt" {
			t.Errorf("Name = %q, want %q", entry.Name, "hello.txt")
		}
		if entry.Size != 11 {
			t.Errorf("Size = %d, want 11", entry.Size)
		}
		if !filepath.IsAbs(entry.Path) {
			t.Errorf("Path = %q, want absolute", entry.Path)
		}
		if !m.Exists("suite/hello.txt", root) {
			t.Error("Exists = false after CreateFile")
		}
		if !m.Exists(entry.Path, filebox.RootNone) {
			t.Error("Exists(absolute) = false after CreateFile")
		}
		if got := string(m.FileData("suite/hello.txt", root)); got != "hello world" {
			t.Errorf("FileData = %q, want %q", got, "hello world")
		}
	})

	t.Run("Create_KeepsContentWithoutData", func(t *testing.T) {
		m.CreateFile("suite/keep.txt", []byte("keep"), root, false)
		if m.CreateFile("suite/keep.txt", nil, root, false) == nil {
			t.Fatal("CreateFile on existing file returned nil")
		}
		if got := string(m.FileData("suite/keep.txt", root)); got != "keep" {
			t.Errorf("content = %q, want %q", got, "keep")
		}
	})

	t.Run("Create_GeneratedName", func(t *testing.T) {
		a := m.CreateFile("", nil, root, false)
		b := m.CreateFile("", nil, root, false)
		if a == nil || b == nil {
			t.Fatal("CreateFile without a path returned nil")
		}
		if a.Path == b.Path {
			t.Errorf("generated names collide: %q", a.Path)
		}
	})

	t.Run("Create_Temp", func(t *testing.T) {
		entry := m.CreateFile("suite/tmp/report.csv", []byte("a,b"), root, true)
		if entry == nil {
			t.Fatal("CreateFile(temp) returned nil")
		}
		if !strings.HasPrefix(entry.Name, "report") || !strings.HasSuffix(entry.Name, ".csv") {
			t.Errorf("temp name = %q, want report*.csv", entry.Name)
		}
	})

	t.Run("MoveTo", func(t *testing.T) {
		src := m.CreateFile("suite/move-src.txt", []byte("move"), root, false)
		if src == nil {
			t.Fatal("CreateFile returned nil")
		}
		dst := m.MoveTo(src.Path, "suite/moved/dst.txt", root)
		if dst == "" {
			t.Fatal("MoveTo returned empty path")
		}
		if m.Exists(src.Path, filebox.RootNone) {
			t.Error("source still exists after MoveTo")
		}
		if got := string(m.FileData(dst, filebox.RootNone)); got != "move" {
			t.Errorf("moved content = %q, want %q", got, "move")
		}
		if again := m.MoveTo(dst, "suite/moved/dst.txt", root); again != dst {
			t.Errorf("MoveTo onto itself = %q, want %q", again, dst)
		}
		if m.MoveTo(src.Path, "suite/x.txt", root) != "" {
			t.Error("MoveTo of a missing source should fail")
		}
	})

	t.Run("SaveTo_WriteTo", func(t *testing.T) {
		src := m.CreateFile("suite/line.txt", []byte("line\n"), root, false)
		if src == nil {
			t.Fatal("CreateFile returned nil")
		}
		if m.SaveTo(src.Path, "suite/copy.txt", root) == "" {
			t.Fatal("SaveTo returned empty path")
		}
		if !m.Exists(src.Path, filebox.RootNone) {
			t.Error("SaveTo removed the source")
		}

		for i := 0; i < 3; i++ {
			if !m.WriteTo(src.Path, "suite/appended.txt", root, false) {
				t.Fatal("WriteTo(append) failed")
			}
		}
		if got := string(m.FileData("suite/appended.txt", root)); got != strings.Repeat("line\n", 3) {
			t.Errorf("appended = %q", got)
		}
		if !m.WriteTo(src.Path, "suite/appended.txt", root, true) {
			t.Fatal("WriteTo(overwrite) failed")
		}
		if got := string(m.FileData("suite/appended.txt", root)); got != "line\n" {
			t.Errorf("overwritten = %q, want %q", got, "line\n")
		}
		if m.WriteTo(src.Path, src.Path, filebox.RootNone, true) {
			t.Error("WriteTo onto itself should fail")
		}
	})

	t.Run("DeleteFile_Recursive", func(t *testing.T) {
		m.CreateFile("suite/tree/a/b.txt", []byte("b"), root, false)
		m.CreateFile("suite/tree/c.txt", []byte("c"), root, false)
		m.DeleteFile("suite/tree", root)
		if m.Exists("suite/tree", root) || m.Exists("suite/tree/a/b.txt", root) {
			t.Error("tree still exists after DeleteFile")
		}
		m.DeleteFile("suite/tree", root) // no-op
	})

	t.Run("Checksums", func(t *testing.T) {
		m.CreateFile("suite/empty.bin", []byte{}, root, false)
		if got := m.FileMD5("suite/empty.bin", root); got != "D41D8CD98F00B204E9800998ECF8427E" {
			t.Errorf("FileMD5 = %q", got)
		}
		if got := m.FileChecksum("suite/empty.bin", root, "sha1"); len(got) != 40 {
			t.Errorf("sha1 length = %d, want 40", len(got))
		}
		if got := m.FileMD5("suite/nope.bin", root); got != "" {
			t.Errorf("FileMD5(missing) = %q, want empty", got)
		}
	})

	t.Run("Base64", func(t *testing.T) {
		m.CreateFile("suite/b64.bin", []byte{0x2E, 0x38}, root, false)
		if got := m.FileBase64("suite/b64.bin", root); got != "Ljg=" {
			t.Errorf("FileBase64 = %q, want %q", got, "Ljg=")
		}
	})

	t.Run("Images", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
		img.Set(0, 0, color.NRGBA{G: 255, A: 255})
		if m.SaveImage(img, "suite/img.png", root) == "" {
			t.Fatal("SaveImage returned empty path")
		}
		got := m.GetImage("suite/img.png", root)
		if got == nil {
			t.Fatal("GetImage returned nil")
		}
		if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 2 {
			t.Errorf("bounds = %v", got.Bounds())
		}
		m.CreateFile("suite/not-an-image.png", []byte("text"), root, false)
		if m.GetImage("suite/not-an-image.png", root) != nil {
			t.Error("GetImage of garbage should be nil")
		}
	})

	t.Run("CreatePDFFile", func(t *testing.T) {
		m.CreateFile("suite/doc.pdf", bytes.Repeat([]byte("old"), 100), root, false)
		d := &Document{Body: "%PDF-1.7"}
		if m.CreatePDFFile("suite/doc.pdf", d, root) == nil {
			t.Fatal("CreatePDFFile returned nil")
		}
		if !d.Closed {
			t.Error("document not closed")
		}
		if got := string(m.FileData("suite/doc.pdf", root)); got != "%PDF-1.7" {
			t.Errorf("pdf content = %q", got)
		}
	})

	t.Run("GetFile", func(t *testing.T) {
		if m.GetFile("suite/never.txt", root) != nil {
			t.Error("GetFile of missing path should be nil")
		}
		m.CreateFile("suite/dir/f.txt", nil, root, false)
		entry := m.GetFile("suite/dir", root)
		if entry == nil || !entry.IsDir {
			t.Errorf("GetFile(dir) = %+v, want directory", entry)
		}
	})
}
