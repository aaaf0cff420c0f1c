package filebox

import (
	"context"
	"io"
	"net/http"
)

// LocalFileManager is the caller-facing surface for local files.
// Failures never escape as errors: they turn into false, "", or nil.
type LocalFileManager interface {
	// Exists reports whether path exists. An empty path is never touched.
	Exists(path string, root StorageRoot) bool

	// GetFile returns the entry at path, or nil when it does not exist.
	GetFile(path string, root StorageRoot) *EntryInfo

	// GetImage decodes the image at path, or returns nil.
	GetImage(path string, root StorageRoot) Image

	// MoveTo copies oldPath to newPath and deletes oldPath.
	// It returns the new absolute path, or "" on failure.
	MoveTo(oldPath, newPath string, root StorageRoot) string

	// SaveTo copies inPath to outPath, leaving the source in place.
	SaveTo(inPath, outPath string, root StorageRoot) string

	// SaveImage encodes img as PNG at outPath.
	SaveImage(img Image, outPath string, root StorageRoot) string

	// WriteTo truncates or appends inPath's content onto outPath.
	WriteTo(inPath, outPath string, root StorageRoot, overwrite bool) bool

	// DeleteFile removes path and, for directories, everything below it.
	DeleteFile(path string, root StorageRoot)

	// CreateFile creates path and writes data when given. With a root and
	// an empty path a random name is generated.
	CreateFile(path string, data []byte, root StorageRoot, temp bool) *EntryInfo

	// CreatePDFFile replaces path with doc's serialization and closes doc.
	CreatePDFFile(path string, doc Document, root StorageRoot) *EntryInfo

	FileMD5(path string, root StorageRoot) string
	FileChecksum(path string, root StorageRoot, algorithm string) string
	FileBase64(path string, root StorageRoot) string
	FileData(path string, root StorageRoot) []byte
}

// RemoteFileManager is the caller-facing surface for remote resources.
// An unusable response yields nil, nil. A failure is retried once; only
// the second failure is returned as an error.
type RemoteFileManager interface {
	DownloadFile(ctx context.Context, uri, localPath string, root StorageRoot, progress ProgressFunc) (*DownloadResult, error)
	RemoteFileInfo(ctx context.Context, uri string) (*FileInfo, error)
}

// Response is what a [Transport] returns for a GET.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64 // -1 when unknown
}

// Transport performs blocking HTTP GETs.
type Transport interface {
	Get(ctx context.Context, uri string) (*Response, error)
}
