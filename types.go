package filebox

import (
	"image"
	"io"
	"os"
	"time"
)

// StorageRoot selects the base directory a relative path is resolved under.
type StorageRoot int

const (
	// RootNone means the path is already absolute and is used unchanged.
	RootNone StorageRoot = iota
	// RootInternal is the app-private storage area.
	RootInternal
	// RootExternal is the shared storage area.
	RootExternal
)

func (r StorageRoot) String() string {
	switch r {
	case RootNone:
		return "none"
	case RootInternal:
		return "internal"
	case RootExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseStorageRoot parses the names produced by [StorageRoot.String].
func ParseStorageRoot(s string) (StorageRoot, error) {
	switch s {
	case "", "none":
		return RootNone, nil
	case "internal":
		return RootInternal, nil
	case "external":
		return RootExternal, nil
	}
	return RootNone, &Error{Op: "parseRoot", Path: s, Kind: KindInvalid, Err: ErrInvalid}
}

// EntryInfo describes a file or directory in one of the storage roots.
type EntryInfo struct {
	Name    string      `json:"name"`
	Size    int64       `json:"size"`
	ModTime time.Time   `json:"modTime"`
	Mode    os.FileMode `json:"mode"`
	IsDir   bool        `json:"isDir"`
	Path    string      `json:"path"` // absolute
}

// NewEntryInfo builds an EntryInfo from a stat result.
func NewEntryInfo(path string, info os.FileInfo) *EntryInfo {
	return &EntryInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
		Path:    path,
	}
}

// FileInfo is the metadata of a remote resource taken from one HTTP
// response. Unknown values are -1.
type FileInfo struct {
	ContentLength int64 `json:"contentLength"`

	// ContentType is the full media type such as "image/png", with
	// parameters like charset dropped.
	ContentType  string `json:"contentType"`
	LastModified int64  `json:"lastModified"` // epoch ms
	Date         int64  `json:"date"`         // epoch ms
}

// DownloadResult is produced by a successful download.
type DownloadResult struct {
	LocalPath string   `json:"localPath"`
	Size      int64    `json:"size"` // bytes written
	Info      FileInfo `json:"info"`
}

// Image is the decoded form handled by the image operations.
type Image = image.Image

// Document is a serializable document such as a rendered PDF. The store
// writes it into an open file; its owner closes it.
type Document interface {
	io.WriterTo
	io.Closer
}

// ProgressFunc receives the number of bytes copied so far and the total
// content length, or -1 when the length is unknown.
type ProgressFunc func(copied, total int64)
