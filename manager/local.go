package manager

import (
	"strings"

	"go.uber.org/zap"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/local"
	"github.com/nuln/filebox/logging"
	"github.com/nuln/filebox/metrics"
)

// Local is the [filebox.LocalFileManager] over a local.Store. Failures
// are logged once and come back as false, "" or nil.
type Local struct {
	store   *local.Store
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewLocal creates a Local facade. log and m may be nil.
func NewLocal(store *local.Store, log *zap.Logger, m *metrics.Collector) *Local {
	return &Local{store: store, log: logging.OrNop(log), metrics: m}
}

// Store returns the underlying store.
func (l *Local) Store() *local.Store { return l.store }

// done records the outcome of op and logs a failure.
func (l *Local) done(op string, err error) {
	l.metrics.RecordOperation(op, err == nil)
	if err != nil {
		logFailure(l.log, op, err)
	}
}

func logFailure(log *zap.Logger, op string, err error) {
	switch filebox.KindOf(err) {
	case filebox.KindRootUnavailable:
		log.Error("storage root is not configured", zap.String("op", op), zap.Error(err))
	case filebox.KindInvalid, filebox.KindNotFound, filebox.KindRejected:
		log.Warn("operation rejected", zap.String("op", op), zap.Error(err))
	default:
		log.Error("operation failed", zap.String("op", op), zap.Error(err))
	}
}

func (l *Local) Exists(path string, root filebox.StorageRoot) bool {
	if path == "" {
		return false
	}
	_, err := l.store.Stat(path, root)
	if filebox.KindOf(err) == filebox.KindRootUnavailable {
		logFailure(l.log, "isExist", err)
	}
	return err == nil
}

func (l *Local) GetFile(path string, root filebox.StorageRoot) *filebox.EntryInfo {
	if path == "" {
		return nil
	}
	entry, err := l.store.Get(path, root)
	if err != nil {
		if filebox.KindOf(err) != filebox.KindNotFound {
			logFailure(l.log, "getFile", err)
		}
		return nil
	}
	return entry
}

func (l *Local) GetImage(path string, root filebox.StorageRoot) filebox.Image {
	if path == "" {
		return nil
	}
	img, err := l.store.Image(path, root)
	l.done("getBitmap", err)
	if err != nil {
		return nil
	}
	return img
}

func (l *Local) MoveTo(oldPath, newPath string, root filebox.StorageRoot) string {
	p, err := l.store.MoveTo(oldPath, newPath, root)
	l.done("moveTo", err)
	return p
}

func (l *Local) SaveTo(inPath, outPath string, root filebox.StorageRoot) string {
	p, err := l.store.SaveTo(inPath, outPath, root)
	l.done("saveTo", err)
	return p
}

func (l *Local) SaveImage(img filebox.Image, outPath string, root filebox.StorageRoot) string {
	p, err := l.store.SaveImage(img, outPath, root)
	l.done("saveBitmap", err)
	return p
}

func (l *Local) WriteTo(inPath, outPath string, root filebox.StorageRoot, overwrite bool) bool {
	err := l.store.WriteTo(inPath, outPath, root, overwrite)
	l.done("writeTo", err)
	return err == nil
}

func (l *Local) DeleteFile(path string, root filebox.StorageRoot) {
	if path == "" {
		return
	}
	l.done("deleteFile", l.store.Delete(path, root))
}

func (l *Local) CreateFile(path string, data []byte, root filebox.StorageRoot, temp bool) *filebox.EntryInfo {
	entry, err := l.store.Create(path, data, root, temp)
	l.done("createFile", err)
	return entry
}

// CreatePDFFile closes doc whether or not the write succeeded.
func (l *Local) CreatePDFFile(path string, doc filebox.Document, root filebox.StorageRoot) *filebox.EntryInfo {
	entry, err := l.store.CreatePDF(path, doc, root)
	if doc != nil {
		if cerr := doc.Close(); cerr != nil {
			l.log.Warn("close document", zap.String("path", path), zap.Error(cerr))
		}
	}
	l.done("createPdfFile", err)
	return entry
}

func (l *Local) FileMD5(path string, root filebox.StorageRoot) string {
	return l.FileChecksum(path, root, string(local.MD5))
}

// FileChecksum digests path with the named algorithm (md5, sha1, sha256).
func (l *Local) FileChecksum(path string, root filebox.StorageRoot, algorithm string) string {
	if path == "" {
		return ""
	}
	sum, err := l.store.Checksum(path, root, local.Algorithm(strings.ToLower(algorithm)))
	l.done("getFileChecksum", err)
	return sum
}

// FileBase64 returns the standard base64 encoding of path on one line,
// without the 76-column wrapping or trailing newline of MIME encoders.
func (l *Local) FileBase64(path string, root filebox.StorageRoot) string {
	if path == "" {
		return ""
	}
	s, err := l.store.Base64(path, root)
	l.done("getFileBase64", err)
	return s
}

func (l *Local) FileData(path string, root filebox.StorageRoot) []byte {
	if path == "" {
		return nil
	}
	data, err := l.store.Data(path, root)
	l.done("getFileData", err)
	if err != nil {
		return nil
	}
	return data
}

// Compile-time interface check.
var _ filebox.LocalFileManager = (*Local)(nil)
