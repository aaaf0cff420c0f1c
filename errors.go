package filebox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Common errors. Where possible, these alias os package errors
// for compatibility with os.IsNotExist, os.IsPermission, etc.
var (
	ErrNotFound        = os.ErrNotExist
	ErrExist           = os.ErrExist
	ErrPermission      = os.ErrPermission
	ErrInvalid         = os.ErrInvalid
	ErrRootUnavailable = errors.New("filebox: storage root unavailable")
	ErrSameFile        = errors.New("filebox: source and destination are the same file")
	ErrRejected        = errors.New("filebox: remote response rejected")
)

// Kind classifies an [Error].
type Kind int

const (
	KindIO Kind = iota
	KindInvalid
	KindNotFound
	KindRootUnavailable
	KindTransport
	// KindRejected is a remote response that arrived but is unusable:
	// a non-2xx status or a missing body.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindRootUnavailable:
		return "root_unavailable"
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error records a failed operation together with the path it touched.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("filebox: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("filebox: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error, classifying err when kind is KindIO and err already
// carries a more precise kind.
func E(op, path string, kind Kind, err error) error {
	if kind == KindIO {
		var fe *Error
		if errors.As(err, &fe) {
			kind = fe.Kind
		} else if errors.Is(err, os.ErrNotExist) {
			kind = KindNotFound
		}
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error are KindIO.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindIO
}

// IsTransient reports whether err looks like a temporary network fault
// (timeout, deadline, connection reset) rather than a bad request.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
