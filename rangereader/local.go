package rangereader

import (
	"context"
	"io"
	"os"

	"github.com/cityjson/flatcitybuf/errs"
)

// Local is a synchronous Source backed by an *os.File, for containers
// read from local disk — no batching or retry is needed since a single
// pread is already as cheap as it gets.
type Local struct {
	f *os.File
}

// OpenLocal opens path as a read-only Local source.
func OpenLocal(path string) (*Local, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewTransportError(0, err)
	}

	return &Local{f: f}, nil
}

// NewLocal wraps an already-open file. The caller retains ownership of
// closing f through Local.Close.
func NewLocal(f *os.File) *Local {
	return &Local{f: f}
}

func (l *Local) ReadAt(ctx context.Context, start, length int64) ([]byte, error) {
	if err := validateRange(start, length); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.NewTransportError(0, err)
	}

	buf := make([]byte, length)

	n, err := l.f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return nil, errs.NewTransportError(0, err)
	}

	return buf[:n], nil
}

func (l *Local) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errs.NewTransportError(0, err)
	}

	info, err := l.f.Stat()
	if err != nil {
		return 0, errs.NewTransportError(0, err)
	}

	return info.Size(), nil
}

func (l *Local) Close() error {
	return l.f.Close()
}
