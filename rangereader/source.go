// Package rangereader implements the byte-source abstraction of
// spec.md §4.6: a Source that can be read at arbitrary offsets, either
// synchronously from local disk or asynchronously over HTTP range
// requests, fronted by a decoded-node LRU and request-batching layer so
// the index traversal packages (rtree, sptree) never need to know
// whether they're reading from a local file or a remote object store.
package rangereader

import (
	"context"
	"fmt"

	"github.com/cityjson/flatcitybuf/errs"
)

// Source reads exactly length bytes starting at start. Implementations
// must be safe for concurrent use; ctx cancellation must abort the read
// and return ctx.Err() (wrapped, for HTTP, as the underlying cause of a
// TransportError).
type Source interface {
	ReadAt(ctx context.Context, start int64, length int64) ([]byte, error)
	// Size reports the total addressable length of the source, used to
	// clamp range requests at EOF.
	Size(ctx context.Context) (int64, error)
	Close() error
}

// ByteRange is a half-open [Start, Start+Length) span into a Source.
type ByteRange struct {
	Start  int64
	Length int64
}

// End returns the exclusive end offset of r.
func (r ByteRange) End() int64 { return r.Start + r.Length }

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End())
}

// validateRange rejects negative or zero-length requests before they
// reach a Source implementation.
func validateRange(start, length int64) error {
	if start < 0 || length <= 0 {
		return errs.NewTransportError(0, fmt.Errorf("rangereader: invalid range start=%d length=%d", start, length))
	}

	return nil
}
