package container

import (
	"bytes"
	"context"

	"github.com/cityjson/flatcitybuf/endian"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/internal/checksum"
	"github.com/cityjson/flatcitybuf/rangereader"
)

// OpenHeaderFromSource reads and validates a container's header from any
// rangereader.Source, for callers (fcb.OpenHTTP) opening a container
// served remotely, where there is no local *os.File for Open to wrap.
// It returns the parsed Header only; the caller keeps src (typically
// already wrapped in a rangereader.Reader) alive for subsequent section
// reads.
func OpenHeaderFromSource(ctx context.Context, src rangereader.Source) (*Header, error) {
	eng := endian.LittleEndian()

	prefix, err := src.ReadAt(ctx, 0, 8+4)
	if err != nil {
		return nil, errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	if !bytes.Equal(prefix[:8], Magic[:]) {
		return nil, errs.NewFormatError("header", errs.ErrBadMagic)
	}

	headerLen := eng.Uint32(prefix[8:12])

	body, err := src.ReadAt(ctx, 12, int64(headerLen)+int64(checksum.Size)) //nolint: gosec
	if err != nil {
		return nil, errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	headerBytes := body[:headerLen]
	wantSum := eng.Uint64(body[headerLen:])

	if !checksum.Verify(headerBytes, wantSum) {
		return nil, errs.NewFormatError("header", errs.ErrCorruptIndex)
	}

	h := &Header{}
	if err := h.Parse(headerBytes); err != nil {
		return nil, err
	}

	if h.Version != Version {
		return nil, errs.NewFormatError("header", errs.ErrUnsupportedVersion)
	}

	return h, nil
}

// ReadSectionFromSource reads length bytes at offset from src and
// verifies the trailing checksum.Size checksum that immediately follows
// the section, the Source-based equivalent of
// Container.ReadSectionChecked for remote containers.
func ReadSectionFromSource(ctx context.Context, src rangereader.Source, offset, length uint64) ([]byte, error) {
	data, err := src.ReadAt(ctx, int64(offset), int64(length)) //nolint: gosec
	if err != nil {
		return nil, err
	}

	sumBuf, err := src.ReadAt(ctx, int64(offset+length), int64(checksum.Size)) //nolint: gosec
	if err != nil {
		return nil, err
	}

	want := endian.LittleEndian().Uint64(sumBuf)
	if !checksum.Verify(data, want) {
		return nil, errs.NewFormatError("section", errs.ErrCorruptIndex)
	}

	return data, nil
}
