package container

import (
	"bytes"
	"os"

	"github.com/cityjson/flatcitybuf/endian"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/internal/checksum"
)

// Container is an opened, read-only container file: its parsed Header
// plus the underlying file handle for local synchronous section reads.
// Remote/batched reads go through package rangereader instead, which
// addresses the same section offsets this type exposes.
type Container struct {
	f      *os.File
	Header *Header
}

// Open reads a container's magic and header from path, verifying the
// magic and the header's checksum before returning. It does not read
// the R-tree, attribute indexes, or feature section eagerly.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewTransportError(0, err)
	}

	c, err := openFile(f)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return c, nil
}

func openFile(f *os.File) (*Container, error) {
	eng := endian.LittleEndian()

	prefix := make([]byte, 8+4)
	if _, err := f.ReadAt(prefix, 0); err != nil {
		return nil, errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	if !bytes.Equal(prefix[:8], Magic[:]) {
		return nil, errs.NewFormatError("header", errs.ErrBadMagic)
	}

	headerLen := eng.Uint32(prefix[8:12])

	body := make([]byte, int(headerLen)+checksum.Size)
	if _, err := f.ReadAt(body, 12); err != nil {
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

	return &Container{f: f, Header: h}, nil
}

// Close releases the underlying file handle.
func (c *Container) Close() error {
	return c.f.Close()
}

// ReadSection reads length bytes at offset directly from the local
// file, without going through a rangereader cache, for small, one-shot
// reads where batching buys nothing.
func (c *Container) ReadSection(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := c.f.ReadAt(buf, int64(offset)); err != nil { //nolint: gosec
		return nil, errs.NewTransportError(0, err)
	}

	return buf, nil
}

// ReadSectionChecked is ReadSection plus a checksum verification against
// the trailing 8 bytes immediately following the section.
func (c *Container) ReadSectionChecked(offset, length uint64) ([]byte, error) {
	data, err := c.ReadSection(offset, length)
	if err != nil {
		return nil, err
	}

	sumBuf, err := c.ReadSection(offset+length, checksum.Size)
	if err != nil {
		return nil, err
	}

	want := endian.LittleEndian().Uint64(sumBuf)
	if !checksum.Verify(data, want) {
		return nil, errs.NewFormatError("section", errs.ErrCorruptIndex)
	}

	return data, nil
}

// Path exposes the container's underlying file for rangereader.Local
// callers that want to reopen the same file, e.g. to build a separate
// reader session with its own node cache.
func (c *Container) Path() string {
	return c.f.Name()
}
