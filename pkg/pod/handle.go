package pod

import (
	"errors"
	"fmt"
	"io"
)

// Handle is a bounded, read-only view of one archive member.
//
// Every handle has its own cursor backed by positioned reads on the archive
// file, so any number of handles may be open at once. Reads never return bytes
// beyond Size; at the end of the member Read returns 0, io.EOF.
type Handle struct {
	name string
	sr   *io.SectionReader
}

// Name returns the stored member name.
func (h *Handle) Name() string {
	return h.name
}

// Size returns the member size in bytes.
func (h *Handle) Size() int64 {
	return h.sr.Size()
}

// Read implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	return h.sr.Read(p)
}

// ReadAt implements io.ReaderAt relative to the member start.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	return h.sr.ReadAt(p, off)
}

// Seek implements io.Seeker relative to the member start.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return h.sr.Seek(offset, whence)
}

// Remaining returns the number of bytes left before the end of the member.
func (h *Handle) Remaining() int64 {
	pos, _ := h.sr.Seek(0, io.SeekCurrent)
	return h.sr.Size() - pos
}

// ReadAll reads the rest of the member. A member that ends before its
// declared size (archive cut short) is reported as ErrTruncated.
func (h *Handle) ReadAll() ([]byte, error) {
	buf := make([]byte, h.Remaining())
	if _, err := io.ReadFull(h.sr, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrTruncated, h.name)
		}
		return nil, fmt.Errorf("reading %s: %w", h.name, err)
	}
	return buf, nil
}

// Close releases the handle. The underlying archive file stays open until
// the Archive is closed.
func (h *Handle) Close() error {
	return nil
}
