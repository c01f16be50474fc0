package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrUnterminatedName is returned when a fixed-size name field has no NUL terminator.
var ErrUnterminatedName = errors.New("name buffer is not NUL-terminated")

// NameBuffer is a fixed-size, NUL-terminated byte buffer as stored in archive
// directories and model texture blocks. Bytes after the terminator are ignored.
type NameBuffer struct {
	buf []byte
	n   int // position of the terminator
}

// NewNameBuffer wraps buf, which must contain a NUL terminator.
func NewNameBuffer(buf []byte) (NameBuffer, error) {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		return NameBuffer{}, fmt.Errorf("%w: %q", ErrUnterminatedName, buf)
	}
	return NameBuffer{buf: buf, n: n}, nil
}

// ReadNameBuffer reads exactly size bytes from r into a new NameBuffer.
func ReadNameBuffer(r io.Reader, size int) (NameBuffer, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return NameBuffer{}, err
	}
	return NewNameBuffer(buf)
}

// Bytes returns the name without the terminator. The slice aliases the buffer.
func (n NameBuffer) Bytes() []byte {
	return n.buf[:n.n]
}

// String returns the name as a Go string (raw bytes, no code page conversion).
func (n NameBuffer) String() string {
	return string(n.buf[:n.n])
}

// Len returns the name length excluding the terminator.
func (n NameBuffer) Len() int {
	return n.n
}

// Cap returns the size of the underlying fixed field.
func (n NameBuffer) Cap() int {
	return len(n.buf)
}

// At returns the name byte at offset i and whether i is inside the name.
func (n NameBuffer) At(i int) (byte, bool) {
	if i < 0 || i >= n.n {
		return 0, false
	}
	return n.buf[i], true
}
