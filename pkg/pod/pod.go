// Package pod provides reading functionality for POD archives.
//
// A POD archive is a flat container: a little-endian entry count, an 0x50-byte
// comment, a directory of fixed 40-byte records and the raw member data. Member
// names are a single flat field such as `MODELS\EGYPT.BIN`.
package pod

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/fury3-assets/pkg/encoding"
)

const (
	commentSize = 0x50
	nameSize    = 32
	entrySize   = nameSize + 4 + 4

	// Directory preallocation cap; larger counts still load, just grow.
	maxPrealloc = 4096
)

// POD archive errors.
var (
	ErrNotFound  = errors.New("pod: file not found")
	ErrTruncated = errors.New("pod: truncated archive")
	ErrBadHeader = errors.New("pod: bad archive header")
)

// Entry describes one member file of the archive.
type Entry struct {
	Name   encoding.NameBuffer
	Size   uint32
	Offset uint32
}

// Archive represents an opened POD archive.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	path    string
	comment []byte
	entries []Entry // sorted by name bytes
}

// Open opens a POD archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}

	archive, err := NewReader(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}
	archive.closer = file
	return archive, nil
}

// NewReader reads the directory of an archive held by r. The name is only
// used in error messages and String.
func NewReader(r io.ReaderAt, name string) (*Archive, error) {
	archive := &Archive{r: r, path: name}
	if err := archive.readDirectory(); err != nil {
		return nil, fmt.Errorf("reading directory of %s: %w", name, err)
	}
	return archive, nil
}

// Close closes the underlying file if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// String returns the archive path.
func (a *Archive) String() string {
	return a.path
}

func (a *Archive) readDirectory() error {
	sr := io.NewSectionReader(a.r, 0, 1<<62)

	var head [4]byte
	if _, err := io.ReadFull(sr, head[:]); err != nil {
		return readError(err, "reading entry count")
	}
	count := binary.LittleEndian.Uint32(head[:])

	a.comment = make([]byte, commentSize)
	if _, err := io.ReadFull(sr, a.comment); err != nil {
		return readError(err, "reading comment")
	}

	a.entries = make([]Entry, 0, min(count, maxPrealloc))
	for i := uint32(0); i < count; i++ {
		entry, err := readEntry(sr)
		if err != nil {
			return fmt.Errorf("entry %d of %d: %w", i, count, err)
		}
		a.entries = append(a.entries, entry)
	}

	sort.Slice(a.entries, func(i, j int) bool {
		return bytes.Compare(a.entries[i].Name.Bytes(), a.entries[j].Name.Bytes()) < 0
	})

	for i := 1; i < len(a.entries); i++ {
		if bytes.Equal(a.entries[i-1].Name.Bytes(), a.entries[i].Name.Bytes()) {
			return fmt.Errorf("%w: duplicate name %q", ErrBadHeader, a.entries[i].Name.String())
		}
	}

	return nil
}

// readEntry reads one directory record: name[32], size, offset.
func readEntry(r io.Reader) (Entry, error) {
	var rec [entrySize]byte
	if _, err := io.ReadFull(r, rec[:]); err != nil {
		return Entry{}, readError(err, "reading entry")
	}

	name, err := encoding.NewNameBuffer(rec[:nameSize])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	return Entry{
		Name:   name,
		Size:   binary.LittleEndian.Uint32(rec[nameSize:]),
		Offset: binary.LittleEndian.Uint32(rec[nameSize+4:]),
	}, nil
}

// readError maps a short read to ErrTruncated and wraps any other failure.
func readError(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Comment returns the header comment up to its first NUL.
func (a *Archive) Comment() string {
	return encoding.DecodeName(a.comment[:clen(a.comment)])
}

func clen(b []byte) int {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return i
	}
	return len(b)
}

// Len returns the number of member files.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the directory in ascending name order.
func (a *Archive) Entries() []Entry {
	result := make([]Entry, len(a.entries))
	copy(result, a.entries)
	return result
}

// List returns all member names in ascending order.
func (a *Archive) List() []string {
	result := make([]string, len(a.entries))
	for i, e := range a.entries {
		result[i] = e.Name.String()
	}
	return result
}

// Contains checks if a member with the exact name exists.
func (a *Archive) Contains(name string) bool {
	_, ok := a.find(name)
	return ok
}

// find performs an exact binary search on the sorted directory.
func (a *Archive) find(name string) (int, bool) {
	key := []byte(name)
	i := sort.Search(len(a.entries), func(i int) bool {
		return bytes.Compare(a.entries[i].Name.Bytes(), key) >= 0
	})
	if i < len(a.entries) && bytes.Equal(a.entries[i].Name.Bytes(), key) {
		return i, true
	}
	return 0, false
}

// OpenByName opens the member whose stored name equals name exactly.
func (a *Archive) OpenByName(name string) (*Handle, error) {
	i, ok := a.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.open(i), nil
}

// OpenByPath opens dir\file by narrowing the sorted directory one byte at a
// time. Entries sharing a prefix are contiguous after sorting, so each step is
// a binary search over the range left by the previous byte.
func (a *Archive) OpenByPath(dir, file string) (*Handle, error) {
	key := encoding.JoinPath(dir, file)

	lo, hi := 0, len(a.entries)
	for pos := 0; pos < len(key); pos++ {
		var ok bool
		lo, hi, ok = a.narrow(lo, hi, pos, key[pos])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}

	// The entry equal to key sorts first among those prefixed by it.
	if lo >= hi || a.entries[lo].Name.Len() != len(key) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return a.open(lo), nil
}

// narrow returns the run of entries in [lo, hi) whose byte at pos equals target.
func (a *Archive) narrow(lo, hi, pos int, target byte) (int, int, bool) {
	want := int(target)
	first := lo + sort.Search(hi-lo, func(k int) bool {
		return byteAt(a.entries[lo+k].Name, pos) >= want
	})
	if first >= hi || byteAt(a.entries[first].Name, pos) != want {
		return 0, 0, false
	}
	end := first + sort.Search(hi-first, func(k int) bool {
		return byteAt(a.entries[first+k].Name, pos) > want
	})
	return first, end, true
}

// byteAt returns the name byte at pos, or -1 past the end of the name. A
// shorter name is a proper prefix of its neighbours and sorts before them, so
// the missing byte must order below every real byte.
func byteAt(name encoding.NameBuffer, pos int) int {
	b, ok := name.At(pos)
	if !ok {
		return -1
	}
	return int(b)
}

func (a *Archive) open(i int) *Handle {
	e := a.entries[i]
	return &Handle{
		name: e.Name.String(),
		sr:   io.NewSectionReader(a.r, int64(e.Offset), int64(e.Size)),
	}
}

// ReadFile reads a whole member by exact name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	h, err := a.OpenByName(name)
	if err != nil {
		return nil, err
	}
	return h.ReadAll()
}
