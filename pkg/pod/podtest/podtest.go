// Package podtest builds synthetic POD archives for tests.
package podtest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// File is one member of a synthetic archive.
type File struct {
	Name string
	Data []byte
}

// Build returns the bytes of an archive holding files in the given directory
// order. Data is laid out after the directory in the same order.
func Build(comment string, files ...File) []byte {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, uint32(len(files)))

	header := make([]byte, 0x50)
	copy(header, comment)
	buf.Write(header)

	offset := uint32(4 + 0x50 + 40*len(files))
	for _, f := range files {
		name := make([]byte, 32)
		copy(name, f.Name)
		buf.Write(name)
		binary.Write(buf, binary.LittleEndian, uint32(len(f.Data)))
		binary.Write(buf, binary.LittleEndian, offset)
		offset += uint32(len(f.Data))
	}

	for _, f := range files {
		buf.Write(f.Data)
	}

	return buf.Bytes()
}

// WriteFile writes an archive into a test temp directory and returns its path.
func WriteFile(t testing.TB, files ...File) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "TEST.POD")
	if err := os.WriteFile(path, Build("test archive", files...), 0644); err != nil {
		t.Fatalf("failed to write test archive: %v", err)
	}
	return path
}
