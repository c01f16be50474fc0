package pod

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/Faultbox/fury3-assets/pkg/pod/podtest"
)

func openBytes(t *testing.T, files ...podtest.File) *Archive {
	t.Helper()
	archive, err := NewReader(bytes.NewReader(podtest.Build("comment", files...)), "test.pod")
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	return archive
}

func TestOpen(t *testing.T) {
	path := podtest.WriteFile(t,
		podtest.File{Name: `DATA\EGYPT.RAW`, Data: []byte{1, 2, 3, 4}},
		podtest.File{Name: `ART\SAND.IMG`, Data: []byte{5}},
	)

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open POD: %v", err)
	}
	defer archive.Close()

	if archive.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", archive.Len())
	}
	if archive.Comment() != "test archive" {
		t.Errorf("expected comment 'test archive', got %q", archive.Comment())
	}
	if archive.String() != path {
		t.Errorf("expected String() %s, got %s", path, archive.String())
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "NOPE.POD"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_Truncated(t *testing.T) {
	full := podtest.Build("", podtest.File{Name: "A.TXT", Data: []byte("hello")})

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"short count", 3},
		{"short comment", 4 + 0x20},
		{"short directory", 4 + 0x50 + 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(full[:tt.size]), "cut.pod")
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("expected ErrTruncated, got %v", err)
			}
		})
	}
}

var errDisk = errors.New("disk failure")

// failingReaderAt serves the first n bytes of data, then fails with errDisk.
type failingReaderAt struct {
	data []byte
	n    int64
}

func (f failingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.n {
		return 0, errDisk
	}
	end := min(off+int64(len(p)), f.n)
	n := copy(p, f.data[off:end])
	if n < len(p) {
		return n, errDisk
	}
	return n, nil
}

func TestOpen_ReadError(t *testing.T) {
	full := podtest.Build("", podtest.File{Name: "A.TXT", Data: []byte("hello")})

	tests := []struct {
		name string
		n    int64
	}{
		{"count", 0},
		{"comment", 4 + 0x10},
		{"directory", 4 + 0x50 + 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(failingReaderAt{data: full, n: tt.n}, "bad.pod")
			if !errors.Is(err, errDisk) {
				t.Errorf("expected errDisk, got %v", err)
			}
			if errors.Is(err, ErrTruncated) {
				t.Errorf("read failure reported as truncation: %v", err)
			}
		})
	}
}

func TestOpen_Directory(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected error opening a directory")
	}
	if errors.Is(err, ErrTruncated) || errors.Is(err, ErrNotFound) {
		t.Errorf("expected an I/O error, got %v", err)
	}
}

func TestOpen_BadHeader(t *testing.T) {
	t.Run("unterminated name", func(t *testing.T) {
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, uint32(1))
		buf.Write(make([]byte, 0x50))
		buf.Write(bytes.Repeat([]byte{'X'}, 32))
		binary.Write(buf, binary.LittleEndian, uint32(0))
		binary.Write(buf, binary.LittleEndian, uint32(0))

		_, err := NewReader(bytes.NewReader(buf.Bytes()), "bad.pod")
		if !errors.Is(err, ErrBadHeader) {
			t.Errorf("expected ErrBadHeader, got %v", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		data := podtest.Build("",
			podtest.File{Name: "SAME.BIN", Data: []byte{1}},
			podtest.File{Name: "SAME.BIN", Data: []byte{2}},
		)
		_, err := NewReader(bytes.NewReader(data), "dup.pod")
		if !errors.Is(err, ErrBadHeader) {
			t.Errorf("expected ErrBadHeader, got %v", err)
		}
	})
}

func TestEntriesSorted(t *testing.T) {
	archive := openBytes(t,
		podtest.File{Name: `MODELS\Z.BIN`},
		podtest.File{Name: `ART\B.IMG`},
		podtest.File{Name: `ART\A.IMG`},
		podtest.File{Name: `ART`},
		podtest.File{Name: `DATA\A.RAW`},
	)

	want := []string{`ART`, `ART\A.IMG`, `ART\B.IMG`, `DATA\A.RAW`, `MODELS\Z.BIN`}
	got := archive.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestScenario_SingleEntry(t *testing.T) {
	archive := openBytes(t, podtest.File{Name: "A.TXT", Data: []byte("hello")})

	h, err := archive.OpenByName("A.TXT")
	if err != nil {
		t.Fatalf("OpenByName failed: %v", err)
	}

	buf := make([]byte, 5)
	n, err := io.ReadFull(h, buf)
	if err != nil || n != 5 {
		t.Fatalf("expected 5 bytes, got %d (%v)", n, err)
	}
	if string(buf) != "hello" {
		t.Errorf("expected 'hello', got %q", buf)
	}

	n, err = h.Read(make([]byte, 1))
	if n != 0 {
		t.Errorf("expected 0 bytes after end, got %d", n)
	}
	if err != io.EOF {
		t.Errorf("expected io.EOF after end, got %v", err)
	}
}

func TestHandle_NeverExceedsSize(t *testing.T) {
	archive := openBytes(t,
		podtest.File{Name: "FIRST", Data: []byte("abc")},
		podtest.File{Name: "SECOND", Data: []byte("defghij")},
	)

	h, err := archive.OpenByName("FIRST")
	if err != nil {
		t.Fatalf("OpenByName failed: %v", err)
	}

	total := 0
	buf := make([]byte, 2)
	for i := 0; i < 10; i++ {
		n, _ := h.Read(buf)
		total += n
	}
	if total != 3 {
		t.Errorf("expected 3 bytes total, got %d", total)
	}
	if h.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", h.Remaining())
	}
}

func TestHandle_IndependentCursors(t *testing.T) {
	archive := openBytes(t,
		podtest.File{Name: "ONE", Data: []byte("11111")},
		podtest.File{Name: "TWO", Data: []byte("22222")},
	)

	h1, _ := archive.OpenByName("ONE")
	b := make([]byte, 2)
	h1.Read(b)

	h2, _ := archive.OpenByName("TWO")
	h2.Read(make([]byte, 5))

	rest, err := h1.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(rest) != "111" {
		t.Errorf("expected first handle to continue with '111', got %q", rest)
	}
}

func TestOpenByName_NotFound(t *testing.T) {
	archive := openBytes(t, podtest.File{Name: "A.TXT", Data: []byte("x")})

	for _, name := range []string{"", "A", "A.TXTX", "a.txt", "B.TXT"} {
		if _, err := archive.OpenByName(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("OpenByName(%q): expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestOpenByPath(t *testing.T) {
	archive := openBytes(t,
		podtest.File{Name: `DATA\EGYPT.RAW`, Data: []byte("raw")},
		podtest.File{Name: `DATA\EGYPT.RAWX`, Data: []byte("rawx")},
		podtest.File{Name: `DATA\EGYPT`, Data: []byte("bare")},
		podtest.File{Name: `DATA\ALPS.RAW`, Data: []byte("alps")},
		podtest.File{Name: `MODELS\EGYPT.BIN`, Data: []byte("bin")},
		podtest.File{Name: `DATAX\EGYPT.RAW`, Data: []byte("other")},
	)

	tests := []struct {
		dir, file string
		want      string
	}{
		{"DATA", "EGYPT.RAW", "raw"},
		{"DATA", "EGYPT.RAWX", "rawx"},
		{"DATA", "EGYPT", "bare"},
		{"DATA", "ALPS.RAW", "alps"},
		{"MODELS", "EGYPT.BIN", "bin"},
		{"DATAX", "EGYPT.RAW", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.dir+"/"+tt.file, func(t *testing.T) {
			h, err := archive.OpenByPath(tt.dir, tt.file)
			if err != nil {
				t.Fatalf("OpenByPath failed: %v", err)
			}
			data, _ := h.ReadAll()
			if string(data) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, data)
			}
		})
	}

	misses := [][2]string{
		{"DATA", "EGYPT.RA"},
		{"DATA", "EGY"},
		{"DATA", "EGYPT.RAWXX"},
		{"MODELS", "EGYPT.RAW"},
		{"ART", "EGYPT.RAW"},
		{"DAT", "EGYPT.RAW"},
	}
	for _, m := range misses {
		if _, err := archive.OpenByPath(m[0], m[1]); !errors.Is(err, ErrNotFound) {
			t.Errorf("OpenByPath(%q, %q): expected ErrNotFound, got %v", m[0], m[1], err)
		}
	}
}

func TestRoundTrip_AllNamesResolve(t *testing.T) {
	var files []podtest.File
	for i := 0; i < 64; i++ {
		dir := []string{"ART", "DATA", "MODELS", "SOUND"}[i%4]
		files = append(files, podtest.File{
			Name: fmt.Sprintf(`%s\F%03d.DAT`, dir, i),
			Data: []byte(fmt.Sprintf("payload-%d", i)),
		})
	}
	archive := openBytes(t, files...)

	for i, f := range files {
		h, err := archive.OpenByName(f.Name)
		if err != nil {
			t.Fatalf("OpenByName(%q) failed: %v", f.Name, err)
		}
		got, _ := h.ReadAll()
		if string(got) != string(f.Data) {
			t.Errorf("file %d: expected %q, got %q", i, f.Data, got)
		}

		dir := []string{"ART", "DATA", "MODELS", "SOUND"}[i%4]
		h2, err := archive.OpenByPath(dir, fmt.Sprintf("F%03d.DAT", i))
		if err != nil {
			t.Fatalf("OpenByPath for %q failed: %v", f.Name, err)
		}
		if h2.Name() != h.Name() {
			t.Errorf("lookups disagree: %q vs %q", h.Name(), h2.Name())
		}
	}
}

func TestReadFile(t *testing.T) {
	archive := openBytes(t, podtest.File{Name: `DATA\README.TXT`, Data: []byte("read me")})

	data, err := archive.ReadFile(`DATA\README.TXT`)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "read me" {
		t.Errorf("expected 'read me', got %q", data)
	}

	if !archive.Contains(`DATA\README.TXT`) {
		t.Error("Contains returned false for existing file")
	}
	if archive.Contains(`DATA\readme.txt`) {
		t.Error("Contains must be case-sensitive")
	}
}

func TestReadFile_MemberPastEnd(t *testing.T) {
	data := podtest.Build("", podtest.File{Name: "BIG", Data: []byte("0123456789")})
	archive, err := NewReader(bytes.NewReader(data[:len(data)-4]), "cut.pod")
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if _, err := archive.ReadFile("BIG"); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}
