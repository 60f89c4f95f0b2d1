package exr

import (
	"errors"
	"io"
	"os"

	"github.com/openexr-go/exrcore/internal/xdr"
)

// classifyParseError maps a low-level read/validation failure from
// parseFile to one of the taxonomy's typed codes, so callers that
// errors.As into *Error see a stable code regardless of which internal
// reader raised it.
func classifyParseError(err error, stage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBadMagic) {
		return WrapError(CodeInvalidMagic, "not an OpenEXR file", map[string]any{"stage": stage}, err)
	}
	if errors.Is(err, ErrUnsupportedVersion) {
		return WrapError(CodeMalformedHeader, "unsupported version", map[string]any{"stage": stage}, err)
	}
	if errors.Is(err, xdr.ErrShortBuffer) {
		return WrapError(CodeTruncatedFile, "buffer ended before expected data", map[string]any{"stage": stage}, err)
	}
	return WrapError(CodeMalformedHeader, "malformed header", map[string]any{"stage": stage}, err)
}

const magicNumber int32 = 20000630

// Version-field flag bits, as packed into the second 4-byte word of an
// EXR file alongside the 8-bit version number.
const (
	flagTiled          uint32 = 1 << 9
	flagLongNames      uint32 = 1 << 10
	flagNonImageParts  uint32 = 1 << 11 // deep data
	flagMultiPart      uint32 = 1 << 12
	versionNumberMask  uint32 = 0xFF
)

// File-level errors.
var (
	ErrBadMagic     = errors.New("exr: not an OpenEXR file (bad magic number)")
	ErrUnsupportedVersion = errors.New("exr: unsupported file version")
)

// File is a parsed, decode-ready view of an OpenEXR file: its version
// flags, one Header per part, and each part's chunk offset table. The
// whole file is held in memory; File never mutates data once opened.
type File struct {
	data      []byte
	version   int
	multiPart bool
	tiled     bool
	deep      bool
	longNames bool

	headers      []*Header
	chunkOffsets [][]int64

	closer io.Closer
}

// Open parses an in-memory EXR file.
func Open(data []byte) (*File, error) {
	return parseFile(data, nil)
}

// OpenReader reads size bytes from r and parses them as an EXR file.
func OpenReader(r io.Reader, size int64) (*File, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return parseFile(data, nil)
}

// OpenFile reads and parses the EXR file at path.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFile(data, nil)
}

// OpenFileMmap parses the EXR file at path via a memory-mapped,
// zero-copy view instead of reading it fully into a fresh buffer. The
// returned File's Close must be called to release the mapping.
func OpenFileMmap(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := newMmapReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	data := m.Slice(0, m.Size())
	return parseFile(data, m)
}

func parseFile(data []byte, closer io.Closer) (*File, error) {
	r := xdr.NewReader(data)

	magic, err := r.ReadInt32()
	if err != nil {
		return nil, classifyParseError(err, "magic")
	}
	if magic != magicNumber {
		return nil, classifyParseError(ErrBadMagic, "magic")
	}

	verWord, err := r.ReadUint32()
	if err != nil {
		return nil, classifyParseError(err, "version")
	}
	version := int(verWord & versionNumberMask)
	flags := verWord &^ versionNumberMask

	f := &File{
		data:      data,
		version:   version,
		multiPart: flags&flagMultiPart != 0,
		tiled:     flags&flagTiled != 0,
		deep:      flags&flagNonImageParts != 0,
		longNames: flags&flagLongNames != 0,
		closer:    closer,
	}

	if f.multiPart {
		for {
			b, err := r.ReadByte()
			if err != nil {
				return nil, classifyParseError(err, "header-list")
			}
			if b == 0 {
				break
			}
			if err := r.SetPos(r.Pos() - 1); err != nil {
				return nil, classifyParseError(err, "header-list")
			}
			h, err := ReadHeader(r)
			if err != nil {
				return nil, classifyParseError(err, "header")
			}
			f.headers = append(f.headers, h)
		}
	} else {
		h, err := ReadHeader(r)
		if err != nil {
			return nil, classifyParseError(err, "header")
		}
		f.headers = []*Header{h}
	}

	f.chunkOffsets = make([][]int64, len(f.headers))
	for i, h := range f.headers {
		n := h.ChunksInFile()
		offsets := make([]int64, n)
		for j := 0; j < n; j++ {
			v, err := r.ReadInt64()
			if err != nil {
				return nil, WrapError(CodeMalformedOffsetTable, "offset table truncated", map[string]any{"part": i, "index": j}, err)
			}
			offsets[j] = v
		}
		f.chunkOffsets[i] = offsets
	}

	return f, nil
}

// NumParts returns the number of parts in the file (always 1 for a
// single-part file).
func (f *File) NumParts() int {
	return len(f.headers)
}

// IsMultiPart reports whether the file uses the multi-part layout
// (a partNumber field precedes every chunk header).
func (f *File) IsMultiPart() bool {
	return f.multiPart
}

// IsTiled reports whether the version flags mark any part as tiled.
func (f *File) IsTiled() bool {
	return f.tiled
}

// IsDeep reports whether the version flags mark any part as deep data.
func (f *File) IsDeep() bool {
	return f.deep
}

// Version returns the 8-bit file format version number.
func (f *File) Version() int {
	return f.version
}

// Header returns the header for the given part index, or nil if out of
// range.
func (f *File) Header(part int) *Header {
	if part < 0 || part >= len(f.headers) {
		return nil
	}
	return f.headers[part]
}

// chunkOffset returns the byte offset of the given chunk within part,
// as recorded in that part's chunk offset table.
func (f *File) chunkOffset(part, chunk int) (int64, error) {
	if part < 0 || part >= len(f.chunkOffsets) {
		return 0, ErrPartNotFound
	}
	offsets := f.chunkOffsets[part]
	if chunk < 0 || chunk >= len(offsets) {
		return 0, errors.New("exr: chunk index out of range")
	}
	return offsets[chunk], nil
}

// bytesAt returns the data slice starting at absolute file offset off.
func (f *File) bytesAt(off int64) ([]byte, error) {
	if off < 0 || off > int64(len(f.data)) {
		return nil, xdr.ErrShortBuffer
	}
	return f.data[off:], nil
}

// Close releases resources held by the file (only meaningful for
// OpenFileMmap; other constructors hold no external resources).
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
