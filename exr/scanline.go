package exr

import (
	"errors"
	"fmt"

	"github.com/openexr-go/exrcore/internal/xdr"
)

// Scanline reader errors.
var (
	ErrNotScanlinePart = errors.New("exr: part is not a scanline image")
	ErrNoFrameBuffer   = errors.New("exr: ReadPixels called with no frame buffer set")
)

// ScanlineReader decodes the scanline chunks of one part of an EXR file
// into a caller-supplied FrameBuffer.
type ScanlineReader struct {
	file     *File
	part     int
	header   *Header
	fb       *FrameBuffer
	sink     EventSink
	parallel bool
}

// NewScanlineReader returns a reader for part 0 of f.
func NewScanlineReader(f *File) (*ScanlineReader, error) {
	return NewScanlineReaderPart(f, 0)
}

// NewScanlineReaderPart returns a reader for the given part of f. It
// fails if the part is tiled or deep.
func NewScanlineReaderPart(f *File, part int) (*ScanlineReader, error) {
	h := f.Header(part)
	if h == nil {
		return nil, fmt.Errorf("exr: part %d not found", part)
	}
	if h.IsTiled() {
		return nil, ErrNotScanlinePart
	}
	return &ScanlineReader{file: f, part: part, header: h}, nil
}

// Header returns the header this reader decodes against.
func (r *ScanlineReader) Header() *Header {
	return r.header
}

// DataWindow returns the part's data window.
func (r *ScanlineReader) DataWindow() Box2i {
	return r.header.DataWindow()
}

// SetFrameBuffer sets the destination slices pixels are decoded into.
// Channels the frame buffer does not request are decoded and discarded.
func (r *ScanlineReader) SetFrameBuffer(fb *FrameBuffer) {
	r.fb = fb
}

// SetEventSink installs sink to receive progress and warning events for
// every subsequent ReadPixels call. A nil sink (the default) disables
// event delivery entirely.
func (r *ScanlineReader) SetEventSink(sink EventSink) {
	r.sink = sink
}

// SetParallelDecode enables decoding a ReadPixels call's chunks across
// GetParallelConfig's worker pool instead of sequentially. Chunks write
// disjoint scanline ranges of the frame buffer, so this is safe, but
// parallelism is an implementation option, not a contract: the default
// is false, matching single-threaded, synchronous decode.
func (r *ScanlineReader) SetParallelDecode(enabled bool) {
	r.parallel = enabled
}

// ReadPixels decodes scanlines [minY, maxY] (inclusive) of the part's
// data window into the frame buffer set by SetFrameBuffer.
func (r *ScanlineReader) ReadPixels(minY, maxY int) error {
	if r.fb == nil {
		return ErrNoFrameBuffer
	}

	dw := r.header.DataWindow()
	dwMinY := int(dw.Min.Y)
	dwMaxY := int(dw.Max.Y)
	if minY < dwMinY {
		minY = dwMinY
	}
	if maxY > dwMaxY {
		maxY = dwMaxY
	}
	if minY > maxY {
		return nil
	}

	linesPerChunk := r.header.Compression().ScanlinesPerChunk()
	if linesPerChunk < 1 {
		linesPerChunk = 1
	}
	totalChunks := (dwMaxY - dwMinY + linesPerChunk) / linesPerChunk
	lineOrder := r.header.LineOrder()

	emit(r.sink, Event{
		Phase:   PhaseDecode,
		Level:   LevelInfo,
		Code:    "decode.setup",
		Message: "scanline decode starting",
		Metrics: map[string]any{
			"part":          r.part,
			"totalChunks":   totalChunks,
			"linesPerChunk": linesPerChunk,
		},
	})

	firstChunk := (minY - dwMinY) / linesPerChunk
	lastChunk := (maxY - dwMinY) / linesPerChunk
	numChunks := lastChunk - firstChunk + 1

	readOne := func(i int) error {
		c := firstChunk + i
		chunkStartY := dwMinY + c*linesPerChunk
		chunkEndY := chunkStartY + linesPerChunk
		if chunkEndY > dwMaxY+1 {
			chunkEndY = dwMaxY + 1
		}
		linesInChunk := chunkEndY - chunkStartY

		chunkIndex := c
		if lineOrder == LineOrderDecreasing {
			chunkIndex = totalChunks - 1 - c
		}

		if err := r.readChunk(chunkIndex, chunkStartY, linesInChunk); err != nil {
			return fmt.Errorf("exr: reading chunk %d (scanlines %d-%d): %w", chunkIndex, chunkStartY, chunkEndY-1, err)
		}
		return nil
	}

	if r.parallel {
		// Each chunk writes a disjoint scanline range of r.fb and reads
		// only from r.file's immutable backing buffer, so concurrent
		// chunks are safe; ParallelForWithError falls back to sequential
		// itself when there's too little work to split.
		return ParallelForWithError(numChunks, readOne)
	}
	for i := 0; i < numChunks; i++ {
		if err := readOne(i); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScanlineReader) readChunk(chunkIndex, chunkStartY, linesInChunk int) error {
	off, err := r.file.chunkOffset(r.part, chunkIndex)
	if err != nil {
		return err
	}
	buf, err := r.file.bytesAt(off)
	if err != nil {
		return classifyChunkError(err, chunkIndex)
	}
	rd := xdr.NewReader(buf)

	if r.file.IsMultiPart() {
		partNumber, err := rd.ReadInt32()
		if err != nil {
			return classifyChunkError(err, chunkIndex)
		}
		if int(partNumber) != r.part {
			emit(r.sink, Event{
				Phase:   PhaseDecode,
				Level:   LevelWarn,
				Code:    "decode.part_mismatch",
				Message: "chunk belongs to a different part; skipped",
				Metrics: map[string]any{"wantPart": r.part, "gotPart": int(partNumber), "chunk": chunkIndex},
			})
			return nil
		}
	}
	if _, err := rd.ReadInt32(); err != nil { // first scanline y
		return classifyChunkError(err, chunkIndex)
	}
	packedSize, err := rd.ReadInt32()
	if err != nil {
		return classifyChunkError(err, chunkIndex)
	}
	packed, err := rd.ReadBytes(int(packedSize))
	if err != nil {
		return classifyChunkError(err, chunkIndex)
	}

	raw, err := decodeChunk(r.header, packed, linesInChunk)
	if err != nil {
		var exrErr *Error
		code := "unknown"
		if errors.As(err, &exrErr) {
			code = string(exrErr.Code)
		}
		emit(r.sink, Event{
			Phase:   PhaseDecode,
			Level:   LevelError,
			Code:    code,
			Message: "chunk decode failed",
			Metrics: map[string]any{"chunk": chunkIndex},
		})
		return err
	}

	dwMinX := int(r.header.DataWindow().Min.X)
	return unpackChunk(r.header, raw, r.fb, dwMinX, chunkStartY, linesInChunk)
}

// classifyChunkError maps a chunk header/body read failure to a typed
// error. A chunk's packedSize field is untrusted input: when it
// claims more bytes than remain in the file, the xdr reader reports
// ErrShortBuffer, which here means "the source buffer was too small
// to hold the chunk this header promised" rather than a generic parse
// failure.
func classifyChunkError(err error, chunkIndex int) error {
	if errors.Is(err, xdr.ErrShortBuffer) {
		return NewError(CodeBufferTooSmall,
			fmt.Sprintf("chunk %d: declared size exceeds remaining file data", chunkIndex),
			map[string]any{"chunk": chunkIndex})
	}
	return err
}
