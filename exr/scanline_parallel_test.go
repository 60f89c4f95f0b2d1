package exr

import (
	"bytes"
	"testing"
)

// TestScanlineReaderParallelDecodeMatchesSequential decodes the same file
// twice, once with SetParallelDecode(false) (the default) and once with
// SetParallelDecode(true), and checks both frame buffers land byte-for-byte
// identical. Chunks write disjoint scanline ranges, so enabling the worker
// pool must never change the result, only how it's produced.
func TestScanlineReaderParallelDecodeMatchesSequential(t *testing.T) {
	decodeOnce := func(t *testing.T, parallel bool) map[string][]byte {
		f, cleanup := openTestFile(t, "comp_zip.exr")
		defer cleanup()
		if f == nil {
			t.SkipNow()
		}

		header := f.Header(0)
		fb, buffers := AllocateChannels(header.Channels(), header.DataWindow())

		reader, err := NewScanlineReaderPart(f, 0)
		if err != nil {
			t.Fatalf("NewScanlineReaderPart error: %v", err)
		}
		reader.SetFrameBuffer(fb)
		reader.SetParallelDecode(parallel)

		dw := header.DataWindow()
		if err := reader.ReadPixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
			t.Fatalf("ReadPixels(parallel=%v) error: %v", parallel, err)
		}
		return buffers
	}

	seq := decodeOnce(t, false)
	par := decodeOnce(t, true)

	if len(seq) != len(par) {
		t.Fatalf("channel count mismatch: sequential %d, parallel %d", len(seq), len(par))
	}
	for name, seqData := range seq {
		parData, ok := par[name]
		if !ok {
			t.Fatalf("channel %s missing from parallel decode", name)
		}
		if !bytes.Equal(seqData, parData) {
			t.Errorf("channel %s differs between sequential and parallel decode", name)
		}
	}
}
