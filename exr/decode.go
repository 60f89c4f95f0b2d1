package exr

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/openexr-go/exrcore/compression"
	"github.com/openexr-go/exrcore/half"
	"github.com/openexr-go/exrcore/internal/predictor"
)

// uintNormalizer maps a full-range uint32 sample onto [0, 1], per
// spec.md 4.4 step 8.
const uintNormalizer = float32(4294967295.0) // 2^32 - 1

// decodeChunk decompresses the packed bytes of one scanline chunk into
// raw, channel-planar scanline data: for each row in the chunk (top to
// bottom), each channel's samples in header order, each sample in the
// channel's native on-disk byte width.
//
// linesInChunk is the number of full-resolution scanlines the chunk
// covers (the header's Compression.ScanlinesPerChunk(), clamped to the
// rows remaining in the data window).
func decodeChunk(h *Header, packed []byte, linesInChunk int) ([]byte, error) {
	cl := h.Channels()
	width := h.Width()

	rawSize := 0
	chanRows := make([]int, cl.Len())
	for i := 0; i < cl.Len(); i++ {
		c := cl.At(i)
		rows := countSampledLines(0, linesInChunk, int(c.YSampling))
		chanRows[i] = rows
		rawSize += rows * sampledWidth(width, int(c.XSampling)) * c.Type.Size()
	}

	// Raw-passthrough: regardless of the chunk's declared compression,
	// if the payload is already exactly expectedUncompressedSize the
	// encoder stored it uncompressed (common when compression would not
	// have reduced size). This check must run before dispatch, not only
	// for CompressionNone: it is load-bearing for some B44A encoders.
	if len(packed) == rawSize {
		return packed, nil
	}

	switch h.Compression() {
	case CompressionNone:
		return nil, NewError(CodeMalformedChunk,
			fmt.Sprintf("expected %d raw bytes, got %d", rawSize, len(packed)),
			map[string]any{"expected": rawSize, "got": len(packed)})

	case CompressionRLE:
		raw, err := compression.RLEDecompress(packed, rawSize)
		if err != nil {
			return nil, WrapError(CodeDecompressionFailed, "RLE decompress", map[string]any{"compression": "RLE"}, err)
		}
		raw = compression.Deinterleave(raw)
		predictor.Decode(raw)
		return raw, nil

	case CompressionZIPS, CompressionZIP:
		raw, err := compression.ZIPDecompress(packed, rawSize)
		if err != nil {
			return nil, WrapError(CodeDecompressionFailed, "ZIP decompress", map[string]any{"compression": "ZIP"}, err)
		}
		raw = compression.Deinterleave(raw)
		predictor.Decode(raw)
		return raw, nil

	case CompressionPIZ:
		pizChans := make([]compression.PIZChannelInfo, cl.Len())
		for i := 0; i < cl.Len(); i++ {
			pizChans[i] = compression.PIZChannelInfo{
				Width:  sampledWidth(width, int(cl.At(i).XSampling)),
				Height: chanRows[i],
			}
		}
		raw, err := compression.PIZDecompress(packed, pizChans, rawSize)
		if err != nil {
			return nil, WrapError(CodeDecompressionFailed, "PIZ decompress", map[string]any{"compression": "PIZ"}, err)
		}
		return raw, nil

	case CompressionPXR24:
		pxChans := make([]compression.ChannelInfo, cl.Len())
		for i := 0; i < cl.Len(); i++ {
			pxChans[i] = compression.ChannelInfo{
				Type:   int(cl.At(i).Type),
				Width:  sampledWidth(width, int(cl.At(i).XSampling)),
				Height: chanRows[i],
			}
		}
		raw, err := compression.PXR24Decompress(packed, pxChans, width, linesInChunk, rawSize)
		if err != nil {
			return nil, WrapError(CodeDecompressionFailed, "PXR24 decompress", map[string]any{"compression": "PXR24"}, err)
		}
		return raw, nil

	case CompressionB44, CompressionB44A:
		b44Chans := make([]compression.B44ChannelInfo, cl.Len())
		for i := 0; i < cl.Len(); i++ {
			c := cl.At(i)
			b44Chans[i] = compression.B44ChannelInfo{
				Type:      int(c.Type),
				Width:     sampledWidth(width, int(c.XSampling)),
				Height:    chanRows[i],
				XSampling: int(c.XSampling),
				YSampling: int(c.YSampling),
			}
		}
		raw, err := compression.B44Decompress(packed, b44Chans, width, linesInChunk, rawSize)
		if err != nil {
			return nil, WrapError(CodeDecompressionFailed, "B44 decompress", map[string]any{"compression": "B44"}, err)
		}
		return raw, nil

	case CompressionDWAA, CompressionDWAB:
		dwaChans := make([]compression.DwaChannelData, cl.Len())
		for i := 0; i < cl.Len(); i++ {
			c := cl.At(i)
			dwaChans[i] = compression.DwaChannelData{
				Name:      c.Name,
				PixelType: int(c.Type),
				XSampling: int(c.XSampling),
				YSampling: int(c.YSampling),
			}
		}
		dec := compression.NewDwaDecompressor(width, linesInChunk)
		dec.SetChannels(dwaChans)
		raw := make([]byte, rawSize)
		if err := dec.Decompress(packed, raw); err != nil {
			return nil, WrapError(CodeDecompressionFailed, "DWA decompress", map[string]any{"compression": "DWA"}, err)
		}
		return raw, nil

	default:
		return nil, NewError(CodeUnsupportedCompression,
			fmt.Sprintf("compression tag %s is not supported; supported: NONE, RLE, ZIPS, ZIP, PIZ, PXR24, B44, B44A, DWAA, DWAB", h.Compression()),
			map[string]any{"tag": int(h.Compression())})
	}
}

// unpackChunk scatters a decoded, channel-planar chunk buffer into the
// matching slices of fb, for scanlines [yStart, yStart+linesInChunk) of
// the data window (yStart is relative to the data window's minimum Y).
func unpackChunk(h *Header, raw []byte, fb *FrameBuffer, dwMinX, yStart, linesInChunk int) error {
	cl := h.Channels()
	width := h.Width()
	pos := 0

	for row := 0; row < linesInChunk; row++ {
		y := yStart + row
		for i := 0; i < cl.Len(); i++ {
			c := cl.At(i)
			if !isSampled(row, int(c.YSampling)) {
				continue
			}
			n := sampledWidth(width, int(c.XSampling))
			size := c.Type.Size()
			need := n * size
			if pos+need > len(raw) {
				return NewError(CodeMalformedChunk,
					fmt.Sprintf("channel %q row %d truncated", c.Name, y),
					map[string]any{"channel": c.Name, "row": y})
			}
			sampleBytes := raw[pos : pos+need]
			pos += need

			slice := fb.Get(c.Name)
			if slice == nil {
				continue // frame buffer doesn't request this channel
			}

			xs := int(c.XSampling)
			if xs < 1 {
				xs = 1
			}
			for sx := 0; sx < n; sx++ {
				x := dwMinX + sx*xs
				var v float32
				switch c.Type {
				case PixelTypeHalf:
					bits := binary.LittleEndian.Uint16(sampleBytes[sx*2:])
					v = half.ToFloat32Fast(bits)
				case PixelTypeFloat:
					v = float32FromLEBytes(sampleBytes[sx*4:])
				case PixelTypeUint:
					v = float32(binary.LittleEndian.Uint32(sampleBytes[sx*4:])) / uintNormalizer
				}
				slice.SetFloat32(x, y, v)
			}
		}
	}

	return nil
}

func float32FromLEBytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
