package compression

import (
	"encoding/binary"
	"errors"

	"github.com/openexr-go/exrcore/internal/huffman"
)

// PIZ errors.
var (
	ErrPIZCorrupted = errors.New("compression: PIZ data corrupted")
)

const pizBitmapSize = 1 << 16

// PIZChannelInfo describes one channel's geometry for PIZ decoding. PIZ
// only ever stores HALF samples; the predictor operates on the whole
// scanline block as a single array of uint16 coefficients, channel by
// channel in ascending-name order.
type PIZChannelInfo struct {
	Width  int
	Height int // number of scanlines in this chunk, honouring y-subsampling
}

// buildBitmap scans data for the set of distinct uint16 values present,
// marking each one's bit in a 65536-bit bitmap. It mirrors
// ImfPizCompressor's bitmapFromData.
func buildBitmap(data []uint16) []byte {
	bitmap := make([]byte, pizBitmapSize/8)
	for _, v := range data {
		bitmap[v>>3] |= 1 << (v & 7)
	}
	// Value 0 is never coded as a literal sample; it represents "unused".
	bitmap[0] &^= 1
	return bitmap
}

// bitmapToLUT builds the forward (value -> index) and inverse (index ->
// value) lookup tables used to pack the sparse set of used pixel values
// into a dense index range before the wavelet transform.
func bitmapToLUT(bitmap []byte) (lut []uint16, maxValue uint16) {
	lut = make([]uint16, pizBitmapSize)
	var k uint16
	for i := 0; i < pizBitmapSize; i++ {
		if bitmap[i>>3]&(1<<(uint(i)&7)) != 0 {
			lut[i] = k
			k++
		}
	}
	if k > 0 {
		maxValue = k - 1
	}
	return lut, maxValue
}

// applyLUT maps each coded index in data back to its original pixel
// value using the inverse LUT built from the bitmap.
func applyLUT(data []uint16, lut []uint16) {
	for i, v := range data {
		if int(v) < len(lut) {
			data[i] = lut[v]
		}
	}
}

// PIZDecompress reverses PIZ compression: Huffman-decode the packed
// wavelet coefficients, run the inverse 2-D Haar wavelet transform per
// channel, unpack through the pixel-value bitmap, then interleave the
// channel planes (still in native on-disk byte order, high byte then
// low byte per OpenEXR's HALF layout) into expectedSize bytes of raw
// scanline data.
func PIZDecompress(data []byte, channels []PIZChannelInfo, expectedSize int) ([]byte, error) {
	if len(data) < 4+pizBitmapSize/8+4 {
		if len(data) == 0 && expectedSize == 0 {
			return nil, nil
		}
		return nil, ErrPIZCorrupted
	}

	pos := 0
	minNonZero := binary.LittleEndian.Uint16(data[pos:])
	pos += 2
	maxNonZero := binary.LittleEndian.Uint16(data[pos:])
	pos += 2

	bitmap := make([]byte, pizBitmapSize/8)
	if maxNonZero >= minNonZero {
		n := int(maxNonZero) - int(minNonZero) + 1
		if pos+n > len(data) {
			return nil, ErrPIZCorrupted
		}
		copy(bitmap[minNonZero:], data[pos:pos+n])
		pos += n
	}

	lut, maxValue := bitmapToLUT(bitmap)

	if pos+4 > len(data) {
		return nil, ErrPIZCorrupted
	}
	compressedLen := binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	totalSamples := 0
	for _, ch := range channels {
		totalSamples += ch.Width * ch.Height
	}

	if pos+int(compressedLen) > len(data) {
		return nil, ErrPIZCorrupted
	}
	huffPayload := data[pos : pos+int(compressedLen)]
	pos += int(compressedLen)

	samples, err := decodePizHuffman(huffPayload, totalSamples)
	if err != nil {
		return nil, err
	}
	if len(samples) < totalSamples {
		return nil, ErrPIZCorrupted
	}

	out := make([]byte, expectedSize)
	offset := 0
	outPos := 0

	for _, ch := range channels {
		n := ch.Width * ch.Height
		if n == 0 {
			continue
		}
		plane := make([]uint16, n)
		copy(plane, samples[offset:offset+n])
		offset += n

		Wav2DDecode(plane, ch.Width, ch.Height, maxValue)
		applyLUT(plane, lut)

		for _, v := range plane {
			if outPos+2 > len(out) {
				return nil, ErrPIZCorrupted
			}
			binary.LittleEndian.PutUint16(out[outPos:], v)
			outPos += 2
		}
	}

	return out, nil
}

// decodePizHuffman parses the OpenEXR PIZ Huffman preface (min/max code,
// table bit count, data bit count, table size word) and invokes the
// shared canonical-Huffman decoder.
func decodePizHuffman(payload []byte, maxOutput int) ([]uint16, error) {
	if len(payload) < 20 {
		if maxOutput == 0 {
			return nil, nil
		}
		return nil, ErrPIZCorrupted
	}
	pos := 0
	_ = binary.LittleEndian.Uint32(payload[pos:]) // minCode
	pos += 4
	_ = binary.LittleEndian.Uint32(payload[pos:]) // maxCode
	pos += 4
	tableBits := int(binary.LittleEndian.Uint32(payload[pos:]))
	pos += 4
	dataBits := int(binary.LittleEndian.Uint32(payload[pos:]))
	pos += 4
	pos += 4 // reserved/future-use word

	tableBytes := (tableBits + 7) / 8
	if pos+tableBytes > len(payload) {
		return nil, ErrPIZCorrupted
	}
	tableStream := payload[pos : pos+tableBytes]
	pos += tableBytes

	dataBytes := (dataBits + 7) / 8
	if pos+dataBytes > len(payload) {
		return nil, ErrPIZCorrupted
	}
	dataStream := payload[pos : pos+dataBytes]

	const pizAlphabet = 65537
	return huffman.Decode(tableStream, tableBits, dataStream, dataBits, pizAlphabet, maxOutput)
}
