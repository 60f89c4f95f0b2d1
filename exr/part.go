package exr

import (
	"fmt"
	"unsafe"
)

// DecodedChannel is one channel's decoded samples at their native
// sampling resolution: a dense, row-major f32 array of length
// sampledWidth*sampledHeight.
type DecodedChannel struct {
	PixelType     PixelType
	XSampling     int
	YSampling     int
	SampledWidth  int
	SampledHeight int
	SampleOriginX int
	SampleOriginY int
	Data          []float32
}

// DecodedPart is the result of decoding one part of an EXR file: its
// full data-window dimensions, and every channel's samples.
type DecodedPart struct {
	Width    int
	Height   int
	Channels map[string]*DecodedChannel
}

// Parse reads an EXR file's structure (header(s) and chunk offset
// tables) without decoding any pixel data.
func Parse(data []byte) (*File, error) {
	return Open(data)
}

// Decode parses and fully decodes one part of an EXR file into dense,
// per-channel f32 planes at each channel's native sampling resolution.
// It fails with ErrNotScanlinePart if the part is tiled.
func Decode(data []byte, partID int) (*DecodedPart, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return DecodePart(f, partID)
}

// DecodePart decodes one part of an already-parsed file.
func DecodePart(f *File, partID int) (*DecodedPart, error) {
	h := f.Header(partID)
	if h == nil {
		return nil, NewError(CodePartNotFound, fmt.Sprintf("part %d not found", partID), map[string]any{"partId": partID})
	}
	if h.IsTiled() {
		return nil, NewError(CodeUnsupportedPartType, "tiled parts are not decodable by this core", map[string]any{"partId": partID})
	}
	if !h.Has(AttrNameDataWindow) {
		return nil, NewError(CodeMissingDataWindow, "part has no dataWindow attribute", map[string]any{"partId": partID})
	}

	dw := h.DataWindow()
	cl := h.Channels()

	part := &DecodedPart{
		Width:    h.Width(),
		Height:   h.Height(),
		Channels: make(map[string]*DecodedChannel, cl.Len()),
	}

	fb := NewFrameBuffer()
	for i := 0; i < cl.Len(); i++ {
		c := cl.At(i)
		xs := int(c.XSampling)
		if xs < 1 {
			xs = 1
		}
		ys := int(c.YSampling)
		if ys < 1 {
			ys = 1
		}
		sw := sampledWidth(int(dw.Width()), xs)
		sh := sampledWidth(int(dw.Height()), ys)

		dc := &DecodedChannel{
			PixelType:     c.Type,
			XSampling:     xs,
			YSampling:     ys,
			SampledWidth:  sw,
			SampledHeight: sh,
			SampleOriginX: int(dw.Min.X),
			SampleOriginY: int(dw.Min.Y),
			Data:          make([]float32, sw*sh),
		}
		part.Channels[c.Name] = dc

		if len(dc.Data) == 0 {
			continue
		}
		slice := NewSliceFromFloat32(dc.Data, sw, sh)
		slice.XSampling = xs
		slice.YSampling = ys
		xOffset := -int(dw.Min.X) / xs
		yOffset := -int(dw.Min.Y) / ys
		offset := yOffset*slice.YStride + xOffset*slice.XStride
		slice.Base = unsafe.Pointer(uintptr(slice.Base) + uintptr(offset))
		fb.Set(c.Name, slice)
	}

	reader, err := NewScanlineReaderPart(f, partID)
	if err != nil {
		return nil, err
	}
	reader.SetFrameBuffer(fb)
	if err := reader.ReadPixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
		return nil, err
	}

	return part, nil
}
