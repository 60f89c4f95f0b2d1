package exr

import (
	"errors"
	"fmt"

	"github.com/openexr-go/exrcore/internal/xdr"
)

// Standard attribute names defined by the OpenEXR file format.
const (
	AttrNameChannels           = "channels"
	AttrNameCompression        = "compression"
	AttrNameDataWindow         = "dataWindow"
	AttrNameDisplayWindow      = "displayWindow"
	AttrNameLineOrder          = "lineOrder"
	AttrNamePixelAspectRatio   = "pixelAspectRatio"
	AttrNameScreenWindowCenter = "screenWindowCenter"
	AttrNameScreenWindowWidth  = "screenWindowWidth"
	AttrNameTiles              = "tiles"
	AttrNameName               = "name"
	AttrNameType               = "type"
	AttrNameVersion            = "version"
	AttrNameChunkCount         = "chunkCount"

	attrNameDWACompressionLevel = "dwaCompressionLevel"
	attrNameZIPLevel            = "zipCompressionLevel"
)

// Part type strings, as stored in the "type" attribute of a multi-part header.
const (
	PartTypeScanline     = "scanlineimage"
	PartTypeTiled        = "tiledimage"
	PartTypeDeepScanline = "deepscanline"
	PartTypeDeepTiled    = "deeptile"
)

// DefaultDWACompressionLevel is the DWA quantization level used when a
// header does not specify one explicitly.
const DefaultDWACompressionLevel = 45.0

// Header-related errors.
var (
	ErrInvalidHeader = errors.New("exr: invalid header")
)

// CompressionOptions carries codec tuning knobs that live in the header as
// private attributes rather than as part of the standard attribute set.
type CompressionOptions struct {
	// ZIPLevel is the zlib compression level used by ZIP/ZIPS/PXR24.
	// -1 selects the codec's default level.
	ZIPLevel int
}

// Header holds the attribute set describing one part of an EXR file: its
// channel list, data and display windows, compression, and any additional
// attributes present in the file.
type Header struct {
	attrs map[string]*Attribute
	order []string

	detectedFLevel *float64
}

// NewHeader returns an empty header with no attributes set.
func NewHeader() *Header {
	return &Header{attrs: make(map[string]*Attribute)}
}

// NewScanlineHeader returns a header for an RGB scanline image of the
// given dimensions, ZIP-compressed, with all standard attributes
// defaulted the way the OpenEXR reference writer does.
func NewScanlineHeader(width, height int) *Header {
	h := NewHeader()

	cl := NewChannelList()
	cl.Add(NewChannel("R", PixelTypeHalf))
	cl.Add(NewChannel("G", PixelTypeHalf))
	cl.Add(NewChannel("B", PixelTypeHalf))
	h.SetChannels(cl)

	h.SetCompression(CompressionZIP)
	h.SetDataWindow(Box2i{Min: V2i{0, 0}, Max: V2i{int32(width - 1), int32(height - 1)}})
	h.SetDisplayWindow(Box2i{Min: V2i{0, 0}, Max: V2i{int32(width - 1), int32(height - 1)}})
	h.SetLineOrder(LineOrderIncreasing)
	h.SetPixelAspectRatio(1.0)
	h.SetScreenWindowCenter(V2f{0, 0})
	h.SetScreenWindowWidth(1.0)

	return h
}

// NewTiledHeader returns a tiled-image header built on top of
// NewScanlineHeader, with a single-level tile description of the given
// tile size.
func NewTiledHeader(width, height, tileWidth, tileHeight int) *Header {
	h := NewScanlineHeader(width, height)
	h.SetTileDescription(TileDescription{
		XSize: uint32(tileWidth),
		YSize: uint32(tileHeight),
		Mode:  LevelModeOne,
	})
	return h
}

// Get returns the named attribute, or nil if it is not present.
func (h *Header) Get(name string) *Attribute {
	return h.attrs[name]
}

// Has reports whether the named attribute is present.
func (h *Header) Has(name string) bool {
	_, ok := h.attrs[name]
	return ok
}

// Set adds or replaces an attribute, preserving first-seen order.
func (h *Header) Set(attr *Attribute) {
	if _, exists := h.attrs[attr.Name]; !exists {
		h.order = append(h.order, attr.Name)
	}
	h.attrs[attr.Name] = attr
}

// Remove deletes the named attribute, if present.
func (h *Header) Remove(name string) {
	if _, ok := h.attrs[name]; !ok {
		return
	}
	delete(h.attrs, name)
	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Attributes returns all attributes in file order.
func (h *Header) Attributes() []*Attribute {
	out := make([]*Attribute, len(h.order))
	for i, n := range h.order {
		out[i] = h.attrs[n]
	}
	return out
}

// Channels returns the header's channel list, or nil if unset.
func (h *Header) Channels() *ChannelList {
	a := h.Get(AttrNameChannels)
	if a == nil {
		return nil
	}
	cl, _ := a.Value.(*ChannelList)
	return cl
}

// SetChannels sets the header's channel list.
func (h *Header) SetChannels(cl *ChannelList) {
	h.Set(&Attribute{Name: AttrNameChannels, Type: AttrTypeChlist, Value: cl})
}

// Compression returns the header's compression method, defaulting to
// CompressionNone when unset.
func (h *Header) Compression() Compression {
	a := h.Get(AttrNameCompression)
	if a == nil {
		return CompressionNone
	}
	c, _ := a.Value.(Compression)
	return c
}

// SetCompression sets the header's compression method.
func (h *Header) SetCompression(c Compression) {
	h.Set(&Attribute{Name: AttrNameCompression, Type: AttrTypeCompression, Value: c})
}

// DataWindow returns the header's data window.
func (h *Header) DataWindow() Box2i {
	a := h.Get(AttrNameDataWindow)
	if a == nil {
		return Box2i{}
	}
	b, _ := a.Value.(Box2i)
	return b
}

// SetDataWindow sets the header's data window.
func (h *Header) SetDataWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrNameDataWindow, Type: AttrTypeBox2i, Value: b})
}

// DisplayWindow returns the header's display window.
func (h *Header) DisplayWindow() Box2i {
	a := h.Get(AttrNameDisplayWindow)
	if a == nil {
		return Box2i{}
	}
	b, _ := a.Value.(Box2i)
	return b
}

// SetDisplayWindow sets the header's display window.
func (h *Header) SetDisplayWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrNameDisplayWindow, Type: AttrTypeBox2i, Value: b})
}

// LineOrder returns the header's scanline order, defaulting to
// LineOrderIncreasing when unset.
func (h *Header) LineOrder() LineOrder {
	a := h.Get(AttrNameLineOrder)
	if a == nil {
		return LineOrderIncreasing
	}
	lo, _ := a.Value.(LineOrder)
	return lo
}

// SetLineOrder sets the header's scanline order.
func (h *Header) SetLineOrder(lo LineOrder) {
	h.Set(&Attribute{Name: AttrNameLineOrder, Type: AttrTypeLineOrder, Value: lo})
}

// PixelAspectRatio returns the header's pixel aspect ratio, defaulting
// to 1.0 when unset.
func (h *Header) PixelAspectRatio() float32 {
	a := h.Get(AttrNamePixelAspectRatio)
	if a == nil {
		return 1.0
	}
	v, _ := a.Value.(float32)
	return v
}

// SetPixelAspectRatio sets the header's pixel aspect ratio.
func (h *Header) SetPixelAspectRatio(v float32) {
	h.Set(&Attribute{Name: AttrNamePixelAspectRatio, Type: AttrTypeFloat, Value: v})
}

// ScreenWindowCenter returns the header's screen window center,
// defaulting to the origin when unset.
func (h *Header) ScreenWindowCenter() V2f {
	a := h.Get(AttrNameScreenWindowCenter)
	if a == nil {
		return V2f{}
	}
	v, _ := a.Value.(V2f)
	return v
}

// SetScreenWindowCenter sets the header's screen window center.
func (h *Header) SetScreenWindowCenter(v V2f) {
	h.Set(&Attribute{Name: AttrNameScreenWindowCenter, Type: AttrTypeV2f, Value: v})
}

// ScreenWindowWidth returns the header's screen window width,
// defaulting to 1.0 when unset.
func (h *Header) ScreenWindowWidth() float32 {
	a := h.Get(AttrNameScreenWindowWidth)
	if a == nil {
		return 1.0
	}
	v, _ := a.Value.(float32)
	return v
}

// SetScreenWindowWidth sets the header's screen window width.
func (h *Header) SetScreenWindowWidth(v float32) {
	h.Set(&Attribute{Name: AttrNameScreenWindowWidth, Type: AttrTypeFloat, Value: v})
}

// TileDescription returns the header's tile description, or nil if the
// part is not tiled.
func (h *Header) TileDescription() *TileDescription {
	a := h.Get(AttrNameTiles)
	if a == nil {
		return nil
	}
	td, ok := a.Value.(TileDescription)
	if !ok {
		return nil
	}
	return &td
}

// SetTileDescription sets the header's tile description, marking the
// part as tiled.
func (h *Header) SetTileDescription(td TileDescription) {
	h.Set(&Attribute{Name: AttrNameTiles, Type: AttrTypeTileDesc, Value: td})
}

// IsTiled reports whether the header carries a tile description.
func (h *Header) IsTiled() bool {
	return h.Has(AttrNameTiles)
}

// DWACompressionLevel returns the DWA quantization level, defaulting to
// DefaultDWACompressionLevel when unset.
func (h *Header) DWACompressionLevel() float64 {
	a := h.Get(attrNameDWACompressionLevel)
	if a == nil {
		return DefaultDWACompressionLevel
	}
	v, _ := a.Value.(float64)
	return v
}

// SetDWACompressionLevel sets the DWA quantization level.
func (h *Header) SetDWACompressionLevel(level float64) {
	h.Set(&Attribute{Name: attrNameDWACompressionLevel, Type: AttrTypeDouble, Value: level})
}

// ZIPLevel returns the zlib compression level used for ZIP/ZIPS/PXR24
// chunks, defaulting to -1 (codec default) when unset.
func (h *Header) ZIPLevel() int {
	a := h.Get(attrNameZIPLevel)
	if a == nil {
		return -1
	}
	v, _ := a.Value.(int32)
	return int(v)
}

// SetZIPLevel sets the zlib compression level used for ZIP/ZIPS/PXR24
// chunks.
func (h *Header) SetZIPLevel(level int) {
	h.Set(&Attribute{Name: attrNameZIPLevel, Type: AttrTypeInt, Value: int32(level)})
}

// CompressionOptions returns the header's codec tuning options.
func (h *Header) CompressionOptions() CompressionOptions {
	return CompressionOptions{ZIPLevel: h.ZIPLevel()}
}

// SetCompressionOptions sets the header's codec tuning options.
func (h *Header) SetCompressionOptions(opts CompressionOptions) {
	h.SetZIPLevel(opts.ZIPLevel)
}

// DetectedFLevel returns the zlib compression level a scanline reader
// inferred from the first chunk it decompressed, if any. It is set by
// the decode path, never by the header's own attributes.
func (h *Header) DetectedFLevel() (float64, bool) {
	if h.detectedFLevel == nil {
		return 0, false
	}
	return *h.detectedFLevel, true
}

// setDetectedFLevel records the zlib level inferred while decoding.
func (h *Header) setDetectedFLevel(level float64) {
	h.detectedFLevel = &level
}

// Width returns the data window's width in pixels.
func (h *Header) Width() int {
	return int(h.DataWindow().Width())
}

// Height returns the data window's height in pixels.
func (h *Header) Height() int {
	return int(h.DataWindow().Height())
}

// Validate checks that the header carries the minimum attribute set
// needed to decode an image: a non-empty channel list and a non-empty
// data window.
func (h *Header) Validate() error {
	cl := h.Channels()
	if cl == nil || cl.Len() == 0 {
		return fmt.Errorf("%w: missing channel list", ErrInvalidHeader)
	}
	if h.DataWindow().IsEmpty() {
		return fmt.Errorf("%w: empty data window", ErrInvalidHeader)
	}
	return nil
}

// numLevels returns the number of mipmap/ripmap levels for one axis of
// the given size, rounding per mode, matching the reference library's
// level-count formula.
func numLevels(size int, rounding LevelRoundingMode) int {
	if size <= 0 {
		return 0
	}
	levels := 1
	s := size
	for s > 1 {
		if rounding == LevelRoundUp {
			s = (s + 1) / 2
		} else {
			s = s / 2
		}
		levels++
	}
	return levels
}

func (h *Header) maxLevelAxis() (int, LevelRoundingMode) {
	td := h.TileDescription()
	if td == nil {
		return 0, LevelRoundDown
	}
	w, ht := h.Width(), h.Height()
	m := w
	if ht > m {
		m = ht
	}
	return m, td.RoundingMode
}

// NumXLevels returns the number of levels along X, per the part's tile
// description mode.
func (h *Header) NumXLevels() int {
	td := h.TileDescription()
	if td == nil {
		return 1
	}
	switch td.Mode {
	case LevelModeOne:
		return 1
	case LevelModeMipmap:
		m, rounding := h.maxLevelAxis()
		return numLevels(m, rounding)
	case LevelModeRipmap:
		return numLevels(h.Width(), td.RoundingMode)
	default:
		return 1
	}
}

// NumYLevels returns the number of levels along Y, per the part's tile
// description mode.
func (h *Header) NumYLevels() int {
	td := h.TileDescription()
	if td == nil {
		return 1
	}
	switch td.Mode {
	case LevelModeOne:
		return 1
	case LevelModeMipmap:
		m, rounding := h.maxLevelAxis()
		return numLevels(m, rounding)
	case LevelModeRipmap:
		return numLevels(h.Height(), td.RoundingMode)
	default:
		return 1
	}
}

// LevelWidth returns the pixel width of the given mip/rip level.
// Negative levels return the full-resolution width; levels beyond the
// last valid level clamp to 1.
func (h *Header) LevelWidth(level int) int {
	w := h.Width()
	if level < 0 {
		return w
	}
	td := h.TileDescription()
	if td == nil {
		return w
	}
	for i := 0; i < level && w > 1; i++ {
		if td.RoundingMode == LevelRoundUp {
			w = (w + 1) / 2
		} else {
			w = w / 2
		}
	}
	if w < 1 {
		w = 1
	}
	return w
}

// LevelHeight returns the pixel height of the given mip/rip level.
// Negative levels return the full-resolution height; levels beyond the
// last valid level clamp to 1.
func (h *Header) LevelHeight(level int) int {
	ht := h.Height()
	if level < 0 {
		return ht
	}
	td := h.TileDescription()
	if td == nil {
		return ht
	}
	for i := 0; i < level && ht > 1; i++ {
		if td.RoundingMode == LevelRoundUp {
			ht = (ht + 1) / 2
		} else {
			ht = ht / 2
		}
	}
	if ht < 1 {
		ht = 1
	}
	return ht
}

// NumXTiles returns the number of tile columns at the given level.
// Returns 0 if the header has no tile description.
func (h *Header) NumXTiles(level int) int {
	td := h.TileDescription()
	if td == nil || td.XSize == 0 {
		return 0
	}
	w := h.LevelWidth(level)
	tw := int(td.XSize)
	return (w + tw - 1) / tw
}

// NumYTiles returns the number of tile rows at the given level.
// Returns 0 if the header has no tile description.
func (h *Header) NumYTiles(level int) int {
	td := h.TileDescription()
	if td == nil || td.YSize == 0 {
		return 0
	}
	ht := h.LevelHeight(level)
	th := int(td.YSize)
	return (ht + th - 1) / th
}

// ChunksInFile returns the total number of chunks (scanline blocks or
// tiles, across all levels) this part's chunk offset table describes.
func (h *Header) ChunksInFile() int {
	if h.IsTiled() {
		return h.tiledChunksInFile()
	}
	lpc := h.Compression().ScanlinesPerChunk()
	if lpc <= 0 {
		lpc = 1
	}
	height := h.Height()
	return (height + lpc - 1) / lpc
}

func (h *Header) tiledChunksInFile() int {
	td := h.TileDescription()
	if td == nil {
		return 0
	}
	switch td.Mode {
	case LevelModeOne:
		return h.NumXTiles(0) * h.NumYTiles(0)
	case LevelModeMipmap:
		n := h.NumXLevels()
		total := 0
		for l := 0; l < n; l++ {
			total += h.NumXTiles(l) * h.NumYTiles(l)
		}
		return total
	case LevelModeRipmap:
		nx := h.NumXLevels()
		ny := h.NumYLevels()
		total := 0
		for ly := 0; ly < ny; ly++ {
			for lx := 0; lx < nx; lx++ {
				total += h.NumXTiles(lx) * h.NumYTiles(ly)
			}
		}
		return total
	default:
		return 0
	}
}

// ReadHeader parses a sequence of attributes terminated by an empty
// name, as used by both single-part and per-part multi-part headers.
func ReadHeader(r *xdr.Reader) (*Header, error) {
	h := NewHeader()
	for {
		attr, err := ReadAttribute(r)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			return h, nil
		}
		h.Set(attr)
	}
}

// WriteHeader serialises a header's attributes followed by the
// terminating empty name. It exists for test-fixture synthesis; this
// core never writes a complete EXR file.
func WriteHeader(w *xdr.BufferWriter, h *Header) error {
	for _, attr := range h.Attributes() {
		if err := WriteAttribute(w, attr); err != nil {
			return err
		}
	}
	w.WriteByte(0)
	return nil
}
