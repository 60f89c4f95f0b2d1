package exr

import (
	"sort"
	"strings"

	"github.com/openexr-go/exrcore/internal/xdr"
)

// PixelType identifies the storage format of a channel's samples.
type PixelType uint8

const (
	// PixelTypeUint stores samples as unsigned 32-bit integers.
	PixelTypeUint PixelType = 0
	// PixelTypeHalf stores samples as IEEE 754 binary16 values.
	PixelTypeHalf PixelType = 1
	// PixelTypeFloat stores samples as IEEE 754 binary32 values.
	PixelTypeFloat PixelType = 2
)

// String returns the name OpenEXR uses for this pixel type.
func (pt PixelType) String() string {
	switch pt {
	case PixelTypeUint:
		return "uint"
	case PixelTypeHalf:
		return "half"
	case PixelTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Size returns the on-disk size in bytes of one sample of this type.
func (pt PixelType) Size() int {
	switch pt {
	case PixelTypeUint:
		return 4
	case PixelTypeHalf:
		return 2
	case PixelTypeFloat:
		return 4
	default:
		return 0
	}
}

// Channel describes one channel entry from a chlist attribute.
type Channel struct {
	Name      string
	Type      PixelType
	PLinear   bool
	XSampling int32
	YSampling int32
}

// NewChannel returns a Channel with 1x1 sampling and PLinear false.
func NewChannel(name string, t PixelType) Channel {
	return Channel{Name: name, Type: t, XSampling: 1, YSampling: 1}
}

// Layer returns the layer prefix of a dotted channel name, e.g.
// "light.specular.R" -> "light.specular". Channels with no '.' belong to
// the root layer and return "".
func (c Channel) Layer() string {
	i := strings.LastIndexByte(c.Name, '.')
	if i < 0 {
		return ""
	}
	return c.Name[:i]
}

// BaseName returns the channel name with its layer prefix stripped.
func (c Channel) BaseName() string {
	i := strings.LastIndexByte(c.Name, '.')
	if i < 0 {
		return c.Name
	}
	return c.Name[i+1:]
}

// ChannelList is the ordered set of channels belonging to a part.
// Order is preserved as encountered (file order); Add rejects duplicate
// names.
type ChannelList struct {
	channels []Channel
	byName   map[string]int
}

// NewChannelList returns an empty channel list.
func NewChannelList() *ChannelList {
	return &ChannelList{byName: make(map[string]int)}
}

// Len returns the number of channels.
func (cl *ChannelList) Len() int {
	return len(cl.channels)
}

// Add appends a channel, returning false if a channel with the same name
// already exists.
func (cl *ChannelList) Add(c Channel) bool {
	if _, exists := cl.byName[c.Name]; exists {
		return false
	}
	cl.byName[c.Name] = len(cl.channels)
	cl.channels = append(cl.channels, c)
	return true
}

// Get returns the channel with the given name, or nil if not present.
func (cl *ChannelList) Get(name string) *Channel {
	i, ok := cl.byName[name]
	if !ok {
		return nil
	}
	return &cl.channels[i]
}

// At returns the channel at the given file-order index.
func (cl *ChannelList) At(i int) *Channel {
	return &cl.channels[i]
}

// Names returns the channel names in file order.
func (cl *ChannelList) Names() []string {
	names := make([]string, len(cl.channels))
	for i, c := range cl.channels {
		names[i] = c.Name
	}
	return names
}

// Channels returns a copy of the underlying channel slice.
func (cl *ChannelList) Channels() []Channel {
	out := make([]Channel, len(cl.channels))
	copy(out, cl.channels)
	return out
}

// HasRGB reports whether R, G and B channels are all present.
func (cl *ChannelList) HasRGB() bool {
	return cl.Get("R") != nil && cl.Get("G") != nil && cl.Get("B") != nil
}

// HasAlpha reports whether an A channel is present.
func (cl *ChannelList) HasAlpha() bool {
	return cl.Get("A") != nil
}

// HasRGBA reports whether R, G, B and A are all present.
func (cl *ChannelList) HasRGBA() bool {
	return cl.HasRGB() && cl.HasAlpha()
}

// Layers returns the distinct non-root layer prefixes present.
func (cl *ChannelList) Layers() []string {
	seen := make(map[string]bool)
	var layers []string
	for _, c := range cl.channels {
		l := c.Layer()
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		layers = append(layers, l)
	}
	sort.Strings(layers)
	return layers
}

// ChannelsInLayer returns the channels belonging to the given layer
// ("" for the root layer).
func (cl *ChannelList) ChannelsInLayer(layer string) []Channel {
	var out []Channel
	for _, c := range cl.channels {
		if c.Layer() == layer {
			out = append(out, c)
		}
	}
	return out
}

// SortByName reorders the channels alphabetically by name, rebuilding the
// by-name index.
func (cl *ChannelList) SortByName() {
	sort.Slice(cl.channels, func(i, j int) bool {
		return cl.channels[i].Name < cl.channels[j].Name
	})
	cl.reindex()
}

// SortForCompression reorders channels by pixel type then name, matching
// the order several compression schemes (PXR24, B44) expect channel
// planes to be walked in.
func (cl *ChannelList) SortForCompression() {
	sort.Slice(cl.channels, func(i, j int) bool {
		if cl.channels[i].Type != cl.channels[j].Type {
			return cl.channels[i].Type < cl.channels[j].Type
		}
		return cl.channels[i].Name < cl.channels[j].Name
	})
	cl.reindex()
}

func (cl *ChannelList) reindex() {
	for i, c := range cl.channels {
		cl.byName[c.Name] = i
	}
}

// BytesPerPixel returns the sum of each channel's sample size, ignoring
// subsampling (i.e. the cost of one fully-sampled pixel).
func (cl *ChannelList) BytesPerPixel() int {
	total := 0
	for _, c := range cl.channels {
		total += c.Type.Size()
	}
	return total
}

// BytesPerScanline returns the number of bytes one scanline of width
// pixels occupies across all channels, honouring each channel's
// XSampling.
func (cl *ChannelList) BytesPerScanline(width int) int {
	total := 0
	for _, c := range cl.channels {
		xs := int(c.XSampling)
		if xs < 1 {
			xs = 1
		}
		n := (width + xs - 1) / xs
		total += n * c.Type.Size()
	}
	return total
}

// ReadChannelList parses a chlist attribute payload: repeated
// `name\0 i32 pixelType u8 pLinear u8[3] reserved i32 xSampling i32
// ySampling` records terminated by an empty name.
func ReadChannelList(r *xdr.Reader) (*ChannelList, error) {
	cl := NewChannelList()
	for {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return cl, nil
		}

		pt, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		pLinear, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(3); err != nil {
			return nil, err
		}
		xs, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		ys, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}

		cl.Add(Channel{
			Name:      name,
			Type:      PixelType(pt),
			PLinear:   pLinear != 0,
			XSampling: xs,
			YSampling: ys,
		})
	}
}

// WriteChannelList serialises a ChannelList in the chlist wire format
// used by ReadChannelList. It exists for test-fixture synthesis; this
// core never writes a complete EXR file.
func WriteChannelList(w *xdr.BufferWriter, cl *ChannelList) {
	for _, c := range cl.channels {
		w.WriteString(c.Name)
		w.WriteInt32(int32(c.Type))
		if c.PLinear {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteBytes([]byte{0, 0, 0})
		w.WriteInt32(c.XSampling)
		w.WriteInt32(c.YSampling)
	}
	w.WriteByte(0)
}
