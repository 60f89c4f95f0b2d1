// Package render tone-maps a decoded part's dense channel planes into
// a displayable RGBA buffer and a luminance histogram, the boundary
// between this core's decode output and a viewer's display pipeline.
package render

import (
	"math"
	"time"

	"github.com/openexr-go/exrcore/exr"
)

// Backend names the render path that produced a Result. This core has
// one path today; the field exists so a future GPU or SIMD backend
// can be distinguished without changing Result's shape.
const Backend = "cpu-f32"

const histogramBins = 64

// Mapping selects which decoded channel (by name) feeds each of the
// four output components. An empty string means "not present": R, G,
// B default to 0, A defaults to 1.
type Mapping struct {
	R, G, B, A string
}

// Params are the tone-map controls applied to every pixel.
type Params struct {
	Exposure float32
	Gamma    float32
}

// Result is what a render call reports back to the caller.
type Result struct {
	// RGBA holds width*height*4 tone-mapped, clamped-to-[0,1] floats
	// in row-major (R,G,B,A) order.
	RGBA   []float32
	Width  int
	Height int

	// Histogram buckets pixel luminance into 64 uniform bins on
	// [0, 1), with L >= 1 collapsed into the last bin.
	Histogram [histogramBins]uint64

	Backend  string
	RenderMs float64
}

// gammaEpsilon floors Params.Gamma so division never sees zero.
const gammaEpsilon = 1e-6

// Render tone-maps part's channels named by mapping into a dense RGBA
// buffer plus a luminance histogram.
//
// Per pixel: out = clamp(pow(max(v * 2^exposure, 0), 1/max(gamma, eps)), 0, 1)
// applied independently to R, G, B (A is exposure/gamma-mapped too, to
// match the teacher's uniform per-channel tone curve rather than
// passing alpha through raw).
func Render(part *exr.DecodedPart, mapping Mapping, params Params) *Result {
	start := time.Now()

	w, h := part.Width, part.Height
	r := &Result{
		RGBA:    make([]float32, w*h*4),
		Width:   w,
		Height:  h,
		Backend: Backend,
	}

	rCh := part.Channels[mapping.R]
	gCh := part.Channels[mapping.G]
	bCh := part.Channels[mapping.B]
	aCh := part.Channels[mapping.A]

	exposureScale := float32(math.Pow(2, float64(params.Exposure)))
	invGamma := 1 / maxf32(params.Gamma, gammaEpsilon)

	toneMap := func(v float32) float32 {
		v = maxf32(v*exposureScale, 0)
		v = float32(math.Pow(float64(v), float64(invGamma)))
		return clamp01(v)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rv := toneMap(sample(rCh, x, y, 0))
			gv := toneMap(sample(gCh, x, y, 0))
			bv := toneMap(sample(bCh, x, y, 0))
			av := toneMap(sample(aCh, x, y, 1))

			i := (y*w + x) * 4
			r.RGBA[i+0] = rv
			r.RGBA[i+1] = gv
			r.RGBA[i+2] = bv
			r.RGBA[i+3] = av

			lum := 0.2126*rv + 0.7152*gv + 0.0722*bv
			bin := int(lum * histogramBins)
			if bin >= histogramBins {
				bin = histogramBins - 1
			}
			if bin < 0 {
				bin = 0
			}
			r.Histogram[bin]++
		}
	}

	r.RenderMs = float64(time.Since(start).Microseconds()) / 1000.0
	return r
}

// sample reads channel ch at full-resolution pixel (px, py), nearest-
// neighbour-expanding from its native sampling resolution; a missing
// channel (nil) returns fallback.
func sample(ch *exr.DecodedChannel, px, py int, fallback float32) float32 {
	if ch == nil || ch.SampledWidth == 0 || ch.SampledHeight == 0 {
		return fallback
	}
	xs, ys := ch.XSampling, ch.YSampling
	if xs < 1 {
		xs = 1
	}
	if ys < 1 {
		ys = 1
	}
	sx := px / xs
	sy := py / ys
	if sx >= ch.SampledWidth {
		sx = ch.SampledWidth - 1
	}
	if sy >= ch.SampledHeight {
		sy = ch.SampledHeight - 1
	}
	return ch.Data[sy*ch.SampledWidth+sx]
}

// clamp01 clamps a float to [0, 1], matching exr.clamp01's idiom
// (unexported there, so re-expressed here rather than imported).
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
