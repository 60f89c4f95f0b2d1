package exr

import (
	"image"
	"image/color"
	"testing"
)

func TestNewRGBAImage(t *testing.T) {
	img := NewRGBAImage(image.Rect(0, 0, 4, 3))
	if img.Rect.Dx() != 4 || img.Rect.Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", img.Rect)
	}
	if len(img.Pix) != 4*3*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(img.Pix), 4*3*4)
	}
	if img.Stride != 4 {
		t.Errorf("Stride = %d, want 4", img.Stride)
	}
}

func TestRGBAImageSetAndGet(t *testing.T) {
	img := NewRGBAImage(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, 0.25, 0.5, 0.75, 1.0)

	r, g, b, a := img.RGBA(1, 1)
	if r != 0.25 || g != 0.5 || b != 0.75 || a != 1.0 {
		t.Errorf("RGBA(1,1) = %v,%v,%v,%v, want 0.25,0.5,0.75,1.0", r, g, b, a)
	}

	r, g, b, a = img.RGBA(0, 0)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("RGBA(0,0) = %v,%v,%v,%v, want zero", r, g, b, a)
	}
}

func TestRGBAImageOutOfBounds(t *testing.T) {
	img := NewRGBAImage(image.Rect(0, 0, 2, 2))
	img.SetRGBA(5, 5, 1, 1, 1, 1) // must not panic or write out of range

	r, g, b, a := img.RGBA(5, 5)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("RGBA(5,5) out of bounds should read zero, got %v,%v,%v,%v", r, g, b, a)
	}

	if got := img.At(-1, -1); got != (color.RGBA{}) {
		t.Errorf("At(-1,-1) out of bounds = %v, want zero color", got)
	}
}

func TestRGBAImageAtClampsHDR(t *testing.T) {
	img := NewRGBAImage(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, 2.5, -1.0, 0.5, 1.0)

	got := img.At(0, 0).(color.RGBA)
	if got.R != 255 {
		t.Errorf("R channel = %d, want 255 (value >1 clamped)", got.R)
	}
	if got.G != 0 {
		t.Errorf("G channel = %d, want 0 (value <0 clamped)", got.G)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float32 }{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFindChannel(t *testing.T) {
	cl := NewChannelList()
	cl.Add(Channel{Name: "R", Type: PixelTypeHalf, XSampling: 1, YSampling: 1})
	cl.Add(Channel{Name: "G", Type: PixelTypeHalf, XSampling: 1, YSampling: 1})

	if got := findChannel(cl, "R", "r", "red"); got != "R" {
		t.Errorf("findChannel(R) = %q, want R", got)
	}
	if got := findChannel(cl, "B", "b", "blue"); got != "" {
		t.Errorf("findChannel(B) = %q, want empty", got)
	}
}

func TestNewRGBAInputFileNil(t *testing.T) {
	if _, err := NewRGBAInputFile(nil); err != ErrInvalidFile {
		t.Errorf("NewRGBAInputFile(nil) error = %v, want ErrInvalidFile", err)
	}
}

func TestDecodeFileNotFound(t *testing.T) {
	if _, err := DecodeFile("/nonexistent/path/file.exr"); err == nil {
		t.Error("DecodeFile on missing file should error")
	}
}

func TestOpenRGBAInputFileNotFound(t *testing.T) {
	if _, err := OpenRGBAInputFile("/nonexistent/path/file.exr"); err == nil {
		t.Error("OpenRGBAInputFile on missing file should error")
	}
}
