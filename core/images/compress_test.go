package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// noisyImage produces an image that compresses poorly, so encoded output
// stays above the passthrough threshold.
func noisyImage(w, h int, withAlpha bool) image.Image {
	rng := rand.New(rand.NewSource(42))
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if withAlpha && x%3 == 0 {
				a = 128
			}
			m.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: a,
			})
		}
	}
	return m
}

func pngBytes(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestCompress_SmallImagePassesThrough(t *testing.T) {
	small := &Image{Data: make([]byte, 4096), ContentType: "image/png"}

	out, err := Compress(small, true)

	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(out.Data, small.Data) {
		t.Error("images under 5 kB must pass through untouched")
	}
}

func TestCompress_SVGNeverRasterized(t *testing.T) {
	svg := &Image{Data: bytes.Repeat([]byte("<svg>x</svg>"), 1024), ContentType: "image/svg+xml"}

	out, err := Compress(svg, true)

	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.ContentType != "image/svg+xml" {
		t.Errorf("ContentType = %q, want image/svg+xml", out.ContentType)
	}
}

func TestCompress_HeaderDownscalesTo1200(t *testing.T) {
	src := &Image{Data: pngBytes(t, noisyImage(2400, 1600, false)), ContentType: "image/png"}

	out, err := Compress(src, true)

	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.ContentType != "image/webp" {
		t.Errorf("header output ContentType = %q, want image/webp", out.ContentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width > 1200 || cfg.Height > 1200 {
		t.Errorf("header output %dx%d exceeds 1200x1200", cfg.Width, cfg.Height)
	}
}

func TestCompress_AlphaKeepsPNG(t *testing.T) {
	src := &Image{Data: pngBytes(t, noisyImage(1400, 900, true)), ContentType: "image/png"}

	out, err := Compress(src, true)

	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.ContentType != "image/png" {
		t.Errorf("alpha source ContentType = %q, want image/png", out.ContentType)
	}
}

func TestCompress_NeverUpscales(t *testing.T) {
	src := &Image{Data: pngBytes(t, noisyImage(300, 200, false)), ContentType: "image/png"}

	out, err := Compress(src, false)

	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width > 300 || cfg.Height > 200 {
		t.Errorf("output %dx%d larger than 300x200 source", cfg.Width, cfg.Height)
	}
}

func TestCompress_Idempotent(t *testing.T) {
	src := &Image{Data: pngBytes(t, noisyImage(2000, 1400, false)), ContentType: "image/png"}

	first, err := Compress(src, true)
	if err != nil {
		t.Fatalf("first Compress: %v", err)
	}

	second, err := Compress(first, true)
	if err != nil {
		t.Fatalf("second Compress: %v", err)
	}

	if len(second.Data) > len(first.Data) {
		t.Errorf("recompression grew output: %d -> %d bytes", len(first.Data), len(second.Data))
	}
	if len(second.Data) == len(first.Data) && !bytes.Equal(second.Data, first.Data) {
		t.Error("equal-size recompression must be byte-identical")
	}
}

func TestDataURI(t *testing.T) {
	img := &Image{Data: []byte{1, 2, 3}, ContentType: "image/png"}

	uri := img.DataURI()

	if uri != "data:image/png;base64,AQID" {
		t.Errorf("DataURI = %q", uri)
	}
}
