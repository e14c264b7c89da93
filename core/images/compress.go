// ABOUTME: Image compression and re-encoding for header and inline images
// ABOUTME: Downscales without upscaling; WebP for headers, JPEG for inline, PNG when alpha

package images

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // register webp decoding
)

const (
	// passthroughBytes: images at or under this size are never touched
	passthroughBytes = 5 * 1024

	// headerMaxDim bounds header images
	headerMaxDim = 1200

	// inlineMaxDim bounds inline images
	inlineMaxDim = 600

	// encodeQuality applies to both WebP and JPEG output
	encodeQuality = 65
)

// Compress re-encodes an image for its target use.
// Rules: ≤5 kB passes untouched; SVG is never rasterized; images are never
// upscaled; header output is WebP (PNG when the source has alpha); inline
// output is JPEG (PNG when alpha), with WebP replacing it when smaller.
// When no encoding beats the original and no resize happened, the original
// bytes are returned unchanged.
func Compress(img *Image, isHeader bool) (*Image, error) {
	if img == nil || len(img.Data) <= passthroughBytes {
		return img, nil
	}

	if img.ContentType == "image/svg+xml" {
		return img, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return img, nil // undecodable input is passed through
	}

	maxDim := inlineMaxDim
	if isHeader {
		maxDim = headerMaxDim
	}

	bounds := decoded.Bounds()
	resized := decoded
	didResize := false
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		// resize.Thumbnail only scales down, preserving aspect ratio
		resized = resize.Thumbnail(uint(maxDim), uint(maxDim), decoded, resize.Lanczos3)
		didResize = true
	}

	alpha := hasAlpha(resized)

	if isHeader {
		return encodeHeader(img, resized, alpha, didResize)
	}
	return encodeInline(img, resized, alpha, didResize)
}

// encodeHeader always prefers WebP; PNG only when the source has alpha
func encodeHeader(original *Image, m image.Image, alpha, didResize bool) (*Image, error) {
	if alpha {
		data, err := encodePNG(m)
		if err != nil {
			return original, nil
		}
		return pickSmaller(original, &Image{Data: data, ContentType: "image/png"}, didResize), nil
	}

	data, err := webp.EncodeRGB(m, encodeQuality)
	if err != nil {
		return original, nil
	}
	return pickSmaller(original, &Image{Data: data, ContentType: "image/webp"}, didResize), nil
}

// encodeInline targets JPEG, keeping PNG for alpha, trying WebP as a cheaper
// alternative when it wins on size
func encodeInline(original *Image, m image.Image, alpha, didResize bool) (*Image, error) {
	var candidate *Image

	if alpha {
		data, err := encodePNG(m)
		if err != nil {
			return original, nil
		}
		candidate = &Image{Data: data, ContentType: "image/png"}
	} else {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, m, &jpeg.Options{Quality: encodeQuality}); err != nil {
			return original, nil
		}
		candidate = &Image{Data: buf.Bytes(), ContentType: "image/jpeg"}
	}

	if !alpha {
		if webpData, err := webp.EncodeRGB(m, encodeQuality); err == nil && len(webpData) < len(candidate.Data) {
			candidate = &Image{Data: webpData, ContentType: "image/webp"}
		}
	}

	return pickSmaller(original, candidate, didResize), nil
}

// pickSmaller keeps the original bytes when the re-encode did not shrink
// them and no resize happened. A resized image always wins: returning the
// oversized original would violate the dimension bound.
func pickSmaller(original, encoded *Image, didResize bool) *Image {
	if !didResize && len(original.Data) <= len(encoded.Data) {
		return original
	}
	return encoded
}

func encodePNG(m image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hasAlpha samples the image for any non-opaque pixel
func hasAlpha(m image.Image) bool {
	bounds := m.Bounds()
	// Sampling every 8th pixel keeps this cheap on large images
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 8 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 8 {
			_, _, _, a := m.At(x, y).RGBA()
			if a < 0xffff {
				return true
			}
		}
	}
	return false
}
