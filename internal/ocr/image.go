// Package ocr decodes uploaded images and extracts their text.
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUndecodable is returned when the upload is not an image we can read.
	ErrUndecodable = errors.New("ocr: image could not be decoded")

	// ErrTooManyPixels is returned when the declared dimensions exceed
	// maxPixels. It is checked before any pixel data is decoded.
	ErrTooManyPixels = errors.New("ocr: image dimensions too large")
)

const (
	// maxSide bounds the longest edge handed to the OCR engine.
	maxSide = 4000

	// maxPixels bounds the decoded size of an upload.
	maxPixels = 50_000_000
)

// IsImageContentType reports whether a declared content type is an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// Decode reads an image in any registered format and returns it with the
// format name. The header is read first so oversized images are refused
// without allocating their pixels.
func Decode(data []byte) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: empty bounds", ErrUndecodable)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty bounds", ErrUndecodable)
	}
	return img, format, nil
}

// Normalize flattens img onto an opaque white RGBA canvas, downscaling it so
// that neither side exceeds maxSide. Palette, grayscale and transparent
// images all come out as plain RGB.
func Normalize(img image.Image) *image.RGBA {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w > maxSide || h > maxSide {
		if w >= h {
			h = max(1, h*maxSide/w)
			w = maxSide
		} else {
			w = max(1, w*maxSide/h)
			h = maxSide
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}
	return dst
}

// EncodePNG encodes img losslessly for the OCR engine or a vision model.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Prepare decodes data and returns a normalized PNG encoding of it.
func Prepare(data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(Normalize(img))
}
