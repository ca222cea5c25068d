package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch format {
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/png"))
	assert.True(t, IsImageContentType(" Image/JPEG"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType(""))
}

func TestDecode(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 4))

	_, format, err := Decode(encode(t, img, "png"))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, format, err = Decode(encode(t, img, "jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, _, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUndecodable)
}

// declaredPNG returns a 1x1 PNG whose header claims w x h pixels.
func declaredPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encode(t, image.NewGray(image.Rect(0, 0, 1, 1)), "png")
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeRejectsHugeDeclaredDimensions(t *testing.T) {
	data := declaredPNG(t, 20000, 20000)
	require.Less(t, len(data), 1024)

	_, _, err := Decode(data)
	assert.ErrorIs(t, err, ErrTooManyPixels)

	_, err = Prepare(data)
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestDecodeAcceptsPixelBudget(t *testing.T) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(declaredPNG(t, 5000, 5000)))
	require.NoError(t, err)
	assert.LessOrEqual(t, int64(cfg.Width)*int64(cfg.Height), int64(maxPixels))
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	out := Normalize(img)

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(1, 1))
}

func TestNormalizeDownscalesLargeImages(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, maxSide*2, maxSide/2))

	out := Normalize(img)

	assert.Equal(t, maxSide, out.Bounds().Dx())
	assert.Equal(t, maxSide/4, out.Bounds().Dy())
}

func TestPrepareProducesPNG(t *testing.T) {
	data := encode(t, image.NewGray(image.Rect(0, 0, 3, 3)), "jpeg")

	out, err := Prepare(data)
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestCleanText(t *testing.T) {
	in := "  Ration Card  \r\n\r\n\r\nName: Asha   \n\fFamily members: 4\n\n"

	assert.Equal(t, "Ration Card\n\nName: Asha\n\nFamily members: 4", CleanText(in))
	assert.Equal(t, "", CleanText(" \n\f \n"))
}

func fakeEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-tesseract")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestTesseractExtract(t *testing.T) {
	engine := fakeEngine(t, `cat >/dev/null; echo "$1 $2 $3 $4"; echo; echo "GOVERNMENT OF INDIA  "`)
	tess := NewTesseract(engine, "hin", time.Second, nil)
	require.True(t, tess.Available())

	text, err := tess.Extract(context.Background(), []byte("png"))

	require.NoError(t, err)
	assert.Equal(t, "stdin stdout -l hin\n\nGOVERNMENT OF INDIA", text)
}

func TestTesseractFailure(t *testing.T) {
	engine := fakeEngine(t, `echo "read error" >&2; exit 1`)

	_, err := NewTesseract(engine, "", time.Second, nil).Extract(context.Background(), nil)

	assert.Error(t, err)
}

func TestTesseractMissingBinary(t *testing.T) {
	tess := NewTesseract(filepath.Join(t.TempDir(), "missing"), "", 0, nil)

	assert.False(t, tess.Available())
	_, err := tess.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}
