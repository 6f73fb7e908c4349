package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"leafguard/server/models"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidNRGBA(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNormalizeShape(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 640, 480))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 251)
	}

	paletted := image.NewPaletted(image.Rect(0, 0, 31, 57), color.Palette{
		color.NRGBA{R: 10, G: 200, B: 30, A: 255},
		color.NRGBA{R: 240, G: 12, B: 120, A: 255},
	})
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % 2)
	}

	tests := []struct {
		name string
		img  image.Image
	}{
		{"rgba with alpha", solidNRGBA(500, 300, color.NRGBA{R: 90, G: 160, B: 40, A: 128})},
		{"grayscale", gray},
		{"palette indexed", paletted},
		{"tiny", solidNRGBA(3, 3, color.NRGBA{R: 255, G: 255, B: 255, A: 255})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := Normalize(encodePNG(t, tt.img))
			require.NoError(t, err)

			values := tensor.Values()
			require.Len(t, values, Size*Size*Channels)
			for _, v := range values {
				require.GreaterOrEqual(t, v, 0.0)
				require.LessOrEqual(t, v, 1.0)
			}
		})
	}
}

func TestNormalizeSolidColor(t *testing.T) {
	raw := encodePNG(t, solidNRGBA(Size, Size, color.NRGBA{R: 50, G: 150, B: 50, A: 255}))

	tensor, err := Normalize(raw)
	require.NoError(t, err)

	require.InDelta(t, 50.0/255.0, tensor.At(0, 0, 0), 0.01)
	require.InDelta(t, 150.0/255.0, tensor.At(112, 112, 1), 0.01)
	require.InDelta(t, 50.0/255.0, tensor.At(223, 223, 2), 0.01)
}

func TestNormalizeDiscardsAlpha(t *testing.T) {
	// Straight RGB must survive untouched; premultiplied reads would scale
	// these channels by 64/255 toward black.
	raw := encodePNG(t, solidNRGBA(8, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 64}))

	tensor, err := Normalize(raw)
	require.NoError(t, err)

	require.InDelta(t, 200.0/255.0, tensor.At(112, 112, 0), 0.01)
	require.InDelta(t, 100.0/255.0, tensor.At(112, 112, 1), 0.01)
	require.InDelta(t, 50.0/255.0, tensor.At(112, 112, 2), 0.01)
}

func TestNormalizeBatched(t *testing.T) {
	raw := encodePNG(t, solidNRGBA(10, 10, color.NRGBA{R: 0, G: 255, B: 0, A: 255}))

	tensor, err := Normalize(raw)
	require.NoError(t, err)

	batched := tensor.Batched()
	require.Len(t, batched, Size*Size*Channels)
	require.InDelta(t, float32(tensor.At(0, 0, 1)), batched[1], 1e-6)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"))
	require.Error(t, err)
	require.True(t, models.IsDecodeError(err))

	_, err = Normalize(nil)
	require.Error(t, err)
	require.True(t, models.IsDecodeError(err))
}

func TestDecodePayload(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0xFF}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("bare base64", func(t *testing.T) {
		got, err := DecodePayload(encoded)
		require.NoError(t, err)
		require.Equal(t, raw, got)
	})

	t.Run("data url prefix stripped", func(t *testing.T) {
		got, err := DecodePayload("data:image/png;base64," + encoded)
		require.NoError(t, err)
		require.Equal(t, raw, got)
	})

	t.Run("data url without separator", func(t *testing.T) {
		_, err := DecodePayload("data:image/png;base64")
		require.Error(t, err)
		require.True(t, models.IsDecodeError(err))
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodePayload("!!!not-base64!!!")
		require.Error(t, err)
		require.True(t, models.IsDecodeError(err))
	})
}
