package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"

	"leafguard/server/models"
)

const (
	// Size is the spatial edge length every tensor is resized to. It matches
	// the classifier's training-time preprocessing and must not change.
	Size = 224

	// Channels is always 3 (RGB); alpha is discarded, grayscale is expanded.
	Channels = 3
)

// Tensor is a normalized image: Size x Size x Channels values in [0,1],
// stored row-major HWC. A tensor belongs to the request that created it and
// is never shared across requests.
type Tensor struct {
	data []float64
}

// At returns the value at row y, column x, channel c.
func (t *Tensor) At(y, x, c int) float64 {
	return t.data[(y*Size+x)*Channels+c]
}

// Values exposes the flat backing slice for whole-tensor statistics.
func (t *Tensor) Values() []float64 { return t.data }

// Batched flattens the tensor into a float32 slice laid out as
// [1, Size, Size, Channels] for the ONNX session. Only the real-model path
// uses this; the heuristic path reads the unbatched tensor directly.
func (t *Tensor) Batched() []float32 {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = float32(v)
	}
	return out
}

// DecodePayload turns the client-supplied image string into raw bytes. A
// data URL prefix ("data:image/...;base64,") is stripped before base64
// decoding; a bare base64 string is accepted as-is.
func DecodePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:image") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, &models.DecodeError{Reason: "data URL has no payload separator"}
		}
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &models.DecodeError{Reason: "invalid base64 encoding", Err: err}
	}
	return raw, nil
}

// Normalize decodes raw image bytes and coerces them into a Tensor: decode,
// force RGB, resize to Size x Size (aspect ratio intentionally not
// preserved), scale intensities to [0,1]. Any source mode is accepted as
// long as the bytes decode; undecodable bytes yield a DecodeError.
func Normalize(raw []byte) (*Tensor, error) {
	if len(raw) == 0 {
		return nil, &models.DecodeError{Reason: "empty image payload"}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &models.DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}

	// Stretch to the target square. Training used a plain resize, so no
	// cropping or letterboxing here.
	resized := resize.Resize(Size, Size, flattenRGB(img), resize.Lanczos3)

	data := make([]float64, Size*Size*Channels)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			i := (y*Size + x) * Channels
			data[i] = float64(r>>8) / 255.0
			data[i+1] = float64(g>>8) / 255.0
			data[i+2] = float64(b>>8) / 255.0
		}
	}

	return &Tensor{data: data}, nil
}

// flattenRGB copies the image into an opaque NRGBA buffer, reading straight
// (non-premultiplied) channels. Alpha is dropped, not composited: a
// semi-transparent pixel keeps its RGB values instead of fading toward
// black through RGBA()'s premultiplication.
func flattenRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			c.A = 0xff
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
