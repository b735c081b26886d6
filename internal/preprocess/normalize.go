// Package preprocess turns uploaded bytes into the tensor the classifier consumes.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/bloodcell-api/internal/model"
)

// Normalizer converts an arbitrary image into a (1, size, size, 3) tensor with values in [0, 1].
// Images are stretched to size x size; the aspect ratio is not preserved.
type Normalizer struct {
	Size   uint
	Interp resize.InterpolationFunction
}

func NewNormalizer() Normalizer {
	return Normalizer{Size: model.ImageSize, Interp: resize.Bicubic}
}

func (n Normalizer) Normalize(img image.Image) (model.Tensor, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return model.Tensor{}, fmt.Errorf("%w: image has no pixels", model.ErrDecode)
	}

	resized := resize.Resize(n.Size, n.Size, ToRGB(img), n.Interp)

	size := int(n.Size)
	tensor := model.NewTensor(1, int64(size), int64(size), model.Channels)
	rb := resized.Bounds()
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b := rgb8(resized, rb.Min.X+x, rb.Min.Y+y)
			tensor.Data[i] = float32(r) / 255.0
			tensor.Data[i+1] = float32(g) / 255.0
			tensor.Data[i+2] = float32(b) / 255.0
			i += model.Channels
		}
	}
	return tensor, nil
}

// ToRGB returns an opaque 8-bit copy of img anchored at the origin.
// Alpha is dropped rather than composited, and gray or paletted sources are expanded to three channels.
func ToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return out
}

func rgb8(img image.Image, x, y int) (uint8, uint8, uint8) {
	if rgba, ok := img.(*image.RGBA); ok {
		o := rgba.PixOffset(x, y)
		return rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2]
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}
