package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/bloodcell-api/internal/model"
)

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestNormalize_ShapeAndRange(t *testing.T) {
	n := NewNormalizer()

	gradient := image.NewRGBA(image.Rect(0, 0, 97, 31))
	for y := 0; y < 31; y++ {
		for x := 0; x < 97; x++ {
			gradient.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 8), B: uint8((x + y) % 256), A: 0xff})
		}
	}
	checker := uniform(64, 64, color.Black)
	draw.Draw(checker, image.Rect(32, 0, 64, 64), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	tests := []struct {
		description string
		img         image.Image
	}{
		{"Should stretch a single pixel", uniform(1, 1, color.RGBA{R: 200, G: 10, B: 90, A: 255})},
		{"Should keep an exact size", uniform(224, 224, color.White)},
		{"Should shrink a large landscape image", uniform(640, 480, color.Gray{Y: 77})},
		{"Should stretch a narrow gradient", gradient},
		{"Should clamp sharp edges", checker},
		{"Should accept images not anchored at the origin", image.NewGray(image.Rect(10, 10, 40, 90))},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			tensor, err := n.Normalize(tt.img)
			req.NoError(err)
			req.NoError(tensor.Validate(model.InputShape))
			for i, v := range tensor.Data {
				if v < 0 || v > 1 {
					req.Failf("value out of range", "value %v at %d", v, i)
				}
			}
		})
	}
}

func TestNormalize_ConstantImages(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		description string
		img         image.Image
		want        [3]float32
	}{
		{"Should produce zeros for black", uniform(50, 50, color.Black), [3]float32{0, 0, 0}},
		{"Should produce ones for white", uniform(50, 50, color.White), [3]float32{1, 1, 1}},
		{"Should divide bytes by 255", uniform(300, 120, color.RGBA{R: 51, G: 102, B: 204, A: 255}),
			[3]float32{51.0 / 255.0, 102.0 / 255.0, 204.0 / 255.0}},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			tensor, err := n.Normalize(tt.img)
			req.NoError(err)
			for i, v := range tensor.Data {
				if math.Abs(float64(v-tt.want[i%model.Channels])) > 1e-6 {
					req.Failf("unexpected value", "value %v at %d, want %v", v, i, tt.want[i%model.Channels])
				}
			}
		})
	}
}

func TestNormalize_RejectsEmptyImage(t *testing.T) {
	_, err := NewNormalizer().Normalize(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, model.ErrDecode)
}

func TestToRGB(t *testing.T) {
	req := require.New(t)

	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 0})
	translucent.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	rgb := ToRGB(translucent)
	req.Equal(color.RGBA{R: 255, G: 0, B: 0, A: 255}, rgb.RGBAAt(0, 0))
	req.Equal(color.RGBA{R: 10, G: 20, B: 30, A: 255}, rgb.RGBAAt(1, 0))

	gray := image.NewGray(image.Rect(5, 5, 7, 6))
	gray.SetGray(5, 5, color.Gray{Y: 128})
	rgb = ToRGB(gray)
	req.Equal(image.Rect(0, 0, 2, 1), rgb.Bounds())
	req.Equal(color.RGBA{R: 128, G: 128, B: 128, A: 255}, rgb.RGBAAt(0, 0))
}

func TestNormalize_GrayscaleBecomesThreeChannels(t *testing.T) {
	req := require.New(t)
	gray := image.NewGray(image.Rect(0, 0, 20, 20))
	draw.Draw(gray, gray.Bounds(), &image.Uniform{C: color.Gray{Y: 128}}, image.Point{}, draw.Src)

	tensor, err := NewNormalizer().Normalize(gray)
	req.NoError(err)
	for i, v := range tensor.Data {
		if math.Abs(float64(v)-128.0/255.0) > 1e-6 {
			req.Failf("unexpected value", "value %v at %d", v, i)
		}
	}
}
