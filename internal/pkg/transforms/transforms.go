// Package transforms is the pixel-level transform library behind the
// augmentation engines. Every transform except Identity returns a new
// *image.NRGBA with the bounds of its input translated to the origin.
package transforms

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/randaug/internal/augment"
)

// SignFunc returns +1 or -1 for the direction of a signed transform.
type SignFunc func() float64

func randomSign() float64 {
	if rand.IntN(2) == 0 {
		return -1
	}
	return 1
}

// Positive always transforms in the positive direction.
func Positive() float64 { return 1 }

// SeededSign returns a direction chooser driven by its own PCG source. It is
// not safe for concurrent use.
func SeededSign(seed uint64) SignFunc {
	r := rand.New(rand.NewPCG(seed, ^seed))
	return func() float64 {
		if r.IntN(2) == 0 {
			return -1
		}
		return 1
	}
}

type Option func(*library)

// WithSign fixes the direction chooser, mostly for tests.
func WithSign(fn SignFunc) Option {
	return func(l *library) { l.sign = fn }
}

type library struct {
	sign SignFunc
}

// Library returns the full transform set with random directions.
func Library() augment.Library[image.Image] {
	return NewLibrary()
}

func NewLibrary(opts ...Option) augment.Library[image.Image] {
	l := &library{sign: randomSign}
	for _, opt := range opts {
		opt(l)
	}
	return augment.Library[image.Image]{
		augment.Identity:     identity,
		augment.AutoContrast: autoContrast,
		augment.Equalize:     equalize,
		augment.Posterize:    posterize,
		augment.Solarize:     solarize,
		augment.Color:        l.color,
		augment.Contrast:     l.contrast,
		augment.Brightness:   l.brightness,
		augment.Sharpness:    l.sharpness,
		augment.Rotate:       l.rotate,
		augment.TranslateX:   l.translateX,
		augment.TranslateY:   l.translateY,
		augment.ShearX:       l.shearX,
		augment.ShearY:       l.shearY,
	}
}

func identity(img image.Image, _ float64, _ augment.FillColor) image.Image {
	return img
}

func (l *library) color(img image.Image, v float64, _ augment.FillColor) image.Image {
	return imaging.AdjustSaturation(img, l.sign()*v*100)
}

func (l *library) contrast(img image.Image, v float64, _ augment.FillColor) image.Image {
	return imaging.AdjustContrast(img, l.sign()*v*100)
}

func (l *library) brightness(img image.Image, v float64, _ augment.FillColor) image.Image {
	return imaging.AdjustBrightness(img, l.sign()*v*100)
}

// sharpness sharpens in the positive direction and blurs in the negative
// one, with v as the gaussian sigma.
func (l *library) sharpness(img image.Image, v float64, _ augment.FillColor) image.Image {
	if v <= 0 {
		return imaging.Clone(img)
	}
	if l.sign() > 0 {
		return imaging.Sharpen(img, v)
	}
	return imaging.Blur(img, v)
}

// rotate turns the image by v degrees counter-clockwise and crops the
// expanded canvas back to the original size.
func (l *library) rotate(img image.Image, v float64, fill augment.FillColor) image.Image {
	b := img.Bounds()
	rotated := imaging.Rotate(img, l.sign()*v, fill.Color())
	return imaging.CropCenter(rotated, b.Dx(), b.Dy())
}

func (l *library) translateX(img image.Image, v float64, fill augment.FillColor) image.Image {
	dx := math.Round(l.sign() * v * float64(img.Bounds().Dx()))
	return affine(img, 1, 0, -dx, 0, 1, 0, fill)
}

func (l *library) translateY(img image.Image, v float64, fill augment.FillColor) image.Image {
	dy := math.Round(l.sign() * v * float64(img.Bounds().Dy()))
	return affine(img, 1, 0, 0, 0, 1, -dy, fill)
}

func (l *library) shearX(img image.Image, v float64, fill augment.FillColor) image.Image {
	return affine(img, 1, -l.sign()*v, 0, 0, 1, 0, fill)
}

func (l *library) shearY(img image.Image, v float64, fill augment.FillColor) image.Image {
	return affine(img, 1, 0, 0, -l.sign()*v, 1, 0, fill)
}
