package transforms

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/randaug/internal/augment"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// affine maps src to dst through the matrix [a b c; d e f] and paints the
// uncovered area with fill.
func affine(img image.Image, a, b, c, d, e, f float64, fill augment.FillColor) image.Image {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := imaging.New(w, h, fill.Color())
	xdraw.BiLinear.Transform(dst, f64.Aff3{a, b, c, d, e, f}, src, src.Bounds(), xdraw.Src, nil)
	return dst
}

type channelLUT [3][256]uint8

func (l *channelLUT) apply(img image.Image) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: l[0][c.R], G: l[1][c.G], B: l[2][c.B], A: c.A}
	})
}

func histograms(img image.Image) [3][256]int {
	var hist [3][256]int
	src := imaging.Clone(img)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		hist[0][src.Pix[i]]++
		hist[1][src.Pix[i+1]]++
		hist[2][src.Pix[i+2]]++
	}
	return hist
}

// autoContrast stretches each channel so its darkest value maps to 0 and its
// brightest to 255.
func autoContrast(img image.Image, _ float64, _ augment.FillColor) image.Image {
	hist := histograms(img)
	var lut channelLUT
	for ch := range hist {
		lo, hi := 0, 255
		for lo < 255 && hist[ch][lo] == 0 {
			lo++
		}
		for hi > 0 && hist[ch][hi] == 0 {
			hi--
		}
		for i := range 256 {
			switch {
			case hi <= lo:
				lut[ch][i] = uint8(i)
			case i <= lo:
				lut[ch][i] = 0
			case i >= hi:
				lut[ch][i] = 255
			default:
				lut[ch][i] = uint8((i - lo) * 255 / (hi - lo))
			}
		}
	}
	return lut.apply(img)
}

// equalize flattens each channel's histogram.
func equalize(img image.Image, _ float64, _ augment.FillColor) image.Image {
	hist := histograms(img)
	var lut channelLUT
	for ch := range hist {
		total, last := 0, 0
		for _, n := range hist[ch] {
			total += n
			if n > 0 {
				last = n
			}
		}
		step := (total - last) / 255
		for i := range 256 {
			lut[ch][i] = uint8(i)
		}
		if step == 0 {
			continue
		}
		acc := step / 2
		for i := range 256 {
			v := acc / step
			if v > 255 {
				v = 255
			}
			lut[ch][i] = uint8(v)
			acc += hist[ch][i]
		}
	}
	return lut.apply(img)
}

// posterize keeps the top 8-int(v) bits of each channel.
func posterize(img image.Image, v float64, _ augment.FillColor) image.Image {
	bits := 8 - int(v)
	bits = max(1, min(bits, 8))
	mask := uint8(0xff) << (8 - bits)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: c.R & mask, G: c.G & mask, B: c.B & mask, A: c.A}
	})
}

// solarize inverts every channel at or above 256-v.
func solarize(img image.Image, v float64, _ augment.FillColor) image.Image {
	threshold := 256 - v
	invert := func(x uint8) uint8 {
		if float64(x) >= threshold {
			return 255 - x
		}
		return x
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: invert(c.R), G: invert(c.G), B: invert(c.B), A: c.A}
	})
}
