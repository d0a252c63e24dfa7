package ocr

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// targetWidth approximates an A4 page at 300 DPI, the sweet spot for
// tesseract-class recognizers.
const targetWidth = 2480

// Preprocess runs the standard cleanup ladder on a page image before
// recognition: grayscale, contrast stretch, sharpen, denoise, resize.
func Preprocess(src image.Image) *image.Gray {
	g := toGray(src)
	g = stretchContrast(g)
	g = sharpen(g)
	g = denoise(g)
	return resizeToTarget(g)
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	g := image.NewGray(b)
	xdraw.Draw(g, b, src, b.Min, xdraw.Src)
	return g
}

// stretchContrast maps the observed intensity range onto the full 0..255
// scale, which flattens the gray cast typical of low-quality scans.
func stretchContrast(g *image.Gray) *image.Gray {
	b := g.Bounds()
	minV, maxV := uint8(255), uint8(0)
	for i := range g.Pix {
		v := g.Pix[i]
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= minV {
		return g
	}
	out := image.NewGray(b)
	scale := 255.0 / float64(maxV-minV)
	for i := range g.Pix {
		out.Pix[i] = uint8(float64(g.Pix[i]-minV) * scale)
	}
	return out
}

// sharpen applies a 3x3 unsharp kernel.
func sharpen(g *image.Gray) *image.Gray {
	kernel := [9]int{0, -1, 0, -1, 5, -1, 0, -1, 0}
	return convolve3x3(g, kernel, 1)
}

// denoise is a mild 3x3 box blur; combined with the sharpen pass it knocks
// out single-pixel speckle without eroding glyph edges much.
func denoise(g *image.Gray) *image.Gray {
	kernel := [9]int{1, 1, 1, 1, 1, 1, 1, 1, 1}
	return convolve3x3(g, kernel, 9)
}

func convolve3x3(g *image.Gray, kernel [9]int, divisor int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			sum := 0
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sum += int(g.GrayAt(b.Min.X+x+dx, b.Min.Y+y+dy).Y) * kernel[k]
					k++
				}
			}
			sum /= divisor
			if sum < 0 {
				sum = 0
			}
			if sum > 255 {
				sum = 255
			}
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(sum)})
		}
	}
	return out
}

// resizeToTarget scales the page toward 300 DPI width. Images already at or
// above the target are left alone; extreme upscaling is capped at 3x.
func resizeToTarget(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w := b.Dx()
	if w >= targetWidth || w == 0 {
		return g
	}
	factor := float64(targetWidth) / float64(w)
	if factor > 3 {
		factor = 3
	}
	nw := int(float64(w) * factor)
	nh := int(float64(b.Dy()) * factor)
	out := image.NewGray(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), g, b, xdraw.Src, nil)
	return out
}
