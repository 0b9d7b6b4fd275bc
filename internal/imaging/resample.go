// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// sharpenKernel is the 3x3 convolution applied after pure-Go resampling.
var sharpenKernel = [3][3]int{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// resize scales img to w x h with Catmull-Rom interpolation.
func resize(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// sharpen convolves the colour channels with sharpenKernel. Alpha is kept
// and edge pixels are clamped to the border.
func sharpen(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*dst.Stride + x*4
			for c := 0; c < 3; c++ {
				sum := 0
				for ky := -1; ky <= 1; ky++ {
					sy := min(max(y+ky, 0), h-1)
					for kx := -1; kx <= 1; kx++ {
						k := sharpenKernel[ky+1][kx+1]
						if k == 0 {
							continue
						}
						sx := min(max(x+kx, 0), w-1)
						sum += k * int(src.Pix[sy*src.Stride+sx*4+c])
					}
				}
				dst.Pix[o+c] = uint8(min(max(sum, 0), 255))
			}
			dst.Pix[o+3] = src.Pix[y*src.Stride+x*4+3]
		}
	}
	return dst
}

// upscaleGo is the pure-Go 4x path: Catmull-Rom resample plus a 3x3
// sharpen.
func upscaleGo(data []byte, factor int) (*Result, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx()*factor, b.Dy()*factor
	if w*h > maxPixels {
		return nil, ErrTooLarge
	}
	return EncodePNG(sharpen(resize(img, w, h)))
}

// thumbnailGo scales data down to width, keeping the aspect ratio. Images
// already narrower than width are re-encoded at their own size.
func thumbnailGo(data []byte, width int) (*Result, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= width {
		return EncodePNG(img)
	}
	h := max(1, b.Dy()*width/b.Dx())
	return EncodePNG(resize(img, width, h))
}
