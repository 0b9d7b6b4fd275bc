// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
)

// ErrNothingToCrop is returned when every pixel is transparent.
var ErrNothingToCrop = errors.New("imaging: no visible pixels to crop")

// CropPadding is the margin kept around the visible bounding box.
const CropPadding = 20

// Tolerances for the Euclidean RGB distance from the background colour.
// Dark backgrounds get the wider one to absorb shadow gradients.
const (
	darkTolerance  = 60
	lightTolerance = 35
	darkLuminance  = 64
)

// Background is the estimated background colour and its match tolerance.
type Background struct {
	Color     color.NRGBA
	Luminance float64
	Tolerance float64
}

// EstimateBackground averages the four corners and four edge midpoints.
func EstimateBackground(img image.Image) Background {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Min.X, b.Min.Y, b.Max.X-1, b.Max.Y-1
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	points := [8]image.Point{
		{minX, minY}, {maxX, minY}, {minX, maxY}, {maxX, maxY},
		{midX, minY}, {midX, maxY}, {minX, midY}, {maxX, midY},
	}

	var r, g, bl float64
	for _, p := range points {
		c := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
		r += float64(c.R)
		g += float64(c.G)
		bl += float64(c.B)
	}
	r, g, bl = r/8, g/8, bl/8

	bg := Background{
		Color:     color.NRGBA{R: uint8(r + 0.5), G: uint8(g + 0.5), B: uint8(bl + 0.5), A: 255},
		Luminance: 0.299*r + 0.587*g + 0.114*bl,
		Tolerance: lightTolerance,
	}
	if bg.Luminance < darkLuminance {
		bg.Tolerance = darkTolerance
	}
	return bg
}

// RemoveBackground makes every pixel within tolerance of the estimated
// background colour fully transparent, leaves the others untouched, then
// crops to the visible content plus CropPadding.
func RemoveBackground(img image.Image) (*image.NRGBA, error) {
	bg := EstimateBackground(img)
	out := cloneNRGBA(img)

	tol2 := bg.Tolerance * bg.Tolerance
	br, bgc, bb := float64(bg.Color.R), float64(bg.Color.G), float64(bg.Color.B)
	for y := 0; y < out.Rect.Dy(); y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+out.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			dr := float64(row[i]) - br
			dg := float64(row[i+1]) - bgc
			db := float64(row[i+2]) - bb
			if dr*dr+dg*dg+db*db <= tol2 {
				row[i], row[i+1], row[i+2], row[i+3] = 0, 0, 0, 0
			}
		}
	}

	return AutoCrop(out, CropPadding)
}

// AutoCrop trims img to the bounding box of non-transparent pixels, grown
// by padding on each side and clamped to the image.
func AutoCrop(img image.Image, padding int) (*image.NRGBA, error) {
	src := toNRGBA(img)
	box, ok := visibleBounds(src)
	if !ok {
		return nil, ErrNothingToCrop
	}

	box = image.Rect(box.Min.X-padding, box.Min.Y-padding, box.Max.X+padding, box.Max.Y+padding).
		Intersect(src.Rect)

	out := image.NewNRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(out, out.Rect, src, box.Min, draw.Src)
	return out, nil
}

// visibleBounds returns the smallest rectangle holding every pixel with
// non-zero alpha.
func visibleBounds(img *image.NRGBA) (image.Rectangle, bool) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[off+x*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func cloneNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// RemoveBackgroundBytes decodes data, removes its background and returns a
// transparent PNG regardless of the input format.
func RemoveBackgroundBytes(data []byte) (*Result, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out, err := RemoveBackground(img)
	if err != nil {
		return nil, err
	}
	return EncodePNG(out)
}
