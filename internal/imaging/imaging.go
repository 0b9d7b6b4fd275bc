// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares design artwork for print: local background
// removal with auto-crop, 4x upscaling, thumbnails and text-only print
// files. Upscaling and thumbnails use libvips when built with the vips tag
// and a pure-Go resampler otherwise.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

// UpscaleFactor is the linear scale applied to print artwork.
const UpscaleFactor = 4

// ThumbnailWidth is the width of the preview derived from every asset.
const ThumbnailWidth = 320

// maxPixels bounds decoded and upscaled images.
const maxPixels = 80_000_000

// ErrTooLarge is returned when an image would exceed maxPixels.
var ErrTooLarge = errors.New("imaging: image too large")

// Result is an encoded image with its dimensions.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Decode reads a PNG, JPEG, GIF or WebP image.
func Decode(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode config: %w", err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, "", ErrTooLarge
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode %s: %w", format, err)
	}
	return img, format, nil
}

// EncodePNG encodes img as a PNG result.
func EncodePNG(img image.Image) (*Result, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	b := img.Bounds()
	return &Result{Data: buf.Bytes(), ContentType: "image/png", Width: b.Dx(), Height: b.Dy()}, nil
}

// toNRGBA returns img as a zero-origin NRGBA, copying only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
