// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// solid returns a w x h image filled with bg and an optional centred square
// of side size filled with fg.
func solid(w, h int, bg, fg color.Color, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, bg)
		}
	}
	x0, y0 := (w-size)/2, (h-size)/2
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.Set(x, y, fg)
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{10, 10, 10, 255}
	red   = color.NRGBA{200, 20, 20, 255}
)

func TestEstimateBackground(t *testing.T) {
	light := EstimateBackground(solid(50, 50, white, red, 10))
	if light.Color != white || light.Tolerance != lightTolerance {
		t.Errorf("light background = %+v", light)
	}

	dark := EstimateBackground(solid(50, 50, black, red, 10))
	if dark.Tolerance != darkTolerance {
		t.Errorf("dark background tolerance = %v, want %v", dark.Tolerance, darkTolerance)
	}
	if dark.Luminance >= darkLuminance {
		t.Errorf("dark luminance = %v", dark.Luminance)
	}
}

func TestRemoveBackground_RoundTrip(t *testing.T) {
	src := solid(200, 200, white, red, 60) // square spans 70..129

	out, err := RemoveBackground(src)
	if err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}

	wantSide := 60 + 2*CropPadding
	if out.Rect.Dx() != wantSide || out.Rect.Dy() != wantSide {
		t.Fatalf("cropped size = %v, want %dx%d", out.Rect.Size(), wantSide, wantSide)
	}

	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			c := out.NRGBAAt(x, y)
			inShape := x >= CropPadding && x < CropPadding+60 && y >= CropPadding && y < CropPadding+60
			if inShape && c != red {
				t.Fatalf("shape pixel (%d,%d) = %v, want %v", x, y, c, red)
			}
			if !inShape && c.A != 0 {
				t.Fatalf("border pixel (%d,%d) alpha = %d, want 0", x, y, c.A)
			}
		}
	}
}

func TestRemoveBackground_DarkToleratesShadow(t *testing.T) {
	src := solid(100, 100, black, red, 20)
	// A shadow 50 units away from the background: inside the dark tolerance.
	src.Set(5, 50, color.NRGBA{40, 40, 40, 255})

	out, err := RemoveBackground(src)
	if err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}
	if out.Rect.Dx() != 20+2*CropPadding {
		t.Errorf("shadow pixel should have been removed, width = %d", out.Rect.Dx())
	}
}

func TestRemoveBackground_NothingToCrop(t *testing.T) {
	_, err := RemoveBackground(solid(40, 40, white, white, 0))
	if !errors.Is(err, ErrNothingToCrop) {
		t.Errorf("err = %v, want ErrNothingToCrop", err)
	}
}

func TestAutoCrop_ClampsPadding(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	img.Set(2, 2, red)

	out, err := AutoCrop(img, CropPadding)
	if err != nil {
		t.Fatalf("AutoCrop: %v", err)
	}
	if out.Rect.Dx() != 23 || out.Rect.Dy() != 23 {
		t.Errorf("size = %v, want 23x23", out.Rect.Size())
	}
}

func TestRemoveBackgroundBytes_AlwaysPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(120, 120, white, red, 40), &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}

	res, err := RemoveBackgroundBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("RemoveBackgroundBytes: %v", err)
	}
	if res.ContentType != "image/png" {
		t.Errorf("content type = %q", res.ContentType)
	}
	if _, format, err := image.Decode(bytes.NewReader(res.Data)); err != nil || format != "png" {
		t.Errorf("output format = %q, err = %v", format, err)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestUpscaleGo(t *testing.T) {
	res, err := upscaleGo(encode(t, solid(10, 8, white, red, 4)), UpscaleFactor)
	if err != nil {
		t.Fatalf("upscaleGo: %v", err)
	}
	if res.Width != 40 || res.Height != 32 {
		t.Errorf("size = %dx%d, want 40x32", res.Width, res.Height)
	}
	img, _, err := Decode(res.Data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("decoded width = %d", img.Bounds().Dx())
	}
}

func TestSharpen_UniformUnchanged(t *testing.T) {
	src := solid(5, 5, color.NRGBA{100, 150, 200, 128}, nil, 0)
	out := sharpen(src)
	for i := range out.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel byte %d changed: %d -> %d", i, src.Pix[i], out.Pix[i])
		}
	}
}

func TestSharpen_IncreasesContrast(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 100, 100, 100, 255
	}
	src.SetNRGBA(1, 1, color.NRGBA{150, 150, 150, 255})

	out := sharpen(src)
	if c := out.NRGBAAt(1, 1); c.R != 255 {
		t.Errorf("centre = %d, want clamped 255 (5*150-4*100)", c.R)
	}
	if c := out.NRGBAAt(1, 0); c.R != 50 {
		t.Errorf("neighbour = %d, want 50", c.R)
	}
}

func TestThumbnailGo(t *testing.T) {
	res, err := thumbnailGo(encode(t, solid(640, 320, white, red, 100)), ThumbnailWidth)
	if err != nil {
		t.Fatalf("thumbnailGo: %v", err)
	}
	if res.Width != 320 || res.Height != 160 {
		t.Errorf("size = %dx%d, want 320x160", res.Width, res.Height)
	}

	small, err := thumbnailGo(encode(t, solid(100, 50, white, red, 10)), ThumbnailWidth)
	if err != nil {
		t.Fatalf("thumbnailGo small: %v", err)
	}
	if small.Width != 100 {
		t.Errorf("small images must not be enlarged, width = %d", small.Width)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00ff7f", color.NRGBA{0, 255, 127, 255}, false},
		{"#abc", color.NRGBA{0xaa, 0xbb, 0xcc, 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestRenderText(t *testing.T) {
	res, err := RenderText(TextSpec{
		Text:           "Molon Labe",
		Highlight:      "labe",
		HighlightColor: "#FF0000",
		Color:          "#0000FF",
		Width:          600,
		Height:         720,
	})
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if res.Width != 600 || res.Height != 720 || res.ContentType != "image/png" {
		t.Errorf("result = %dx%d %s", res.Width, res.Height, res.ContentType)
	}

	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	var reds, blues, clear int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			switch {
			case c.A == 0:
				clear++
			case c.A == 255 && c.R == 255 && c.B == 0:
				reds++
			case c.A == 255 && c.B == 255 && c.R == 0:
				blues++
			}
		}
	}
	if reds == 0 || blues == 0 {
		t.Errorf("expected both colours, got %d red and %d blue pixels", reds, blues)
	}
	if clear == 0 {
		t.Error("background should be transparent")
	}
}

func TestRenderText_Errors(t *testing.T) {
	if _, err := RenderText(TextSpec{Text: "   "}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
	if _, err := RenderText(TextSpec{Text: "x", Color: "nope", Width: 10, Height: 10}); err == nil {
		t.Error("expected colour error")
	}
}
