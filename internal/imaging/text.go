// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// Print file dimensions for text-only designs (15x18 in at 300 dpi).
const (
	PrintWidth  = 4500
	PrintHeight = 5400
)

// Default slogan colours.
const (
	DefaultTextColor      = "#FFFFFF"
	DefaultHighlightColor = "#C8102E"
)

const (
	maxFontSize = 480.0
	minFontSize = 96.0
	lineSpacing = 1.25
	marginRatio = 0.08
)

// ErrEmptyText is returned when there is nothing to render.
var ErrEmptyText = errors.New("imaging: empty text")

// TextSpec describes a text-only print file.
type TextSpec struct {
	Text           string
	Highlight      string // word drawn in HighlightColor; matched case-insensitively
	Color          string // hex, default DefaultTextColor
	HighlightColor string // hex, default DefaultHighlightColor
	Width          int    // default PrintWidth
	Height         int    // default PrintHeight
}

var (
	fontOnce sync.Once
	fontTT   *truetype.Font
	fontErr  error
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTT, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTT, fontErr
}

// RenderText draws the slogan centred on a transparent canvas, word-wrapped
// at the largest font size that fits, and returns a PNG.
func RenderText(spec TextSpec) (*Result, error) {
	text := strings.Join(strings.Fields(spec.Text), " ")
	if text == "" {
		return nil, ErrEmptyText
	}
	if spec.Width <= 0 {
		spec.Width = PrintWidth
	}
	if spec.Height <= 0 {
		spec.Height = PrintHeight
	}
	fg, err := ParseHexColor(orDefault(spec.Color, DefaultTextColor))
	if err != nil {
		return nil, err
	}
	hl, err := ParseHexColor(orDefault(spec.HighlightColor, DefaultHighlightColor))
	if err != nil {
		return nil, err
	}
	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("imaging: load font: %w", err)
	}

	dc := gg.NewContext(spec.Width, spec.Height)
	maxW := float64(spec.Width) * (1 - 2*marginRatio)
	maxH := float64(spec.Height) * (1 - 2*marginRatio)

	var lines []string
	size := maxFontSize
	for {
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
		lines = dc.WordWrap(text, maxW)
		if fits(dc, lines, maxW, maxH) || size <= minFontSize {
			break
		}
		size *= 0.9
	}

	lineH := dc.FontHeight() * lineSpacing
	y := (float64(spec.Height)-lineH*float64(len(lines)))/2 + dc.FontHeight()
	highlight := normalizeWord(spec.Highlight)
	space, _ := dc.MeasureString(" ")

	for _, line := range lines {
		words := strings.Fields(line)
		lw, _ := dc.MeasureString(line)
		x := (float64(spec.Width) - lw) / 2
		for _, w := range words {
			if highlight != "" && normalizeWord(w) == highlight {
				dc.SetColor(hl)
			} else {
				dc.SetColor(fg)
			}
			dc.DrawString(w, x, y)
			ww, _ := dc.MeasureString(w)
			x += ww + space
		}
		y += lineH
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("imaging: encode text png: %w", err)
	}
	return &Result{Data: buf.Bytes(), ContentType: "image/png", Width: spec.Width, Height: spec.Height}, nil
}

func fits(dc *gg.Context, lines []string, maxW, maxH float64) bool {
	if float64(len(lines))*dc.FontHeight()*lineSpacing > maxH {
		return false
	}
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > maxW {
			return false
		}
	}
	return true
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.Trim(s, ".,!?;:\"'()[]"))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// ParseHexColor parses #RGB or #RRGGBB (the leading # is optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("imaging: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("imaging: invalid colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
