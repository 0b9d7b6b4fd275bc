// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

//go:build vips

package imaging

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"
)

// Backend names the active resampling implementation.
const Backend = "vips"

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	cfg := &vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	}
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(cfg)
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Upscale enlarges data by factor with Lanczos3 followed by a light
// unsharp mask, and returns a PNG with alpha preserved.
func Upscale(data []byte, factor int) (*Result, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("imaging: load: %w", err)
	}
	defer img.Close()

	if img.Width()*factor*img.Height()*factor > maxPixels {
		return nil, ErrTooLarge
	}
	if err := img.Resize(float64(factor), vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("imaging: resize: %w", err)
	}
	if err := img.Sharpen(0.5, 1.0, 2.0); err != nil {
		return nil, fmt.Errorf("imaging: sharpen: %w", err)
	}

	params := vips.NewPngExportParams()
	params.StripMetadata = true
	buf, meta, err := img.ExportPng(params)
	if err != nil {
		return nil, fmt.Errorf("imaging: export png: %w", err)
	}
	return &Result{Data: buf, ContentType: "image/png", Width: meta.Width, Height: meta.Height}, nil
}

// Thumbnail returns a WebP preview no wider than width. Images already
// narrower keep their size.
func Thumbnail(data []byte, width int) (*Result, error) {
	probe, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("imaging: probe failed: %w", err)
	}
	origWidth := probe.Width()
	probe.Close()

	if origWidth < width {
		width = origWidth
	}

	img, err := vips.NewThumbnailFromBuffer(data, width, 0, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("imaging: thumbnail (%dpx): %w", width, err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("imaging: autorotate: %w", err)
	}

	params := vips.NewWebpExportParams()
	params.Quality = 80
	params.StripMetadata = true

	buf, meta, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("imaging: export webp: %w", err)
	}
	return &Result{Data: buf, ContentType: "image/webp", Width: meta.Width, Height: meta.Height}, nil
}
