// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

//go:build !vips

package imaging

// Backend names the active resampling implementation.
const Backend = "go"

// Startup is a no-op without libvips.
func Startup(concurrency int) {}

// Shutdown is a no-op without libvips.
func Shutdown() {}

// Upscale enlarges data by factor and returns a PNG.
func Upscale(data []byte, factor int) (*Result, error) {
	return upscaleGo(data, factor)
}

// Thumbnail returns a preview no wider than width.
func Thumbnail(data []byte, width int) (*Result, error) {
	return thumbnailGo(data, width)
}
