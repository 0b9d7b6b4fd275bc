// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoImageProvider is returned when no image provider is configured.
var ErrNoImageProvider = errors.New("ai: no image provider configured")

// Image is a generated artwork.
type Image struct {
	Data        []byte
	ContentType string
	URL         string // hosted copy, when the provider returned one
	Provider    string
}

// ImageGenerator is implemented by providers that can synthesise images
// from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
	Name() string
}

// ImageGenerators returns the configured image providers in priority order.
func (r *Registry) ImageGenerators() []ImageGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ImageGenerator(nil), r.images...)
}

// SetImageGenerators replaces the image providers.
func (r *Registry) SetImageGenerators(gens ...ImageGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = gens
}

// SupportsImageGeneration reports whether any image provider is configured.
func (r *Registry) SupportsImageGeneration() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images) > 0
}

// GenerateImage tries each image provider in priority order and returns the
// first success. When every provider fails the errors are joined.
func (r *Registry) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	gens := r.ImageGenerators()
	if len(gens) == 0 {
		return nil, ErrNoImageProvider
	}

	var errs []error
	for _, g := range gens {
		img, err := g.GenerateImage(ctx, prompt)
		if err == nil {
			if img.Provider == "" {
				img.Provider = g.Name()
			}
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
	}
	return nil, errors.Join(errs...)
}
