// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Matter removes the background from an image, returning a PNG with alpha.
type Matter interface {
	Matte(ctx context.Context, img []byte) ([]byte, error)
}

// RemoveBG is a Matter backed by the remove.bg API.
type RemoveBG struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewRemoveBG returns a remove.bg client, or nil when apiKey is empty.
func NewRemoveBG(apiKey, baseURL string, cfg ProviderConfig) *RemoveBG {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = "https://api.remove.bg/v1.0"
	}
	return &RemoveBG{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: max(imageTimeout, cfg.Timeout)},
	}
}

// Matte uploads img and returns the cut-out PNG at full resolution.
func (r *RemoveBG) Matte(ctx context.Context, img []byte) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image_file", "design.png")
	if err != nil {
		return nil, fmt.Errorf("removebg form: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, fmt.Errorf("removebg form: %w", err)
	}
	_ = w.WriteField("size", "auto")
	_ = w.WriteField("format", "png")
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("removebg form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/removebg", &body)
	if err != nil {
		return nil, fmt.Errorf("removebg request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Api-Key", r.apiKey)
	req.Header.Set("Accept", "image/png")

	out, err := do(r.client, "removebg", req)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("removebg: empty response")
	}
	return out, nil
}
