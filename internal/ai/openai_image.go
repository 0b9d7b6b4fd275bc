// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// openAIImages implements ImageGenerator using the OpenAI images API
// (POST /v1/images/generations).
type openAIImages struct {
	config ProviderConfig
	client *http.Client
}

func newOpenAIImages(cfg ProviderConfig) *openAIImages {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &openAIImages{
		config: cfg,
		client: &http.Client{Timeout: max(imageTimeout, cfg.Timeout)},
	}
}

func (p *openAIImages) Name() string { return "openai" }

// GenerateImage requests a single square image. DALL-E models return a
// short-lived hosted URL which is downloaded immediately; gpt-image models
// always return base64.
func (p *openAIImages) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	body := openAIImageRequest{
		Model:  p.config.ModelImage,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	}
	if strings.HasPrefix(p.config.ModelImage, "dall-e") {
		body.ResponseFormat = "url"
	}

	var result openAIImageResponse
	headers := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	if err := postJSON(ctx, p.client, "openai", p.config.BaseURL+"/images/generations", headers, body, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("openai: no image returned")
	}

	item := result.Data[0]
	switch {
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai image decode base64: %w", err)
		}
		return &Image{Data: data, ContentType: "image/png", Provider: "openai"}, nil
	case item.URL != "":
		data, contentType, err := p.download(ctx, item.URL)
		if err != nil {
			return nil, err
		}
		return &Image{Data: data, ContentType: contentType, URL: item.URL, Provider: "openai"}, nil
	}
	return nil, fmt.Errorf("openai: image response has neither url nor data")
}

func (p *openAIImages) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("openai image download: %w", err)
	}
	data, err := do(p.client, "openai", req)
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}
