// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxBody = 16 << 20

// client is the throttled JSON transport shared by both backends.
type client struct {
	backend string
	baseURL string
	headers map[string]string
	http    *http.Client
	limiter *rate.Limiter
	// errMessage extracts a readable message from an error body.
	errMessage func(body []byte) string
}

func newClient(backend, baseURL string, headers map[string]string, timeout time.Duration, limiter *rate.Limiter) *client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// do sends a JSON request and decodes a 2xx response into out (when
// non-nil). Non-2xx responses become *APIError.
func (c *client) do(ctx context.Context, method, path string, in, out any) (http.Header, error) {
	endpoint := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		endpoint = c.baseURL + path
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s marshal: %w", c.backend, err)
		}
		body = bytes.NewReader(payload)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit: %w", c.backend, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.backend, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.backend, pathOnly(path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.backend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if c.errMessage != nil {
			if m := c.errMessage(raw); m != "" {
				msg = m
			}
		}
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return resp.Header, &APIError{Backend: c.backend, Endpoint: pathOnly(path), StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.Header, fmt.Errorf("%s unmarshal %s: %w", c.backend, pathOnly(path), err)
		}
	}
	return resp.Header, nil
}

// pathOnly drops the query string so errors and logs never carry
// request parameters.
func pathOnly(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}
