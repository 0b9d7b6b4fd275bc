// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"gunmerch/internal/models"
)

// MinRedditScore filters out low-signal posts.
const MinRedditScore = 10

// RedditConfig configures the Reddit adapter. With a client ID and secret
// the adapter uses app-only OAuth against oauth.reddit.com; otherwise it
// reads the public JSON listings.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Subreddits   []string
	Limit        int
	Timeout      time.Duration

	// Overrides for tests.
	BaseURL  string
	TokenURL string
}

// RedditSource reads the hot listing of each configured subreddit.
type RedditSource struct {
	cfg    RedditConfig
	client *http.Client
	suffix string
}

// NewRedditSource builds the adapter.
func NewRedditSource(cfg RedditConfig) *RedditSource {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "gunmerch/1.0 (trend scanner)"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://www.reddit.com/api/v1/access_token"
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, base: http.DefaultTransport},
	}

	src := &RedditSource{cfg: cfg, client: base}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		if src.cfg.BaseURL == "" {
			src.cfg.BaseURL = "https://oauth.reddit.com"
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		src.client = cc.Client(ctx)
		src.client.Timeout = cfg.Timeout
	} else {
		if src.cfg.BaseURL == "" {
			src.cfg.BaseURL = "https://www.reddit.com"
		}
		src.suffix = ".json"
	}
	return src
}

func (r *RedditSource) Name() string { return SourceReddit }

// Fetch reads every subreddit. Stickied posts and posts scoring below
// MinRedditScore are skipped; engagement is score plus comment count.
func (r *RedditSource) Fetch(ctx context.Context) ([]models.Trend, error) {
	var (
		out  []models.Trend
		errs []error
	)
	for _, sub := range r.cfg.Subreddits {
		items, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			errs = append(errs, fmt.Errorf("r/%s: %w", sub, err))
			continue
		}
		out = append(out, items...)
	}
	return out, errors.Join(errs...)
}

func (r *RedditSource) fetchSubreddit(ctx context.Context, sub string) ([]models.Trend, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot%s?limit=%d",
		r.cfg.BaseURL, url.PathEscape(sub), r.suffix, r.cfg.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reddit API error (status %d): %s", resp.StatusCode, body)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit decode: %w", err)
	}

	var out []models.Trend
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied || post.Score < MinRedditScore {
			continue
		}
		out = append(out, models.Trend{
			Topic:           cleanText(post.Title),
			Source:          SourceReddit,
			SourceURL:       "https://reddit.com" + post.Permalink,
			EngagementScore: post.Score + max(post.NumComments, 0),
		})
	}
	return out, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string `json:"title"`
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				Permalink   string `json:"permalink"`
				Stickied    bool   `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
