// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package trends

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"gunmerch/internal/models"
)

const (
	// newsItemsPerFeed caps how many entries are read from each feed.
	newsItemsPerFeed = 10
	// newsScore is the fixed engagement score of a news headline.
	newsScore = 50
)

var stripPolicy = bluemonday.StrictPolicy()

// cleanText strips markup and entities from an upstream title.
func cleanText(s string) string {
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// NewsSource reads headlines from RSS and Atom feeds.
type NewsSource struct {
	feeds  []string
	parser *gofeed.Parser
}

// NewNewsSource creates a source over the given feed URLs.
func NewNewsSource(feeds []string, userAgent string, timeout time.Duration) *NewsSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &NewsSource{feeds: feeds, parser: p}
}

func (n *NewsSource) Name() string { return SourceNews }

// Fetch parses each feed and returns its first items. A broken feed does
// not prevent the others from being read.
func (n *NewsSource) Fetch(ctx context.Context) ([]models.Trend, error) {
	var (
		out  []models.Trend
		errs []error
	)
	for _, u := range n.feeds {
		feed, err := n.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", u, err))
			continue
		}
		for i, item := range feed.Items {
			if i >= newsItemsPerFeed {
				break
			}
			out = append(out, models.Trend{
				Topic:           cleanText(item.Title),
				Source:          SourceNews,
				SourceURL:       item.Link,
				EngagementScore: newsScore,
			})
		}
	}
	return out, errors.Join(errs...)
}
