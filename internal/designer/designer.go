// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package designer turns trending topics into t-shirt design drafts. It asks
// an LLM for a title, slogan and concept and falls back to a curated slogan
// bank when no model is configured or the call fails.
package designer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"gunmerch/internal/models"
)

// Concept sources recorded in design metadata.
const (
	SourceLLM      = "llm"
	SourceTemplate = "template"
)

// SystemPrompt sets the model's persona for concept generation.
const SystemPrompt = "You are a creative t-shirt designer specializing in gun culture, 2A rights, " +
	"and firearm enthusiast apparel. Create funny, clever, and engaging t-shirt designs."

// Completer is the LLM text-completion boundary.
type Completer interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator creates design drafts from trends.
type Generator struct {
	llm  Completer
	bank *Bank
	pick func(n int) int
}

// Option configures a Generator.
type Option func(*Generator)

// WithBank replaces the embedded slogan bank.
func WithBank(b *Bank) Option {
	return func(g *Generator) { g.bank = b }
}

// WithPicker replaces the random slogan picker. pick(n) must return a value
// in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(g *Generator) { g.pick = pick }
}

// New creates a generator. llm may be nil, in which case every draft comes
// from the slogan bank.
func New(llm Completer, opts ...Option) *Generator {
	g := &Generator{llm: llm, bank: DefaultBank(), pick: rand.Intn}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromTrend builds a draft for a trend. It never fails: LLM errors and
// unparseable replies fall back to the slogan bank or to the topic itself.
func (g *Generator) FromTrend(ctx context.Context, trend models.Trend, margin float64) models.DesignDraft {
	topic := strings.TrimSpace(trend.Topic)
	category := g.bank.Categorize(topic)

	draft := models.DesignDraft{
		DesignType:      models.DesignTypeText,
		TrendTopic:      topic,
		TrendSourceURL:  trend.SourceURL,
		EstimatedMargin: margin,
		Meta: map[string]string{
			models.MetaTrendCategory: category,
		},
	}

	if g.llm != nil {
		reply, err := g.llm.Generate(ctx, SystemPrompt, BuildPrompt(topic))
		if err == nil {
			c := ParseConcept(reply, topic)
			draft.Title, draft.DesignText, draft.Concept = c.Title, c.Slogan, c.Concept
			draft.Meta[models.MetaConceptSource] = SourceLLM
			return draft
		}
		slog.Warn("concept generation failed, using template bank", "topic", topic, "error", err)
	}

	slogans := g.bank.Slogans(category)
	draft.Title = topic
	draft.DesignText = slogans[g.pick(len(slogans))]
	draft.Concept = fmt.Sprintf("AI-generated concept based on trending topic: %s", topic)
	draft.Meta[models.MetaConceptSource] = SourceTemplate
	return draft
}

// BuildPrompt returns the user prompt for a topic.
func BuildPrompt(topic string) string {
	return fmt.Sprintf(`Create a t-shirt design concept based on this trending topic: '%s'

Please provide:
1. A catchy title for the design (max 5 words)
2. The main text/slogan for the t-shirt (keep it short, punchy, max 10 words). The slogan must read as one continuous, natural sentence; do not split it with line breaks, ellipses used as pauses, or notes about graphics.
3. A brief concept description explaining the joke/reference

Format your response like this:
Title: [Your Title Here]
Slogan: [Your Slogan Here]
Concept: [Your Concept Description]`, topic)
}

// Concept is the parsed LLM reply.
type Concept struct {
	Title   string
	Slogan  string
	Concept string
}

// ParseConcept extracts the labelled fields from reply. Labels may carry
// markdown emphasis, bullets or numbering. The concept runs until the next
// label. Missing fields are filled from topic.
func ParseConcept(reply, topic string) Concept {
	var (
		c       Concept
		current *string
		concept []string
	)
	for _, line := range strings.Split(reply, "\n") {
		label, value, ok := splitLabel(line)
		if !ok {
			if current == &c.Concept {
				if s := strings.TrimSpace(line); s != "" {
					concept = append(concept, s)
				}
			}
			continue
		}
		switch label {
		case "title":
			c.Title, current = cleanField(value), &c.Title
		case "slogan":
			c.Slogan, current = cleanField(value), &c.Slogan
		case "concept":
			current = &c.Concept
			concept = concept[:0]
			if value = strings.TrimSpace(value); value != "" {
				concept = append(concept, value)
			}
		}
	}
	c.Concept = cleanField(strings.Join(concept, " "))

	if c.Title == "" {
		c.Title = topic
	}
	if c.Slogan == "" {
		c.Slogan = topic
	}
	if c.Concept == "" {
		c.Concept = fmt.Sprintf("Design inspired by trending topic: %s", topic)
	}
	return c
}

// splitLabel recognises "Title: x", "**Slogan:** x", "- Concept: x" and
// "2. Slogan: x".
func splitLabel(line string) (label, value string, ok bool) {
	s := strings.TrimLeft(strings.TrimSpace(line), "-*#>•0123456789. ")
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.Trim(s[:i], "* _"))
	switch label {
	case "title", "slogan", "concept":
		return label, strings.TrimLeft(s[i+1:], "*_ "), true
	}
	return "", "", false
}

// cleanField trims whitespace, emphasis markers and wrapping quotes.
func cleanField(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "*_ ")
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}
