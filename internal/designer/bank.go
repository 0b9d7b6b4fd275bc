// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package designer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultBankYAML []byte

// Category is one group of the slogan bank.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Slogans  []string `yaml:"slogans"`
}

// Bank is the ordered keyword classifier and slogan templates used by the
// fallback path.
type Bank struct {
	Default    string     `yaml:"default"`
	Categories []Category `yaml:"categories"`
}

// ParseBank decodes a YAML bank. Every category needs at least one slogan
// and the default category must exist.
func ParseBank(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse template bank: %w", err)
	}
	if len(b.Categories) == 0 {
		return nil, fmt.Errorf("parse template bank: no categories")
	}
	for i := range b.Categories {
		c := &b.Categories[i]
		if len(c.Slogans) == 0 {
			return nil, fmt.Errorf("parse template bank: category %q has no slogans", c.Name)
		}
		for j, kw := range c.Keywords {
			c.Keywords[j] = strings.ToLower(kw)
		}
	}
	if b.Default == "" {
		b.Default = b.Categories[len(b.Categories)-1].Name
	}
	if b.category(b.Default) == nil {
		return nil, fmt.Errorf("parse template bank: default category %q not defined", b.Default)
	}
	return &b, nil
}

var (
	defaultBankOnce sync.Once
	defaultBank     *Bank
)

// DefaultBank returns the embedded bank.
func DefaultBank() *Bank {
	defaultBankOnce.Do(func() {
		b, err := ParseBank(defaultBankYAML)
		if err != nil {
			panic(err)
		}
		defaultBank = b
	})
	return defaultBank
}

// Categorize returns the first category with a keyword contained in the
// lowercased topic, or the default category.
func (b *Bank) Categorize(topic string) string {
	lower := strings.ToLower(topic)
	for _, c := range b.Categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return c.Name
			}
		}
	}
	return b.Default
}

// Slogans returns the templates of a category, falling back to the default.
func (b *Bank) Slogans(category string) []string {
	if c := b.category(category); c != nil {
		return c.Slogans
	}
	return b.category(b.Default).Slogans
}

func (b *Bank) category(name string) *Category {
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i]
		}
	}
	return nil
}

// Categorize classifies a topic with the embedded bank.
func Categorize(topic string) string {
	return DefaultBank().Categorize(topic)
}
