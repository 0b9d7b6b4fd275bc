// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storefront talks to the print-on-demand stores designs are
// published to. Printful and Shopify implement the same Storefront
// interface: probe the store, find a product by external ID, upload the
// print file, clone a template product's variants, create the product and
// list fulfilled orders for sales reconciliation.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gunmerch/internal/models"
)

// Backend names.
const (
	BackendPrintful = "printful"
	BackendShopify  = "shopify"
)

// ErrProductCreationUnsupported is returned by CreateProduct on stores that
// are connected through an ecommerce platform and reject API products.
var ErrProductCreationUnsupported = errors.New("storefront: store does not accept product creation")

// ErrNoTemplate is returned when the template product cannot be found or
// has no variants.
var ErrNoTemplate = errors.New("storefront: template product not found")

// Storefront is the publishing and order boundary of one store.
type Storefront interface {
	Name() string
	TestConnection(ctx context.Context) (*StoreInfo, error)
	SupportsProductCreation(ctx context.Context) (bool, error)
	// FindProductByExternalID returns (nil, nil) when no product matches.
	FindProductByExternalID(ctx context.Context, externalID string) (*Product, error)
	UploadAsset(ctx context.Context, file FileUpload) (*UploadedFile, error)
	TemplateProduct(ctx context.Context) (*Template, error)
	CreateProduct(ctx context.Context, spec ProductSpec) (*Product, error)
	ListFulfilledOrders(ctx context.Context, since time.Time) ([]Order, error)
}

// StoreInfo is the result of a connection probe.
type StoreInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Product is a remote product reference.
type Product struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

// FileUpload is a print file made reachable at a public URL.
type FileUpload struct {
	Filename string
	URL      string
}

// UploadedFile is a file in the store's library.
type UploadedFile struct {
	ID  string
	URL string
}

// PrintFile places a file on a variant.
type PrintFile struct {
	Type string `json:"type"` // placement, e.g. "default" or "front"
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Variant is one size/colour combination of a product.
type Variant struct {
	ExternalID string
	CatalogID  int64    // Printful catalog variant
	Options    []string // Shopify option values, in Template.OptionNames order
	Price      string
	SKU        string
	Files      []PrintFile
	Extra      map[string]any // backend options copied verbatim
}

// Template is the pre-configured product every design is cloned from.
type Template struct {
	ID          string
	Name        string
	OptionNames []string
	Variants    []Variant
}

// ProductSpec describes a product to create.
type ProductSpec struct {
	ExternalID  string
	Title       string
	Description string // HTML
	Tags        []string
	ImageURL    string
	OptionNames []string
	Variants    []Variant
}

// Order is a fulfilled remote order.
type Order struct {
	ID        string
	CreatedAt time.Time
	Lines     []OrderLine
}

// OrderLine is one item of an order.
type OrderLine struct {
	ID         string
	ExternalID string // variant or product external ID, when the store knows it
	ProductID  string // remote product ID
	Quantity   int
	UnitPrice  float64
}

// APIError is a non-2xx response from a store.
type APIError struct {
	Backend    string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Backend, e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// CloneVariants copies the template variants for a design. Every clone gets
// the external ID "{design}-v{n}" (1-based, template order), the given price
// when non-empty, and the uploaded file in its front placement. Existing
// front or default placements are replaced; other placements are kept.
func CloneVariants(tpl *Template, designID int64, file UploadedFile, price string) []Variant {
	out := make([]Variant, len(tpl.Variants))
	for i, v := range tpl.Variants {
		c := v
		c.ExternalID = models.VariantExternalID(designID, i+1)
		c.SKU = c.ExternalID
		if price != "" {
			c.Price = price
		}
		c.Options = append([]string(nil), v.Options...)
		if v.Extra != nil {
			c.Extra = make(map[string]any, len(v.Extra))
			for k, val := range v.Extra {
				c.Extra[k] = val
			}
		}

		front := PrintFile{Type: "default", ID: file.ID, URL: file.URL}
		c.Files = nil
		placed := false
		for _, f := range v.Files {
			if f.Type == "default" || f.Type == "front" {
				if !placed {
					front.Type = f.Type
					c.Files = append(c.Files, front)
					placed = true
				}
				continue
			}
			c.Files = append(c.Files, f)
		}
		if !placed {
			c.Files = append([]PrintFile{front}, c.Files...)
		}
		out[i] = c
	}
	return out
}
