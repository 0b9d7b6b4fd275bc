// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HandlePrefix prefixes the handle of every product created for a design.
const HandlePrefix = "gunmerch-"

// ShopifyConfig configures the Shopify Admin REST client.
type ShopifyConfig struct {
	StoreURL       string // mystore.myshopify.com, with or without scheme
	AccessToken    string
	APIVersion     string
	TemplateHandle string
	Vendor         string
	ProductType    string
	Timeout        time.Duration
	Limiter        *rate.Limiter // default 2 req/s, burst 10
}

// Shopify is a Storefront backed by the Shopify Admin REST API.
type Shopify struct {
	c              *client
	templateHandle string
	vendor         string
	productType    string
}

// NewShopify creates a Shopify client.
func NewShopify(cfg ShopifyConfig) *Shopify {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01"
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Limit(2), 10)
	}
	if cfg.Vendor == "" {
		cfg.Vendor = "GunMerch"
	}
	if cfg.ProductType == "" {
		cfg.ProductType = "T-Shirt"
	}
	base := strings.TrimRight(cfg.StoreURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base += "/admin/api/" + cfg.APIVersion

	c := newClient(BackendShopify, base, map[string]string{"X-Shopify-Access-Token": cfg.AccessToken}, cfg.Timeout, cfg.Limiter)
	c.errMessage = shopifyErrorMessage
	return &Shopify{c: c, templateHandle: cfg.TemplateHandle, vendor: cfg.Vendor, productType: cfg.ProductType}
}

func (s *Shopify) Name() string { return BackendShopify }

func shopifyErrorMessage(body []byte) string {
	var e struct {
		Errors any `json:"errors"`
	}
	if json.Unmarshal(body, &e) != nil || e.Errors == nil {
		return ""
	}
	return fmt.Sprint(e.Errors)
}

// TestConnection reads the shop record.
func (s *Shopify) TestConnection(ctx context.Context) (*StoreInfo, error) {
	var out struct {
		Shop struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"shop"`
	}
	if _, err := s.c.do(ctx, http.MethodGet, "/shop.json", nil, &out); err != nil {
		return nil, err
	}
	return &StoreInfo{ID: strconv.FormatInt(out.Shop.ID, 10), Name: out.Shop.Name, Type: BackendShopify}, nil
}

// SupportsProductCreation is always true for a reachable shop.
func (s *Shopify) SupportsProductCreation(ctx context.Context) (bool, error) {
	if _, err := s.TestConnection(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type shopifyVariant struct {
	ID      int64   `json:"id,omitempty"`
	Option1 *string `json:"option1,omitempty"`
	Option2 *string `json:"option2,omitempty"`
	Option3 *string `json:"option3,omitempty"`
	Price   string  `json:"price,omitempty"`
	SKU     string  `json:"sku,omitempty"`
	Grams   int     `json:"grams,omitempty"`
}

type shopifyProduct struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle,omitempty"`
	BodyHTML    string           `json:"body_html,omitempty"`
	Vendor      string           `json:"vendor,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Tags        string           `json:"tags,omitempty"`
	Status      string           `json:"status,omitempty"`
	Options     []map[string]any `json:"options,omitempty"`
	Variants    []shopifyVariant `json:"variants,omitempty"`
	Images      []map[string]any `json:"images,omitempty"`
}

// Handle returns the product handle for an external ID.
func Handle(externalID string) string {
	return HandlePrefix + externalID
}

func (s *Shopify) productByHandle(ctx context.Context, handle string) (*shopifyProduct, error) {
	var out struct {
		Products []shopifyProduct `json:"products"`
	}
	if _, err := s.c.do(ctx, http.MethodGet, "/products.json?handle="+url.QueryEscape(handle), nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Products {
		if out.Products[i].Handle == handle {
			return &out.Products[i], nil
		}
	}
	return nil, nil
}

// FindProductByExternalID looks the product up by its derived handle.
func (s *Shopify) FindProductByExternalID(ctx context.Context, externalID string) (*Product, error) {
	sp, err := s.productByHandle(ctx, Handle(externalID))
	if err != nil || sp == nil {
		return nil, err
	}
	return &Product{ID: strconv.FormatInt(sp.ID, 10), ExternalID: externalID, Name: sp.Title}, nil
}

// UploadAsset needs no upload: Shopify fetches product images from their
// public URL at creation time.
func (s *Shopify) UploadAsset(ctx context.Context, file FileUpload) (*UploadedFile, error) {
	if file.URL == "" {
		return nil, fmt.Errorf("shopify: asset %q has no public URL", file.Filename)
	}
	return &UploadedFile{URL: file.URL}, nil
}

// TemplateProduct loads the template product by handle.
func (s *Shopify) TemplateProduct(ctx context.Context) (*Template, error) {
	sp, err := s.productByHandle(ctx, s.templateHandle)
	if err != nil {
		return nil, err
	}
	if sp == nil || len(sp.Variants) == 0 {
		return nil, fmt.Errorf("%w: handle %q", ErrNoTemplate, s.templateHandle)
	}

	tpl := &Template{ID: strconv.FormatInt(sp.ID, 10), Name: sp.Title}
	for _, o := range sp.Options {
		if name, ok := o["name"].(string); ok {
			tpl.OptionNames = append(tpl.OptionNames, name)
		}
	}
	for _, v := range sp.Variants {
		variant := Variant{Price: v.Price}
		for _, opt := range []*string{v.Option1, v.Option2, v.Option3} {
			if opt != nil {
				variant.Options = append(variant.Options, *opt)
			}
		}
		if v.Grams > 0 {
			variant.Extra = map[string]any{"grams": v.Grams}
		}
		tpl.Variants = append(tpl.Variants, variant)
	}
	return tpl, nil
}

// CreateProduct creates an active product whose handle encodes the
// external ID and whose variant SKUs are the variant external IDs.
func (s *Shopify) CreateProduct(ctx context.Context, spec ProductSpec) (*Product, error) {
	p := shopifyProduct{
		Title:       spec.Title,
		Handle:      Handle(spec.ExternalID),
		BodyHTML:    spec.Description,
		Vendor:      s.vendor,
		ProductType: s.productType,
		Tags:        strings.Join(spec.Tags, ", "),
		Status:      "active",
	}
	for _, name := range spec.OptionNames {
		p.Options = append(p.Options, map[string]any{"name": name})
	}
	if spec.ImageURL != "" {
		p.Images = []map[string]any{{"src": spec.ImageURL}}
	}
	for _, v := range spec.Variants {
		sv := shopifyVariant{Price: v.Price, SKU: v.SKU}
		opts := []**string{&sv.Option1, &sv.Option2, &sv.Option3}
		for i := 0; i < len(v.Options) && i < len(opts); i++ {
			val := v.Options[i]
			*opts[i] = &val
		}
		if g, ok := v.Extra["grams"].(int); ok {
			sv.Grams = g
		}
		p.Variants = append(p.Variants, sv)
	}

	var out struct {
		Product shopifyProduct `json:"product"`
	}
	if _, err := s.c.do(ctx, http.MethodPost, "/products.json", map[string]any{"product": p}, &out); err != nil {
		return nil, err
	}
	return &Product{ID: strconv.FormatInt(out.Product.ID, 10), ExternalID: spec.ExternalID, Name: out.Product.Title}, nil
}

type shopifyOrder struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LineItems []struct {
		ID        int64  `json:"id"`
		SKU       string `json:"sku"`
		ProductID *int64 `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Price     string `json:"price"`
	} `json:"line_items"`
}

var nextLink = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// ListFulfilledOrders pages through shipped orders created at or after
// since, following the Link header.
func (s *Shopify) ListFulfilledOrders(ctx context.Context, since time.Time) ([]Order, error) {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("fulfillment_status", "shipped")
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))
	q.Set("limit", "250")
	next := "/orders.json?" + q.Encode()

	var out []Order
	for next != "" {
		var page struct {
			Orders []shopifyOrder `json:"orders"`
		}
		hdr, err := s.c.do(ctx, http.MethodGet, next, nil, &page)
		if err != nil {
			return nil, err
		}
		for _, so := range page.Orders {
			o := Order{ID: strconv.FormatInt(so.ID, 10), CreatedAt: so.CreatedAt}
			for _, li := range so.LineItems {
				unit, _ := strconv.ParseFloat(li.Price, 64)
				line := OrderLine{
					ID:         strconv.FormatInt(li.ID, 10),
					ExternalID: li.SKU,
					Quantity:   li.Quantity,
					UnitPrice:  unit,
				}
				if li.ProductID != nil {
					line.ProductID = strconv.FormatInt(*li.ProductID, 10)
				}
				o.Lines = append(o.Lines, line)
			}
			out = append(out, o)
		}

		next = ""
		if m := nextLink.FindStringSubmatch(hdr.Get("Link")); m != nil {
			next = m[1]
		}
	}
	return out, nil
}
