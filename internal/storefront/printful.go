// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Printful store types that accept products created through the API.
var printfulCreatableTypes = map[string]bool{"native": true, "api": true}

// PrintfulConfig configures the Printful client.
type PrintfulConfig struct {
	APIKey          string
	StoreID         string
	BaseURL         string
	TemplateProduct string // sync product ID or "@external_id"
	Timeout         time.Duration
	Limiter         *rate.Limiter // default 2 req/s, burst 5
}

// Printful is a Storefront backed by the Printful API.
type Printful struct {
	c        *client
	storeID  string
	template string
}

// NewPrintful creates a Printful client.
func NewPrintful(cfg PrintfulConfig) *Printful {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.printful.com"
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Limit(2), 5)
	}
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	if cfg.StoreID != "" {
		headers["X-PF-Store-Id"] = cfg.StoreID
	}
	c := newClient(BackendPrintful, cfg.BaseURL, headers, cfg.Timeout, cfg.Limiter)
	c.errMessage = printfulErrorMessage
	return &Printful{c: c, storeID: cfg.StoreID, template: cfg.TemplateProduct}
}

func (p *Printful) Name() string { return BackendPrintful }

type printfulEnvelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Paging *struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

func printfulErrorMessage(body []byte) string {
	var e struct {
		Result json.RawMessage `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Error.Message != "" {
		return e.Error.Message
	}
	var s string
	if json.Unmarshal(e.Result, &s) == nil {
		return s
	}
	return ""
}

// call decodes the envelope's result into out.
func (p *Printful) call(ctx context.Context, method, path string, in, out any) (*printfulEnvelope, error) {
	var env printfulEnvelope
	if _, err := p.c.do(ctx, method, path, in, &env); err != nil {
		return nil, err
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return nil, fmt.Errorf("printful decode %s: %w", pathOnly(path), err)
		}
	}
	return &env, nil
}

type printfulStore struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// TestConnection lists the stores the token can access and returns the
// configured one (or the first).
func (p *Printful) TestConnection(ctx context.Context) (*StoreInfo, error) {
	var stores []printfulStore
	if _, err := p.call(ctx, http.MethodGet, "/stores", nil, &stores); err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("printful: token has no stores")
	}
	s := stores[0]
	if p.storeID != "" {
		found := false
		for _, st := range stores {
			if strconv.FormatInt(st.ID, 10) == p.storeID {
				s, found = st, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("printful: store %s not accessible with this token", p.storeID)
		}
	}
	return &StoreInfo{ID: strconv.FormatInt(s.ID, 10), Name: s.Name, Type: s.Type}, nil
}

// SupportsProductCreation reports whether the store is a Manual order /
// API platform store. Stores connected through an ecommerce platform
// manage products on that platform instead.
func (p *Printful) SupportsProductCreation(ctx context.Context) (bool, error) {
	info, err := p.TestConnection(ctx)
	if err != nil {
		return false, err
	}
	return printfulCreatableTypes[strings.ToLower(info.Type)], nil
}

type printfulSyncProduct struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

type printfulFile struct {
	Type string `json:"type,omitempty"`
	ID   int64  `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
}

type printfulSyncVariant struct {
	ID          int64          `json:"id,omitempty"`
	ExternalID  string         `json:"external_id"`
	VariantID   int64          `json:"variant_id"`
	RetailPrice string         `json:"retail_price,omitempty"`
	SKU         string         `json:"sku,omitempty"`
	Files       []printfulFile `json:"files"`
	Options     []any          `json:"options,omitempty"`
}

type printfulProductInfo struct {
	SyncProduct  printfulSyncProduct   `json:"sync_product"`
	SyncVariants []printfulSyncVariant `json:"sync_variants"`
}

func (sp printfulSyncProduct) product() *Product {
	return &Product{ID: strconv.FormatInt(sp.ID, 10), ExternalID: sp.ExternalID, Name: sp.Name}
}

// FindProductByExternalID looks a sync product up by its external ID.
func (p *Printful) FindProductByExternalID(ctx context.Context, externalID string) (*Product, error) {
	var info printfulProductInfo
	_, err := p.call(ctx, http.MethodGet, "/store/products/@"+url.PathEscape(externalID), nil, &info)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info.SyncProduct.product(), nil
}

// UploadAsset adds a file to the Printful library from its public URL.
func (p *Printful) UploadAsset(ctx context.Context, file FileUpload) (*UploadedFile, error) {
	in := map[string]string{"type": "default", "url": file.URL, "filename": file.Filename}
	var out struct {
		ID         int64  `json:"id"`
		URL        string `json:"url"`
		PreviewURL string `json:"preview_url"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/files", in, &out); err != nil {
		return nil, err
	}
	u := out.URL
	if u == "" {
		u = file.URL
	}
	return &UploadedFile{ID: strconv.FormatInt(out.ID, 10), URL: u}, nil
}

// TemplateProduct loads the configured template sync product.
func (p *Printful) TemplateProduct(ctx context.Context) (*Template, error) {
	if p.template == "" {
		return nil, fmt.Errorf("%w: PRINTFUL_TEMPLATE_PRODUCT is not set", ErrNoTemplate)
	}
	var info printfulProductInfo
	_, err := p.call(ctx, http.MethodGet, "/store/products/"+url.PathEscape(p.template), nil, &info)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplate, p.template)
	}
	if err != nil {
		return nil, err
	}
	if len(info.SyncVariants) == 0 {
		return nil, fmt.Errorf("%w: %s has no variants", ErrNoTemplate, p.template)
	}

	tpl := &Template{ID: strconv.FormatInt(info.SyncProduct.ID, 10), Name: info.SyncProduct.Name}
	for _, sv := range info.SyncVariants {
		v := Variant{CatalogID: sv.VariantID, Price: sv.RetailPrice}
		for _, f := range sv.Files {
			pf := PrintFile{Type: f.Type, URL: f.URL}
			if f.ID != 0 {
				pf.ID = strconv.FormatInt(f.ID, 10)
			}
			v.Files = append(v.Files, pf)
		}
		if len(sv.Options) > 0 {
			v.Extra = map[string]any{"options": sv.Options}
		}
		tpl.Variants = append(tpl.Variants, v)
	}
	return tpl, nil
}

// CreateProduct creates a sync product with the given variants.
func (p *Printful) CreateProduct(ctx context.Context, spec ProductSpec) (*Product, error) {
	in := printfulProductInfo{
		SyncProduct: printfulSyncProduct{ExternalID: spec.ExternalID, Name: spec.Title, Thumbnail: spec.ImageURL},
	}
	for _, v := range spec.Variants {
		sv := printfulSyncVariant{
			ExternalID:  v.ExternalID,
			VariantID:   v.CatalogID,
			RetailPrice: v.Price,
			SKU:         v.SKU,
		}
		for _, f := range v.Files {
			pf := printfulFile{Type: f.Type, URL: f.URL}
			if id, err := strconv.ParseInt(f.ID, 10, 64); err == nil && id > 0 {
				pf.ID, pf.URL = id, ""
			}
			sv.Files = append(sv.Files, pf)
		}
		if opts, ok := v.Extra["options"].([]any); ok {
			sv.Options = opts
		}
		in.SyncVariants = append(in.SyncVariants, sv)
	}

	var out printfulSyncProduct
	_, err := p.call(ctx, http.MethodPost, "/store/products", in, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "manual order / api platform") {
		return nil, fmt.Errorf("%w: %s", ErrProductCreationUnsupported, apiErr.Message)
	}
	if err != nil {
		return nil, err
	}
	if out.ExternalID == "" {
		out.ExternalID = spec.ExternalID
	}
	return out.product(), nil
}

type printfulOrder struct {
	ID      int64 `json:"id"`
	Created int64 `json:"created"`
	Items   []struct {
		ID                int64  `json:"id"`
		ExternalVariantID string `json:"external_variant_id"`
		Quantity          int    `json:"quantity"`
		RetailPrice       string `json:"retail_price"`
		Price             string `json:"price"`
	} `json:"items"`
}

// printfulPageSize is the largest page the orders endpoint serves.
const printfulPageSize = 100

// ListFulfilledOrders pages through fulfilled orders, newest first, and
// stops at the first order created before since.
func (p *Printful) ListFulfilledOrders(ctx context.Context, since time.Time) ([]Order, error) {
	var out []Order
	for offset := 0; ; offset += printfulPageSize {
		var page []printfulOrder
		path := fmt.Sprintf("/orders?status=fulfilled&offset=%d&limit=%d", offset, printfulPageSize)
		env, err := p.call(ctx, http.MethodGet, path, nil, &page)
		if err != nil {
			return nil, err
		}

		older := false
		for _, po := range page {
			created := time.Unix(po.Created, 0).UTC()
			if created.Before(since) {
				older = true
				continue
			}
			o := Order{ID: strconv.FormatInt(po.ID, 10), CreatedAt: created}
			for _, it := range po.Items {
				price := it.RetailPrice
				if price == "" {
					price = it.Price
				}
				unit, _ := strconv.ParseFloat(price, 64)
				o.Lines = append(o.Lines, OrderLine{
					ID:         strconv.FormatInt(it.ID, 10),
					ExternalID: it.ExternalVariantID,
					Quantity:   it.Quantity,
					UnitPrice:  unit,
				})
			}
			out = append(out, o)
		}

		if older || len(page) < printfulPageSize || env.Paging == nil ||
			env.Paging.Offset+len(page) >= env.Paging.Total {
			return out, nil
		}
	}
}
