// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gunmerch/internal/imaging"
	"gunmerch/internal/markdown"
	"gunmerch/internal/models"
	"gunmerch/internal/slug"
	"gunmerch/internal/storefront"
)

// PublishResult identifies the remote product of a published design.
type PublishResult struct {
	DesignID        int64  `json:"design_id"`
	Backend         string `json:"backend"`
	RemoteProductID string `json:"remote_product_id"`
	Adopted         bool   `json:"adopted"` // an existing product was linked instead of creating one
}

// RetailPrice applies a margin percentage to the base cost.
func RetailPrice(baseCost, marginPct float64) string {
	return fmt.Sprintf("%.2f", math.Round(baseCost*(1+marginPct/100)*100)/100)
}

// Publish creates the storefront product of an approved design and marks
// it live. The store is first asked for a product carrying the design's
// external ID; when one exists it is adopted instead of creating a
// duplicate. Failures leave the status unchanged.
func (s *Service) Publish(ctx context.Context, id int64) (res *PublishResult, err error) {
	ctx, span := s.start(ctx, "Publish")
	defer func() { end(span, err) }()

	d, err := s.design(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != models.DesignStatusApproved && d.Status != models.DesignStatusLive {
		return nil, fmt.Errorf("%w: only approved designs can be published (status %s)", ErrTransition, d.Status)
	}

	sf, err := s.publishTarget(ctx)
	if err != nil {
		s.log.Error(ctx, id, "No storefront can create products", map[string]any{"error": err.Error()})
		return nil, err
	}
	backend := sf.Name()
	externalID := models.ExternalID(d.ID)

	existing, err := sf.FindProductByExternalID(ctx, externalID)
	if err != nil {
		s.logAPIError(ctx, id, backend, "find product", err)
		return nil, fmt.Errorf("find %s product: %w", backend, err)
	}
	if existing != nil {
		if err := s.deps.Designs.MarkLive(ctx, d.ID, backend, existing.ID); err != nil {
			return nil, err
		}
		s.log.Info(ctx, id, "Existing product adopted", map[string]any{"backend": backend, "remote_id": existing.ID})
		return &PublishResult{DesignID: d.ID, Backend: backend, RemoteProductID: existing.ID, Adopted: true}, nil
	}

	fileURL, filename, err := s.printFile(ctx, d)
	if err != nil {
		return nil, err
	}

	uploaded, err := sf.UploadAsset(ctx, storefront.FileUpload{Filename: filename, URL: fileURL})
	if err != nil {
		s.logAPIError(ctx, id, backend, "upload asset", err)
		return nil, fmt.Errorf("upload print file: %w", err)
	}
	tpl, err := sf.TemplateProduct(ctx)
	if err != nil {
		s.logAPIError(ctx, id, backend, "template product", err)
		return nil, fmt.Errorf("load template product: %w", err)
	}

	st := s.settings(ctx)
	margin := d.EstimatedMargin
	if margin <= 0 {
		margin = st.Float(models.SettingDefaultMargin)
	}
	description, err := markdown.ToHTML(productDescription(d))
	if err != nil {
		return nil, fmt.Errorf("render description: %w", err)
	}

	spec := storefront.ProductSpec{
		ExternalID:  externalID,
		Title:       d.Title,
		Description: description,
		Tags:        slug.Tags("gunmerch", d.TrendTopic, d.MetaValue(models.MetaTrendCategory)),
		ImageURL:    uploaded.URL,
		OptionNames: tpl.OptionNames,
		Variants:    storefront.CloneVariants(tpl, d.ID, *uploaded, RetailPrice(st.Float(models.SettingBaseCost), margin)),
	}
	product, err := sf.CreateProduct(ctx, spec)
	if err != nil {
		s.logAPIError(ctx, id, backend, "create product", err)
		s.notify(ctx, fmt.Sprintf("publish_failed:%d", d.ID), fmt.Sprintf("Publishing %q to %s failed.", d.Title, backend))
		return nil, fmt.Errorf("create %s product: %w", backend, err)
	}

	if err := s.deps.Designs.MarkLive(ctx, d.ID, backend, product.ID); err != nil {
		// The remote product exists; the next publish adopts it.
		s.log.Error(ctx, id, "Product created but design not marked live", map[string]any{
			"backend": backend, "remote_id": product.ID, "error": err.Error(),
		})
		return nil, err
	}

	s.log.Info(ctx, id, "Design published", map[string]any{
		"backend": backend, "remote_id": product.ID, "variants": len(spec.Variants),
	})
	s.notify(ctx, fmt.Sprintf("published:%d", d.ID), fmt.Sprintf("%q is live on %s.", d.Title, backend))
	return &PublishResult{DesignID: d.ID, Backend: backend, RemoteProductID: product.ID}, nil
}

// publishTarget probes the configured storefronts, primary first, and
// returns the first one that can create products. Without a primary the
// alternate is used on its own, matching the stores sales sync reads.
func (s *Service) publishTarget(ctx context.Context) (storefront.Storefront, error) {
	fronts := s.storefronts()
	if len(fronts) == 0 {
		return nil, fmt.Errorf("storefront: %w", ErrNotConfigured)
	}
	for i, sf := range fronts {
		ok, err := sf.SupportsProductCreation(ctx)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", sf.Name(), err)
		}
		if !ok {
			continue
		}
		if i > 0 {
			slog.Info("routing publish to alternate storefront", "from", fronts[0].Name(), "to", sf.Name())
		}
		return sf, nil
	}
	return nil, fmt.Errorf("%s: %w", fronts[0].Name(), storefront.ErrProductCreationUnsupported)
}

// printFile returns a public URL for the design's print file. Designs
// with an image use their asset; text-only designs get a rendered slogan.
func (s *Service) printFile(ctx context.Context, d *models.Design) (url, filename string, err error) {
	if s.deps.Storage == nil {
		return "", "", fmt.Errorf("object storage: %w", ErrNotConfigured)
	}
	name := slug.Generate(d.Title)
	if name == "" {
		name = "design"
	}
	name = fmt.Sprintf("%d-%s", d.ID, name)

	switch {
	case d.HasImage():
		asset, err := s.deps.Assets.FindByID(ctx, *d.ImageAssetID)
		if err != nil {
			return "", "", err
		}
		if asset == nil {
			return "", "", fmt.Errorf("design %d: %w", d.ID, ErrNeedsImage)
		}
		url, err := s.deps.Storage.URL(ctx, asset.S3Key)
		if err != nil {
			return "", "", fmt.Errorf("asset url: %w", err)
		}
		return url, name + extension(asset.ContentType), nil

	case d.IsTextOnly():
		res, err := imaging.RenderText(imaging.TextSpec{
			Text:           d.DisplayText(),
			Highlight:      d.MetaValue(models.MetaHighlightWord),
			HighlightColor: d.MetaValue(models.MetaHighlightColor),
		})
		if err != nil {
			return "", "", fmt.Errorf("render text print file: %w", err)
		}
		key := fmt.Sprintf("designs/%d/print/%s.png", d.ID, name)
		if err := s.deps.Storage.Put(ctx, key, res.ContentType, res.Data); err != nil {
			return "", "", fmt.Errorf("store text print file: %w", err)
		}
		url, err := s.deps.Storage.URL(ctx, key)
		if err != nil {
			return "", "", fmt.Errorf("asset url: %w", err)
		}
		return url, name + ".png", nil

	default:
		return "", "", fmt.Errorf("design %d: %w", d.ID, ErrNeedsImage)
	}
}

// productDescription is the Markdown source of a product description.
func productDescription(d *models.Design) string {
	var b strings.Builder
	if d.Concept != "" {
		b.WriteString(d.Concept)
		b.WriteString("\n\n")
	}
	if text := strings.TrimSpace(d.DesignText); text != "" {
		fmt.Fprintf(&b, "**%s**\n", text)
	}
	return b.String()
}

// logAPIError records a storefront failure with its endpoint and status.
func (s *Service) logAPIError(ctx context.Context, designID int64, backend, action string, err error) {
	meta := map[string]any{"backend": backend, "action": action, "error": err.Error()}
	var apiErr *storefront.APIError
	if errors.As(err, &apiErr) {
		meta["endpoint"] = apiErr.Endpoint
		meta["status"] = apiErr.StatusCode
		meta["temporary"] = apiErr.Temporary()
	}
	s.log.Error(ctx, designID, "Storefront call failed", meta)
}
