// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gunmerch/internal/imaging"
	"gunmerch/internal/models"
)

// maxDownload caps hosted image downloads.
const maxDownload = 32 << 20

// BuildImagePrompt fills the prompt template for a design. Placeholders:
// {text} and {slogan} (slogan, else title), {title}, {concept},
// {custom_prompt} (per-design image prompt) and {highlight} (a directive
// built from the highlight word and colour). Runs of whitespace left by
// empty placeholders are collapsed.
func BuildImagePrompt(template string, d *models.Design) string {
	if strings.TrimSpace(template) == "" {
		template = models.DefaultImagePromptTemplate
	}

	highlight := ""
	if word := strings.TrimSpace(d.MetaValue(models.MetaHighlightWord)); word != "" {
		color := d.MetaValue(models.MetaHighlightColor)
		if color == "" {
			color = imaging.DefaultHighlightColor
		}
		highlight = fmt.Sprintf("Make the word %q stand out in the color %s.", word, color)
	}

	text := d.DisplayText()
	r := strings.NewReplacer(
		"{text}", text,
		"{slogan}", text,
		"{title}", d.Title,
		"{concept}", d.Concept,
		"{custom_prompt}", strings.TrimSpace(d.MetaValue(models.MetaImagePrompt)),
		"{highlight}", highlight,
	)
	return strings.Join(strings.Fields(r.Replace(template)), " ")
}

// GenerateImage synthesises artwork for a design and attaches it as the
// design's image, replacing any previous asset.
func (s *Service) GenerateImage(ctx context.Context, id int64) (asset *models.Asset, err error) {
	ctx, span := s.start(ctx, "GenerateImage")
	defer func() { end(span, err) }()

	if s.deps.Storage == nil || s.deps.Assets == nil {
		return nil, fmt.Errorf("object storage: %w", ErrNotConfigured)
	}
	if s.deps.Images == nil || !s.deps.Images.SupportsImageGeneration() {
		return nil, fmt.Errorf("image provider: %w", ErrNotConfigured)
	}
	d, err := s.design(ctx, id)
	if err != nil {
		return nil, err
	}

	prompt := BuildImagePrompt(s.settings(ctx).String(models.SettingImagePromptTemplate), d)
	s.log.Debug(ctx, d.ID, "Generating image", map[string]any{"prompt": prompt})

	img, err := s.deps.Images.GenerateImage(ctx, prompt)
	if err != nil {
		s.log.Error(ctx, d.ID, "Image generation failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("generate image: %w", err)
	}

	data := img.Data
	if len(data) == 0 && img.URL != "" {
		if data, err = s.download(ctx, img.URL); err != nil {
			s.log.Error(ctx, d.ID, "Image download failed", map[string]any{"provider": img.Provider, "error": err.Error()})
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("generate image: %s returned no image data", img.Provider)
	}

	decoded, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	b := decoded.Bounds()
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	asset, err = s.createAsset(ctx, d.ID, &imaging.Result{
		Data: data, ContentType: contentType, Width: b.Dx(), Height: b.Dy(),
	}, img.Provider)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Designs.SetImageAsset(ctx, d.ID, asset.ID); err != nil {
		s.deleteAsset(ctx, asset.ID)
		return nil, err
	}
	if d.ImageAssetID != nil && *d.ImageAssetID != asset.ID {
		s.deleteAsset(ctx, *d.ImageAssetID)
	}

	s.log.Info(ctx, d.ID, "Image generated", map[string]any{
		"provider": img.Provider, "asset_id": asset.ID, "width": asset.Width, "height": asset.Height,
	})
	return asset, nil
}

// RemoveBackground mattes the design's image in place. The remote matting
// service is used when configured, the local algorithm otherwise.
func (s *Service) RemoveBackground(ctx context.Context, id int64) (asset *models.Asset, err error) {
	ctx, span := s.start(ctx, "RemoveBackground")
	defer func() { end(span, err) }()

	return s.transformImage(ctx, id, "Background removed", func(data []byte) (*imaging.Result, string, error) {
		if s.deps.Matter != nil {
			out, err := s.deps.Matter.Matte(ctx, data)
			if err != nil {
				return nil, "", fmt.Errorf("remove background: %w", err)
			}
			decoded, _, err := imaging.Decode(out)
			if err != nil {
				return nil, "", fmt.Errorf("remove background: %w", err)
			}
			b := decoded.Bounds()
			return &imaging.Result{Data: out, ContentType: "image/png", Width: b.Dx(), Height: b.Dy()}, "remove.bg", nil
		}
		res, err := imaging.RemoveBackgroundBytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("remove background: %w", err)
		}
		return res, "local", nil
	})
}

// Upscale enlarges the design's image by imaging.UpscaleFactor in place.
func (s *Service) Upscale(ctx context.Context, id int64) (asset *models.Asset, err error) {
	ctx, span := s.start(ctx, "Upscale")
	defer func() { end(span, err) }()

	return s.transformImage(ctx, id, "Image upscaled", func(data []byte) (*imaging.Result, string, error) {
		res, err := imaging.Upscale(data, imaging.UpscaleFactor)
		if err != nil {
			return nil, "", fmt.Errorf("upscale: %w", err)
		}
		return res, imaging.Backend, nil
	})
}

// transformImage is the read-modify-write shared by the post-processing
// steps. The new file gets a fresh key and thumbnail; old objects are
// removed after the asset row points at the new ones.
func (s *Service) transformImage(ctx context.Context, id int64, done string,
	fn func(data []byte) (*imaging.Result, string, error)) (*models.Asset, error) {
	if s.deps.Storage == nil || s.deps.Assets == nil {
		return nil, fmt.Errorf("object storage: %w", ErrNotConfigured)
	}
	d, err := s.design(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.HasImage() {
		return nil, fmt.Errorf("design %d: %w", id, ErrNoImage)
	}
	asset, err := s.deps.Assets.FindByID(ctx, *d.ImageAssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("design %d asset %d: %w", id, *d.ImageAssetID, ErrNoImage)
	}

	data, err := s.deps.Storage.Get(ctx, asset.S3Key)
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}

	res, method, err := fn(data)
	if err != nil {
		s.log.Error(ctx, d.ID, done+" failed", map[string]any{"error": err.Error()})
		return nil, err
	}

	oldKey, oldThumb := asset.S3Key, asset.ThumbS3Key
	key, thumb, err := s.putFiles(ctx, d.ID, res)
	if err != nil {
		return nil, err
	}
	asset.S3Key, asset.ThumbS3Key = key, thumb
	asset.ContentType = res.ContentType
	asset.Width, asset.Height = res.Width, res.Height
	asset.SizeBytes = int64(len(res.Data))
	if err := s.deps.Assets.Update(ctx, asset); err != nil {
		s.deleteObjects(ctx, key, thumb)
		return nil, err
	}
	s.deleteObjects(ctx, oldKey, oldThumb)

	if err := s.deps.Designs.Touch(ctx, d.ID); err != nil {
		slog.Warn("failed to touch design", "design_id", d.ID, "error", err)
	}
	s.log.Info(ctx, d.ID, done, map[string]any{"method": method, "width": res.Width, "height": res.Height})
	return asset, nil
}

// createAsset stores the file and its thumbnail and inserts the asset row.
func (s *Service) createAsset(ctx context.Context, designID int64, res *imaging.Result, provider string) (*models.Asset, error) {
	key, thumb, err := s.putFiles(ctx, designID, res)
	if err != nil {
		return nil, err
	}
	asset, err := s.deps.Assets.Create(ctx, &models.Asset{
		DesignID:    designID,
		S3Key:       key,
		ThumbS3Key:  thumb,
		ContentType: res.ContentType,
		Width:       res.Width,
		Height:      res.Height,
		SizeBytes:   int64(len(res.Data)),
		Provider:    provider,
	})
	if err != nil {
		s.deleteObjects(ctx, key, thumb)
		return nil, err
	}
	return asset, nil
}

// putFiles uploads a file under a fresh key plus its thumbnail. A failing
// thumbnail is logged and skipped.
func (s *Service) putFiles(ctx context.Context, designID int64, res *imaging.Result) (string, *string, error) {
	name := uuid.NewString()
	key := fmt.Sprintf("designs/%d/%s%s", designID, name, extension(res.ContentType))
	if err := s.deps.Storage.Put(ctx, key, res.ContentType, res.Data); err != nil {
		return "", nil, fmt.Errorf("store asset: %w", err)
	}

	th, err := imaging.Thumbnail(res.Data, imaging.ThumbnailWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "design_id", designID, "error", err)
		return key, nil, nil
	}
	thumbKey := fmt.Sprintf("designs/%d/thumbs/%s%s", designID, name, extension(th.ContentType))
	if err := s.deps.Storage.Put(ctx, thumbKey, th.ContentType, th.Data); err != nil {
		slog.Warn("thumbnail upload failed", "design_id", designID, "key", thumbKey, "error", err)
		return key, nil, nil
	}
	return key, &thumbKey, nil
}

// deleteAsset removes an asset row and its objects.
func (s *Service) deleteAsset(ctx context.Context, id int64) {
	a, err := s.deps.Assets.Delete(ctx, id)
	if err != nil {
		slog.Warn("failed to delete asset", "asset_id", id, "error", err)
		return
	}
	if a != nil {
		s.deleteObjects(ctx, a.S3Key, a.ThumbS3Key)
	}
}

func (s *Service) deleteObjects(ctx context.Context, key string, thumb *string) {
	keys := []string{key}
	if thumb != nil {
		keys = append(keys, *thumb)
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.deps.Storage.Delete(ctx, k); err != nil {
			slog.Warn("failed to delete object", "key", k, "error", err)
		}
	}
}

// download fetches a hosted image.
func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	resp, err := s.deps.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return data, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
