// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gunmerch/internal/models"
)

// AssetStore handles design image asset records.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore creates a new AssetStore with the given database connection.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// assetColumns lists the columns selected in asset queries.
const assetColumns = `id, design_id, s3_key, thumb_s3_key, content_type, width, height,
	size_bytes, provider, created_at, updated_at`

// scanAsset scans an asset row from the result set.
func scanAsset(scanner interface{ Scan(...any) error }) (*models.Asset, error) {
	var a models.Asset
	err := scanner.Scan(
		&a.ID, &a.DesignID, &a.S3Key, &a.ThumbS3Key, &a.ContentType, &a.Width, &a.Height,
		&a.SizeBytes, &a.Provider, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new asset record and returns it with the generated ID.
func (s *AssetStore) Create(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO assets (design_id, s3_key, thumb_s3_key, content_type, width, height,
			size_bytes, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+assetColumns,
		a.DesignID, a.S3Key, a.ThumbS3Key, a.ContentType, a.Width, a.Height,
		a.SizeBytes, a.Provider,
	)
	created, err := scanAsset(row)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single asset. Returns (nil, nil) when absent.
func (s *AssetStore) FindByID(ctx context.Context, id int64) (*models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	return a, nil
}

// Update rewrites the file fields of an asset after post-processing.
func (s *AssetStore) Update(ctx context.Context, a *models.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET s3_key = $1, thumb_s3_key = $2, content_type = $3, width = $4, height = $5,
			size_bytes = $6, updated_at = NOW()
		WHERE id = $7`,
		a.S3Key, a.ThumbS3Key, a.ContentType, a.Width, a.Height, a.SizeBytes, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// Delete removes an asset record and returns it so the caller can clean
// up the corresponding S3 objects.
func (s *AssetStore) Delete(ctx context.Context, id int64) (*models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM assets WHERE id = $1 RETURNING `+assetColumns, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete asset: %w", err)
	}
	return a, nil
}
