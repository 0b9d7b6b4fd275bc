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

// ErrStatusConflict is returned when a conditional status update matched
// no row because the design was not in an allowed state.
var ErrStatusConflict = errors.New("design status changed concurrently")

// DesignStore handles design and design metadata persistence.
type DesignStore struct {
	db *sql.DB
}

// NewDesignStore creates a new DesignStore with the given database connection.
func NewDesignStore(db *sql.DB) *DesignStore {
	return &DesignStore{db: db}
}

// designColumns lists the columns selected in design queries.
const designColumns = `id, title, concept, design_text, design_type, trend_topic,
	trend_source_url, estimated_margin, status, image_asset_id, remote_backend,
	remote_product_id, sales_count, revenue, created_at, updated_at`

// scanDesign scans a design row from the result set.
func scanDesign(scanner interface{ Scan(...any) error }) (*models.Design, error) {
	var d models.Design
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Concept, &d.DesignText, &d.DesignType, &d.TrendTopic,
		&d.TrendSourceURL, &d.EstimatedMargin, &d.Status, &d.ImageAssetID, &d.RemoteBackend,
		&d.RemoteProductID, &d.SalesCount, &d.Revenue, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a design together with its metadata and returns it with
// the generated ID and timestamps.
func (s *DesignStore) Create(ctx context.Context, d *models.Design) (*models.Design, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO designs (title, concept, design_text, design_type, trend_topic,
			trend_source_url, estimated_margin, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		d.Title, d.Concept, d.DesignText, d.DesignType, d.TrendTopic,
		d.TrendSourceURL, d.EstimatedMargin, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}

	for k, v := range d.Meta {
		if _, err := tx.ExecContext(ctx, upsertMetaSQL, d.ID, k, v); err != nil {
			return nil, fmt.Errorf("create design meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create design commit: %w", err)
	}
	return d, nil
}

// FindByID retrieves a design and its metadata. Returns (nil, nil) when
// the design does not exist.
func (s *DesignStore) FindByID(ctx context.Context, id int64) (*models.Design, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1`, id)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find design by id: %w", err)
	}

	d.Meta, err = s.GetMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindByRemoteProductID returns the design linked to a storefront product.
func (s *DesignStore) FindByRemoteProductID(ctx context.Context, backend, remoteID string) (*models.Design, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+designColumns+` FROM designs
		WHERE remote_backend = $1 AND remote_product_id = $2`, backend, remoteID)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find design by remote product: %w", err)
	}
	return d, nil
}

// List returns designs newest first, optionally filtered by status.
// Metadata is not loaded.
func (s *DesignStore) List(ctx context.Context, f models.DesignFilter) ([]models.Design, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if f.Status != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+designColumns+` FROM designs
			WHERE status = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`, f.Status, f.Limit, f.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+designColumns+` FROM designs
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var items []models.Design
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// UpdateStatus sets the status of a design and bumps updated_at.
func (s *DesignStore) UpdateStatus(ctx context.Context, id int64, status models.DesignStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE designs SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update design status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update design status %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// TransitionStatus moves a design from one status to another. It fails
// with ErrStatusConflict when the stored status is no longer from.
func (s *DesignStore) TransitionStatus(ctx context.Context, id int64, from, to models.DesignStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE designs SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition design status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transition design %d from %s: %w", id, from, ErrStatusConflict)
	}
	return nil
}

// MarkLive records the remote product and moves the design to live in a
// single statement. Only approved or already-live designs are updated;
// otherwise ErrStatusConflict is returned. A remote ID already owned by
// another design violates the unique index and surfaces as an error.
func (s *DesignStore) MarkLive(ctx context.Context, id int64, backend, remoteID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE designs
		SET remote_backend = $1, remote_product_id = $2, status = 'live', updated_at = NOW()
		WHERE id = $3 AND status IN ('approved', 'live')`,
		backend, remoteID, id,
	)
	if err != nil {
		return fmt.Errorf("mark design live: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark design %d live: %w", id, ErrStatusConflict)
	}
	return nil
}

// SetImageAsset attaches an image asset and marks the design as an image design.
func (s *DesignStore) SetImageAsset(ctx context.Context, id, assetID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE designs SET image_asset_id = $1, design_type = 'image', updated_at = NOW()
		WHERE id = $2`, assetID, id)
	if err != nil {
		return fmt.Errorf("set design image asset: %w", err)
	}
	return nil
}

// Touch bumps updated_at, used after in-place asset edits.
func (s *DesignStore) Touch(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE designs SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch design: %w", err)
	}
	return nil
}

const upsertMetaSQL = `
	INSERT INTO design_meta (design_id, meta_key, meta_value)
	VALUES ($1, $2, $3)
	ON CONFLICT (design_id, meta_key)
	DO UPDATE SET meta_value = EXCLUDED.meta_value`

// GetMeta returns all metadata of a design.
func (s *DesignStore) GetMeta(ctx context.Context, id int64) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meta_key, meta_value FROM design_meta WHERE design_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get design meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan design meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// SetMeta upserts one metadata value.
func (s *DesignStore) SetMeta(ctx context.Context, id int64, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertMetaSQL, id, key, value); err != nil {
		return fmt.Errorf("set design meta %s: %w", key, err)
	}
	return nil
}

// DeleteMeta removes one metadata value.
func (s *DesignStore) DeleteMeta(ctx context.Context, id int64, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM design_meta WHERE design_id = $1 AND meta_key = $2`, id, key)
	if err != nil {
		return fmt.Errorf("delete design meta %s: %w", key, err)
	}
	return nil
}

// Stats aggregates counts and sales across all designs.
func (s *DesignStore) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'live'),
			COUNT(*) FILTER (WHERE status = 'sold'),
			COALESCE(SUM(sales_count), 0),
			COALESCE(SUM(revenue), 0)
		FROM designs`,
	).Scan(&st.Generated, &st.Pending, &st.Approved, &st.Rejected,
		&st.Live, &st.Sold, &st.TotalSales, &st.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("design stats: %w", err)
	}
	return &st, nil
}
