// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// log.go stores the operator-facing activity log. Entries are append-only;
// the only mutations are retention pruning and an explicit clear.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gunmerch/internal/models"
)

// LogStore handles activity log persistence.
type LogStore struct {
	db *sql.DB
}

// NewLogStore creates a new LogStore.
func NewLogStore(db *sql.DB) *LogStore {
	return &LogStore{db: db}
}

// Insert appends an entry.
func (s *LogStore) Insert(ctx context.Context, e models.LogEntry) error {
	var meta []byte
	if len(e.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(e.Meta); err != nil {
			return fmt.Errorf("encode log meta: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (level, message, design_id, meta)
		VALUES ($1, $2, $3, $4)`,
		e.Level, e.Message, e.DesignID, meta,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// logWhere builds the WHERE clause shared by List and Count.
func logWhere(f models.LogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Level != "" {
		args = append(args, f.Level)
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if f.DesignID > 0 {
		args = append(args, f.DesignID)
		conds = append(conds, fmt.Sprintf("design_id = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns entries newest first.
func (s *LogStore) List(ctx context.Context, f models.LogFilter) ([]models.LogEntry, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	where, args := logWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, level, message, design_id, meta, created_at
		FROM logs%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var (
			e    models.LogEntry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &e.DesignID, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode log meta %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries matching the filter.
func (s *LogStore) Count(ctx context.Context, f models.LogFilter) (int, error) {
	where, args := logWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return n, nil
}

// DeleteOlderThan prunes entries created more than days ago.
func (s *LogStore) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM logs WHERE created_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("prune logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteAll clears the log.
func (s *LogStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs`)
	if err != nil {
		return 0, fmt.Errorf("clear logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
