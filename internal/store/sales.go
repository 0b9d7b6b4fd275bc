// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// sales.go keeps the ledger of reconciled storefront order lines. A line is
// applied to its design's counters at most once, no matter how often the
// same order window is re-fetched.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"gunmerch/internal/models"
)

// SalesLedger records applied order lines and updates design counters.
type SalesLedger struct {
	db *sql.DB
}

// NewSalesLedger creates a new SalesLedger.
func NewSalesLedger(db *sql.DB) *SalesLedger {
	return &SalesLedger{db: db}
}

// Apply records a sale. When the (backend, order, line) triple is new and
// the line is matched to a design, the design's sales count and revenue are
// incremented and a live design with a positive quantity becomes sold. All of it
// happens in one transaction.
func (l *SalesLedger) Apply(ctx context.Context, s models.Sale) (models.SaleResult, error) {
	var res models.SaleResult

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("apply sale: %w", err)
	}
	defer tx.Rollback()

	ins, err := tx.ExecContext(ctx, `
		INSERT INTO sales_ledger (backend, order_id, line_id, design_id, external_id, quantity, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (backend, order_id, line_id) DO NOTHING`,
		s.Backend, s.OrderID, s.LineID, s.DesignID, s.ExternalID, s.Quantity, s.Amount(),
	)
	if err != nil {
		return res, fmt.Errorf("insert sales ledger: %w", err)
	}
	if n, _ := ins.RowsAffected(); n == 0 {
		return res, nil
	}
	res.Applied = true

	if s.DesignID != nil {
		var status models.DesignStatus
		err = tx.QueryRowContext(ctx, `
			UPDATE designs
			SET sales_count = sales_count + $1, revenue = revenue + $2, updated_at = NOW()
			WHERE id = $3
			RETURNING sales_count, status`,
			s.Quantity, s.Amount(), *s.DesignID,
		).Scan(&res.SalesCount, &status)
		if err != nil {
			return res, fmt.Errorf("increment design sales: %w", err)
		}

		// The ledger insert already proved the line is new.
		if s.Quantity > 0 && status == models.DesignStatusLive {
			if _, err := tx.ExecContext(ctx,
				`UPDATE designs SET status = 'sold', updated_at = NOW() WHERE id = $1 AND status = 'live'`,
				*s.DesignID,
			); err != nil {
				return res, fmt.Errorf("mark design sold: %w", err)
			}
			res.Sold = true
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("apply sale commit: %w", err)
	}
	return res, nil
}
