// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gunmerch/internal/models"
	"gunmerch/internal/storefront"
)

// ProcessedLine is one order line seen by a sales sync.
type ProcessedLine struct {
	Backend  string  `json:"backend"`
	OrderID  string  `json:"order_id"`
	LineID   string  `json:"line_id"`
	DesignID int64   `json:"design_id,omitempty"` // 0 when unmatched
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
	Applied  bool    `json:"applied"` // false when already in the ledger
	Sold     bool    `json:"sold"`    // the line moved its design to sold
}

// SalesReport is the result of a sales sync.
type SalesReport struct {
	Summary
	Lines     []ProcessedLine `json:"lines"`
	Unmatched int             `json:"unmatched"`
	Failed    int             `json:"failed"` // storefronts or lines that could not be processed
	Errors    []string        `json:"errors,omitempty"`
}

// fail records a storefront or line that could not be processed.
func (r *SalesReport) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err.Error())
}

// SyncSales reconciles fulfilled orders of the last sales_window_days from
// every configured storefront. Each order line goes through the sales
// ledger, so re-running over the same window never double counts. Lines
// that match no design are recorded once and reported as unmatched. A
// storefront or line that fails is counted in Failed and does not stop the
// others; an error is returned only when nothing could be processed.
func (s *Service) SyncSales(ctx context.Context) (rep *SalesReport, err error) {
	ctx, span := s.start(ctx, "SyncSales")
	defer func() { end(span, err) }()

	if s.deps.Ledger == nil {
		return nil, fmt.Errorf("sales ledger: %w", ErrNotConfigured)
	}
	fronts := s.storefronts()
	if len(fronts) == 0 {
		return nil, fmt.Errorf("storefront: %w", ErrNotConfigured)
	}

	days := s.settings(ctx).Int(models.SettingSalesWindowDays)
	since := s.deps.Now().Add(-time.Duration(days) * 24 * time.Hour)

	rep = &SalesReport{}
	var errs []error
	for _, sf := range fronts {
		orders, err := sf.ListFulfilledOrders(ctx, since)
		if err != nil {
			s.logAPIError(ctx, 0, sf.Name(), "list orders", err)
			err = fmt.Errorf("list %s orders: %w", sf.Name(), err)
			errs = append(errs, err)
			rep.fail(err)
			continue
		}
		for _, o := range orders {
			for _, line := range o.Lines {
				pl, err := s.applyLine(ctx, sf.Name(), o, line)
				if err != nil {
					s.log.Error(ctx, pl.DesignID, "Failed to apply sale", map[string]any{
						"backend": sf.Name(), "order_id": o.ID, "line_id": line.ID, "error": err.Error(),
					})
					err = fmt.Errorf("%s order %s line %s: %w", sf.Name(), o.ID, line.ID, err)
					errs = append(errs, err)
					rep.fail(err)
					continue
				}
				if pl.DesignID == 0 && pl.Applied {
					rep.Unmatched++
				}
				if pl.Applied {
					rep.Count++
				}
				rep.Lines = append(rep.Lines, pl)
			}
		}
	}

	rep.Message = fmt.Sprintf("Processed %d order lines, %d new sales recorded.", len(rep.Lines), rep.Count-rep.Unmatched)
	if rep.Unmatched > 0 {
		rep.Message += fmt.Sprintf(" %d lines matched no design.", rep.Unmatched)
	}
	if rep.Failed > 0 {
		rep.Message += fmt.Sprintf(" %d failures.", rep.Failed)
	}
	s.log.System(ctx, "Sales sync complete", map[string]any{
		"lines": len(rep.Lines), "applied": rep.Count, "unmatched": rep.Unmatched, "failed": rep.Failed,
	})

	// Partial progress is kept; errors only report what to retry.
	if len(errs) > 0 && len(rep.Lines) == 0 {
		return rep, errors.Join(errs...)
	}
	return rep, nil
}

// applyLine matches an order line to a design and records it in the ledger.
func (s *Service) applyLine(ctx context.Context, backend string, o storefront.Order, line storefront.OrderLine) (ProcessedLine, error) {
	pl := ProcessedLine{Backend: backend, OrderID: o.ID, LineID: line.ID, Quantity: line.Quantity}

	d, err := s.matchDesign(ctx, backend, line)
	if err != nil {
		return pl, err
	}
	sale := models.Sale{
		Backend:    backend,
		OrderID:    o.ID,
		LineID:     line.ID,
		ExternalID: line.ExternalID,
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
	}
	if d != nil {
		pl.DesignID = d.ID
		sale.DesignID = &d.ID
	}
	pl.Amount = sale.Amount()

	res, err := s.deps.Ledger.Apply(ctx, sale)
	if err != nil {
		return pl, fmt.Errorf("apply sale %s/%s: %w", o.ID, line.ID, err)
	}
	pl.Applied, pl.Sold = res.Applied, res.Sold
	if !res.Applied {
		return pl, nil
	}

	if d == nil {
		s.log.Warning(ctx, 0, "Order line matched no design", map[string]any{
			"backend": backend, "order_id": o.ID, "line_id": line.ID, "external_id": line.ExternalID,
		})
		return pl, nil
	}
	s.log.Info(ctx, d.ID, "Sale recorded", map[string]any{
		"order_id": o.ID, "quantity": line.Quantity, "amount": pl.Amount, "sales_count": res.SalesCount,
	})
	s.notify(ctx, fmt.Sprintf("sale:%s:%s:%s", backend, o.ID, line.ID),
		fmt.Sprintf("%q sold %d (%.2f).", d.Title, line.Quantity, pl.Amount))
	if res.Sold {
		s.log.Info(ctx, d.ID, "Design sold for the first time", nil)
	}
	return pl, nil
}

// matchDesign resolves the design owning an order line: by external ID
// when it names a design published on this backend, else by the remote
// product ID.
func (s *Service) matchDesign(ctx context.Context, backend string, line storefront.OrderLine) (*models.Design, error) {
	if id, ok := models.ParseExternalID(line.ExternalID); ok {
		d, err := s.deps.Designs.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil && d.RemoteBackend != nil && *d.RemoteBackend == backend {
			return d, nil
		}
	}
	if line.ProductID != "" {
		return s.deps.Designs.FindByRemoteProductID(ctx, backend, line.ProductID)
	}
	return nil, nil
}

// storefronts returns the configured backends, primary first.
func (s *Service) storefronts() []storefront.Storefront {
	var out []storefront.Storefront
	if s.deps.Storefront != nil {
		out = append(out, s.deps.Storefront)
	}
	if s.deps.Alternate != nil {
		out = append(out, s.deps.Alternate)
	}
	return out
}
