// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Sale is one storefront order line prepared for the sales ledger.
// DesignID is nil when the line could not be matched to a design.
type Sale struct {
	Backend    string  `json:"backend"`
	OrderID    string  `json:"order_id"`
	LineID     string  `json:"line_id"`
	DesignID   *int64  `json:"design_id,omitempty"`
	ExternalID string  `json:"external_id,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// Amount is the revenue contributed by the line.
func (s Sale) Amount() float64 {
	return float64(s.Quantity) * s.UnitPrice
}

// SaleResult reports what applying a sale changed.
type SaleResult struct {
	Applied    bool // false when the line was already in the ledger
	SalesCount int  // design's sales count after applying
	Sold       bool // design moved from live to sold
}
